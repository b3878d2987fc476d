package httpapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/session"
)

// Service はハンドラが必要とするワークフロー操作の一式です。
// workflow.Manager がそのまま満たします。
type Service interface {
	CreateSession(child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec, strategy generator.Strategy) (*session.Session, error)
	DraftStory(ctx context.Context, sessionID string) (domain.Story, error)
	DeriveAvatarFromPhoto(ctx context.Context, sessionID string, photo []byte) (domain.Avatar, error)
	DeriveAvatarFromDescription(ctx context.Context, sessionID, description string) (domain.Avatar, error)
	RegenerateAvatar(ctx context.Context, sessionID string) (domain.Avatar, error)
	IllustrateAll(ctx context.Context, sessionID string, progress generator.Progress) (generator.Result, error)
	IllustrateSlot(ctx context.Context, sessionID string, slot domain.Slot) (domain.GeneratedAsset, error)
	Assets(sessionID string) (map[domain.Slot]domain.GeneratedAsset, error)
	Statuses(sessionID string) (map[domain.Slot]domain.SlotStatus, error)
	ExportPDF(sessionID string) ([]byte, string, error)
	ExportZIP(sessionID string) ([]byte, string, error)
}

// NewRouter はルーティングとミドルウェア一式を組み立てます。
func NewRouter(svc Service, cfg ServerConfig) *chi.Mux {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(cfg)))

	r.Get("/healthz", h.health)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/story", h.draftStory)
			r.Post("/avatar", h.deriveAvatar)
			r.Post("/avatar/regenerate", h.regenerateAvatar)
			r.Post("/illustrate", h.illustrateAll)
			r.Post("/slots/{slot}", h.illustrateSlot)
			r.Get("/assets", h.listAssets)
			r.Get("/assets/{slot}", h.getAsset)
			r.Get("/export/pdf", h.exportPDF)
			r.Get("/export/zip", h.exportZIP)
		})
	})

	return r
}

// corsOptions はローカル開発のフロントエンドを許可するCORS設定です。
func corsOptions(cfg ServerConfig) cors.Options {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if allowed[origin] {
				return true
			}
			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			switch parsed.Hostname() {
			case "localhost", "127.0.0.1", "::1":
				return true
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
