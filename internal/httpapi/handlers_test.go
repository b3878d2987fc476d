package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/safety"
	"github.com/shouni/go-storybook-kit/pkg/session"
)

// fakeService はハンドラ検証用の Service 実装です。
type fakeService struct {
	store    *session.Store
	story    domain.Story
	storyErr error
	assets   map[domain.Slot]domain.GeneratedAsset
}

func newFakeService() *fakeService {
	return &fakeService{
		store:  session.NewStore(time.Minute, time.Minute),
		assets: make(map[domain.Slot]domain.GeneratedAsset),
	}
}

func (f *fakeService) CreateSession(child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec, strategy generator.Strategy) (*session.Session, error) {
	if !strategy.Valid() {
		return nil, &domain.ValidationError{Field: "strategy", Reason: "unknown strategy"}
	}
	return f.store.Create(child, goal, style, strategy), nil
}

func (f *fakeService) DraftStory(_ context.Context, sessionID string) (domain.Story, error) {
	if _, err := f.store.Get(sessionID); err != nil {
		return domain.Story{}, err
	}
	if f.storyErr != nil {
		return domain.Story{}, f.storyErr
	}
	return f.story, nil
}

func (f *fakeService) DeriveAvatarFromPhoto(_ context.Context, _ string, _ []byte) (domain.Avatar, error) {
	return domain.Avatar{Source: domain.AvatarFromPhoto}, nil
}

func (f *fakeService) DeriveAvatarFromDescription(_ context.Context, _, description string) (domain.Avatar, error) {
	if description == "" {
		return domain.Avatar{}, &domain.ValidationError{Field: "avatar.description", Reason: "description is required"}
	}
	return domain.Avatar{Source: domain.AvatarFromDescription}, nil
}

func (f *fakeService) RegenerateAvatar(_ context.Context, _ string) (domain.Avatar, error) {
	return domain.Avatar{}, &generator.PreconditionError{Missing: []string{"avatar input"}}
}

func (f *fakeService) IllustrateAll(_ context.Context, sessionID string, _ generator.Progress) (generator.Result, error) {
	if _, err := f.store.Get(sessionID); err != nil {
		return generator.Result{}, err
	}
	return generator.Result{CompletedSlots: []domain.Slot{domain.SlotCover}, FailedSlots: map[domain.Slot]error{}}, nil
}

func (f *fakeService) IllustrateSlot(_ context.Context, _ string, slot domain.Slot) (domain.GeneratedAsset, error) {
	return domain.GeneratedAsset{Slot: slot}, nil
}

func (f *fakeService) Assets(sessionID string) (map[domain.Slot]domain.GeneratedAsset, error) {
	if _, err := f.store.Get(sessionID); err != nil {
		return nil, err
	}
	return f.assets, nil
}

func (f *fakeService) Statuses(sessionID string) (map[domain.Slot]domain.SlotStatus, error) {
	if _, err := f.store.Get(sessionID); err != nil {
		return nil, err
	}
	return map[domain.Slot]domain.SlotStatus{}, nil
}

func (f *fakeService) ExportPDF(sessionID string) ([]byte, string, error) {
	if _, err := f.store.Get(sessionID); err != nil {
		return nil, "", err
	}
	return []byte("%PDF-fake"), "Mia_storybook.pdf", nil
}

func (f *fakeService) ExportZIP(sessionID string) ([]byte, string, error) {
	if _, err := f.store.Get(sessionID); err != nil {
		return nil, "", err
	}
	return []byte("PK-fake"), "Mia_storybook.zip", nil
}

func setupTest(t *testing.T) (*fakeService, http.Handler, string) {
	t.Helper()
	svc := newFakeService()
	router := NewRouter(svc, ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})
	sess, err := svc.CreateSession(
		domain.ChildProfile{Name: "Mia", Age: 5},
		domain.StoryGoal{Challenge: "sharing toys"},
		domain.StyleSpec{IllustrationStyle: domain.StyleWatercolor, PageCount: 6},
		"",
	)
	if err != nil {
		t.Fatalf("セッションの準備に失敗しました: %v", err)
	}
	return svc, router, sess.ID
}

func TestCreateSession(t *testing.T) {
	t.Run("作成が201とIDを返すこと", func(t *testing.T) {
		_, router, _ := setupTest(t)

		body := `{"child":{"name":"Mia","age":5},"goal":{"challenge":"sharing"},"style":{"illustration_style":"Whimsical watercolor","page_count":6}}`
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("ステータス: 期待値 201, 実際の値 %d (%s)", rec.Code, rec.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗しました: %v", err)
		}
		if resp["session_id"] == "" {
			t.Error("session_id が空です")
		}
	})

	t.Run("壊れたJSONが400になること", func(t *testing.T) {
		_, router, _ := setupTest(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("ステータス: 期待値 400, 実際の値 %d", rec.Code)
		}
	})
}

func TestDraftStory(t *testing.T) {
	t.Run("台本がJSONで返ること", func(t *testing.T) {
		svc, router, id := setupTest(t)
		svc.story = domain.Story{Title: "Mia Shares", Pages: domain.Pages{{Page: 1, Text: "x"}}}

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/story", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ステータス: 期待値 200, 実際の値 %d", rec.Code)
		}
		var story domain.Story
		if err := json.Unmarshal(rec.Body.Bytes(), &story); err != nil {
			t.Fatalf("レスポンスのパースに失敗しました: %v", err)
		}
		if story.Title != "Mia Shares" {
			t.Errorf("タイトル: 期待値 %q, 実際の値 %q", "Mia Shares", story.Title)
		}
	})

	t.Run("安全確認のエラーが400になること", func(t *testing.T) {
		svc, router, id := setupTest(t)
		svc.storyErr = &safety.ContentSafetyError{Term: "weapon"}

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/story", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("ステータス: 期待値 400, 実際の値 %d", rec.Code)
		}
	})

	t.Run("存在しないセッションが404になること", func(t *testing.T) {
		_, router, _ := setupTest(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/missing/story", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("ステータス: 期待値 404, 実際の値 %d", rec.Code)
		}
	})
}

func TestDeriveAvatar(t *testing.T) {
	t.Run("JSONの説明で導出されること", func(t *testing.T) {
		_, router, id := setupTest(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/avatar", strings.NewReader(`{"description":"a brave girl"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ステータス: 期待値 200, 実際の値 %d (%s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("前提不足の再生成が409になること", func(t *testing.T) {
		_, router, id := setupTest(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/avatar/regenerate", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("ステータス: 期待値 409, 実際の値 %d", rec.Code)
		}
	})
}

func TestGetAsset(t *testing.T) {
	t.Run("存在するアセットがPNGで返ること", func(t *testing.T) {
		svc, router, id := setupTest(t)
		svc.assets[domain.SlotCover] = domain.GeneratedAsset{Slot: domain.SlotCover, Data: []byte("png-bytes")}

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/assets/cover", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ステータス: 期待値 200, 実際の値 %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "image/png" {
			t.Errorf("Content-Type: 期待値 image/png, 実際の値 %s", got)
		}
		if rec.Body.String() != "png-bytes" {
			t.Error("画像データが一致しません")
		}
	})

	t.Run("存在しないアセットが404になること", func(t *testing.T) {
		_, router, id := setupTest(t)

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/assets/cover", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("ステータス: 期待値 404, 実際の値 %d", rec.Code)
		}
	})

	t.Run("不正なスロット名が400になること", func(t *testing.T) {
		_, router, id := setupTest(t)

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/assets/page-zero", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("ステータス: 期待値 400, 実際の値 %d", rec.Code)
		}
	})
}

func TestExport(t *testing.T) {
	t.Run("PDFが添付ファイルとして返ること", func(t *testing.T) {
		_, router, id := setupTest(t)

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export/pdf", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ステータス: 期待値 200, 実際の値 %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "Mia_storybook.pdf") {
			t.Errorf("Content-Disposition が不正です: %s", got)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
			t.Errorf("Content-Type: 期待値 application/pdf, 実際の値 %s", got)
		}
	})

	t.Run("ZIPが添付ファイルとして返ること", func(t *testing.T) {
		_, router, id := setupTest(t)

		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export/zip", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("ステータス: 期待値 200, 実際の値 %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/zip" {
			t.Errorf("Content-Type: 期待値 application/zip, 実際の値 %s", got)
		}
	})
}

func TestHealth(t *testing.T) {
	_, router, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ステータス: 期待値 200, 実際の値 %d", rec.Code)
	}
}
