package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/drafter"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/publisher"
	"github.com/shouni/go-storybook-kit/pkg/session"
	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// Manager は、絵本制作の各工程を担うコンポーネント群を構築・管理します。
type Manager struct {
	cfg        Config
	store      *session.Store
	drafter    *drafter.Drafter
	deriver    *generator.AvatarDeriver
	propagator *generator.Propagator
	writer     remoteio.OutputWriter
}

// New は、設定と依存一式を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.HTTPClient == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	if args.Reader == nil {
		return nil, fmt.Errorf("InputReader は必須です")
	}
	if args.Writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}

	storyDrafter, err := initializeDrafter(ctx, args.Config)
	if err != nil {
		return nil, err
	}

	gateway, err := synthesis.New(args.HTTPClient, synthesis.Config{
		BaseURL:       args.Config.OpenAIBaseURL,
		APIKey:        args.Config.OpenAIAPIKey,
		EditModel:     args.Config.EditModel,
		GenerateModel: args.Config.GenerateModel,
	})
	if err != nil {
		return nil, fmt.Errorf("合成ゲートウェイの初期化に失敗しました: %w", err)
	}

	deriver, err := generator.NewAvatarDeriver(gateway, args.Reader, generator.DeriverConfig{
		TileDir:      args.Config.TileDir,
		CanvasWidth:  args.Config.CanvasWidth,
		CanvasHeight: args.Config.CanvasHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("アバター導出の初期化に失敗しました: %w", err)
	}

	propagator, err := initializePropagator(gateway, args.Config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:        args.Config,
		store:      session.NewStore(args.Config.SessionTTL, 0),
		drafter:    storyDrafter,
		deriver:    deriver,
		propagator: propagator,
		writer:     args.Writer,
	}, nil
}

// initializeDrafter はテキストモデルのクライアントと台本生成器を初期化します。
func initializeDrafter(ctx context.Context, cfg Config) (*drafter.Drafter, error) {
	clientConfig := gemini.Config{
		APIKey:      cfg.GeminiAPIKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	model := cfg.GeminiModel
	if model == "" {
		model = DefaultGeminiModel
	}
	return drafter.New(aiClient, model)
}

// initializePropagator はペーサー付きのバッチランナーと伝搬を初期化します。
func initializePropagator(gateway generator.SynthesisGateway, cfg Config) (*generator.Propagator, error) {
	var pacer generator.Pacer
	if cfg.PaceInterval > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.PaceInterval), 1)
	}

	runner, err := generator.NewBatchRunner(gateway, pacer)
	if err != nil {
		return nil, fmt.Errorf("バッチランナーの初期化に失敗しました: %w", err)
	}
	return generator.NewPropagator(runner, generator.PropagatorConfig{
		CanvasWidth:  cfg.CanvasWidth,
		CanvasHeight: cfg.CanvasHeight,
	})
}

// CreateSession は1冊分の制作セッションを発行します。
func (m *Manager) CreateSession(child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec, strategy generator.Strategy) (*session.Session, error) {
	if !strategy.Valid() {
		return nil, &domain.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}
	if strategy == "" {
		strategy = m.cfg.Strategy
	}
	sess := m.store.Create(child, goal, style, strategy)
	slog.Info("セッションを作成しました", "session", sess.ID, "child", child.Name)
	return sess, nil
}

// Session はIDからセッションを引きます。
func (m *Manager) Session(id string) (*session.Session, error) {
	return m.store.Get(id)
}

// DraftStory は台本を生成してセッションへ確定します。
// 台本の差し替えは既存の挿絵アセットをすべて無効にします。
func (m *Manager) DraftStory(ctx context.Context, sessionID string) (domain.Story, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.Story{}, err
	}

	child, goal, style := sess.Inputs()
	story, err := m.drafter.Draft(ctx, child, goal, style)
	if err != nil {
		return domain.Story{}, err
	}

	sess.SetStory(story)
	slog.Info("台本を確定しました", "session", sess.ID, "title", story.Title, "pages", len(story.Pages))
	return story, nil
}

// DeriveAvatarFromPhoto は参照写真からアバターを導出してセッションへ保存します。
// 導出に失敗した場合、既存のアバターは変更されません。
func (m *Manager) DeriveAvatarFromPhoto(ctx context.Context, sessionID string, photo []byte) (domain.Avatar, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.Avatar{}, err
	}

	_, _, style := sess.Inputs()
	avatar, err := m.deriver.FromPhoto(ctx, photo, style.IllustrationStyle)
	if err != nil {
		return domain.Avatar{}, err
	}

	sess.SetAvatar(avatar, session.AvatarInput{Photo: photo})
	return avatar, nil
}

// DeriveAvatarFromDescription は自由文の説明からアバターを導出して保存します。
func (m *Manager) DeriveAvatarFromDescription(ctx context.Context, sessionID, description string) (domain.Avatar, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.Avatar{}, err
	}

	_, _, style := sess.Inputs()
	avatar, err := m.deriver.FromDescription(ctx, description, style.IllustrationStyle)
	if err != nil {
		return domain.Avatar{}, err
	}

	sess.SetAvatar(avatar, session.AvatarInput{Description: description})
	return avatar, nil
}

// RegenerateAvatar は前回と同じ入力でアバターを作り直します。
func (m *Manager) RegenerateAvatar(ctx context.Context, sessionID string) (domain.Avatar, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.Avatar{}, err
	}

	input, ok := sess.AvatarInput()
	if !ok {
		return domain.Avatar{}, &generator.PreconditionError{Missing: []string{"avatar input"}}
	}
	if len(input.Photo) > 0 {
		return m.DeriveAvatarFromPhoto(ctx, sessionID, input.Photo)
	}
	return m.DeriveAvatarFromDescription(ctx, sessionID, input.Description)
}

// DeriveAvatarFromCover は完成済みの表紙からアバターを切り出して保存します。
func (m *Manager) DeriveAvatarFromCover(sessionID string) (domain.Avatar, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.Avatar{}, err
	}

	cover, ok := sess.Asset(domain.SlotCover)
	if !ok {
		return domain.Avatar{}, &generator.PreconditionError{Missing: []string{"cover asset"}}
	}

	_, _, style := sess.Inputs()
	avatar, err := m.deriver.FromCover(cover.Data, style.IllustrationStyle)
	if err != nil {
		return domain.Avatar{}, err
	}

	sess.SetAvatar(avatar, session.AvatarInput{})
	return avatar, nil
}

// IllustrateAll は未完了の全スロットを正準順序で生成します。
func (m *Manager) IllustrateAll(ctx context.Context, sessionID string, progress generator.Progress) (generator.Result, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return generator.Result{}, err
	}

	story, avatar, err := sess.RequireStoryAndAvatar()
	if err != nil {
		return generator.Result{}, err
	}

	result, err := m.propagator.IllustrateAll(ctx, sess, story, avatar, sess.Strategy(), progress)
	if err != nil {
		return result, err
	}
	slog.Info("挿絵の伝搬が完了しました",
		"session", sess.ID,
		"completed", len(result.CompletedSlots),
		"failed", len(result.FailedSlots))
	return result, nil
}

// IllustrateSlot は1スロットだけ生成し直します。同一スロットへの同時要求は
// 伝搬側でセッションの singleflight により直列化され、最初の1件の結果を
// 共有します。IllustrateAll との競合でも合成はスロットごとに高々1つです。
func (m *Manager) IllustrateSlot(ctx context.Context, sessionID string, slot domain.Slot) (domain.GeneratedAsset, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.GeneratedAsset{}, err
	}

	story, avatar, err := sess.RequireStoryAndAvatar()
	if err != nil {
		return domain.GeneratedAsset{}, err
	}

	return m.propagator.IllustrateSlot(ctx, sess, story, avatar, sess.Strategy(), slot)
}

// Assets は現在のアセット一覧の読み取り専用スナップショットを返します。
func (m *Manager) Assets(sessionID string) (map[domain.Slot]domain.GeneratedAsset, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Assets(), nil
}

// Statuses は全スロットの進行状態を返します。
func (m *Manager) Statuses(sessionID string) (map[domain.Slot]domain.SlotStatus, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Statuses(), nil
}

// ExportPDF は現在のアセットをレター判PDFへ組み立てます。
// 戻り値の2つ目はダウンロード用のファイル名です。
func (m *Manager) ExportPDF(sessionID string) ([]byte, string, error) {
	story, assets, err := m.exportInputs(sessionID)
	if err != nil {
		return nil, "", err
	}
	data, err := publisher.BuildPDF(story, assets)
	if err != nil {
		return nil, "", err
	}
	return data, publisher.FileNameForTitle(story.Title, "_storybook.pdf"), nil
}

// ExportZIP は現在のアセットをマニフェスト付きZIPへ固めます。
func (m *Manager) ExportZIP(sessionID string) ([]byte, string, error) {
	story, assets, err := m.exportInputs(sessionID)
	if err != nil {
		return nil, "", err
	}
	data, err := publisher.BuildZIP(story, assets)
	if err != nil {
		return nil, "", err
	}
	return data, publisher.FileNameForTitle(story.Title, "_storybook.zip"), nil
}

// Publish は全アセットを出力先（ローカルまたはGCS）へ書き出します。
func (m *Manager) Publish(ctx context.Context, sessionID, outputDir string) (publisher.PublishResult, error) {
	story, assets, err := m.exportInputs(sessionID)
	if err != nil {
		return publisher.PublishResult{}, err
	}

	pub, err := publisher.NewBookPublisher(m.writer)
	if err != nil {
		return publisher.PublishResult{}, err
	}
	return pub.Publish(ctx, story, assets, publisher.Options{OutputDir: outputDir})
}

// exportInputs はエクスポートの前提（台本の存在）を確認して材料を揃えます。
func (m *Manager) exportInputs(sessionID string) (domain.Story, map[domain.Slot]domain.GeneratedAsset, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return domain.Story{}, nil, err
	}
	story, ok := sess.Story()
	if !ok {
		return domain.Story{}, nil, &generator.PreconditionError{Missing: []string{"story"}}
	}
	return story, sess.Assets(), nil
}
