// Package pipeline は CLI からの一括実行（台本→アバター→挿絵→出力）を担うのだ。
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/publisher"
	"github.com/shouni/go-storybook-kit/pkg/workflow"
)

// BookRequest は入力JSON（--child-file）の形なのだ。
type BookRequest struct {
	Child domain.ChildProfile `json:"child"`
	Goal  domain.StoryGoal    `json:"goal"`
	Style domain.StyleSpec    `json:"style"`
}

// Execute は1冊分の絵本を最初から最後まで生成するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	manager, reader, writer, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	// 1. 入力JSONの読み込み
	req, err := loadBookRequest(ctx, reader, cfg.Options.ChildFile)
	if err != nil {
		return err
	}

	sess, err := manager.CreateSession(req.Child, req.Goal, req.Style, generator.Strategy(cfg.Options.Strategy))
	if err != nil {
		return err
	}

	// 2. 台本の生成
	story, err := manager.DraftStory(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("台本の生成に失敗したのだ: %w", err)
	}
	slog.Info("台本ができたのだ！", "title", story.Title, "pages", len(story.Pages))

	// 3. アバターの導出（写真優先、なければ説明文）
	if err := deriveAvatar(ctx, manager, reader, cfg, sess.ID); err != nil {
		return err
	}

	// 4. 挿絵の伝搬（表紙→各ページ→献辞）
	result, err := manager.IllustrateAll(ctx, sess.ID, func(done, total int) {
		slog.Info("挿絵を生成中なのだ...", "done", done, "total", total)
	})
	if err != nil {
		return fmt.Errorf("挿絵の生成に失敗したのだ: %w", err)
	}
	for slot, slotErr := range result.FailedSlots {
		slog.Warn("スロットの生成に失敗したのだ", "slot", slot, "error", slotErr)
	}

	// 5. 出力（PNG一式 + 必要ならPDF/ZIP）
	pub, err := manager.Publish(ctx, sess.ID, cfg.Options.OutputDir)
	if err != nil {
		return fmt.Errorf("書き出しに失敗したのだ: %w", err)
	}
	slog.Info("PNG一式を保存したのだ", "images", len(pub.ImagePaths), "manifest", pub.ManifestPath)

	if cfg.Options.ExportPDF {
		if err := exportFile(ctx, writer, cfg.Options.OutputDir, manager.ExportPDF, sess.ID, "application/pdf"); err != nil {
			return err
		}
	}
	if cfg.Options.ExportZIP {
		if err := exportFile(ctx, writer, cfg.Options.OutputDir, manager.ExportZIP, sess.ID, "application/zip"); err != nil {
			return err
		}
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

// setup は、共有コンポーネント（HTTPクライアント・GCS対応の入出力）と
// ワークフローマネージャを初期化するのだ。
func setup(ctx context.Context, cfg *config.Config) (*workflow.Manager, remoteio.InputReader, remoteio.OutputWriter, error) {
	httpClient := httpkit.New(cfg.Options.HTTPTimeout)

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, nil, nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, nil, nil, err
	}

	wfCfg := workflow.NewConfig(cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	wfCfg.GeminiModel = cfg.GeminiModel
	wfCfg.OpenAIBaseURL = cfg.OpenAIBaseURL
	wfCfg.EditModel = cfg.EditModel
	wfCfg.GenerateModel = cfg.GenerateModel
	wfCfg.TileDir = cfg.TileDir
	wfCfg.PaceInterval = config.DefaultPaceInterval
	wfCfg.SessionTTL = config.DefaultSessionTTL

	manager, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:     wfCfg,
		HTTPClient: httpClient,
		Reader:     reader,
		Writer:     writer,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}
	return manager, reader, writer, nil
}

func loadBookRequest(ctx context.Context, reader remoteio.InputReader, path string) (BookRequest, error) {
	var req BookRequest
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return req, fmt.Errorf("入力JSON '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(&req); err != nil {
		return req, fmt.Errorf("入力JSON '%s' のデコードに失敗したのだ: %w", path, err)
	}
	return req, nil
}

// deriveAvatar は --photo があれば写真から、なければ --avatar-desc からアバターを作るのだ。
func deriveAvatar(ctx context.Context, manager *workflow.Manager, reader remoteio.InputReader, cfg *config.Config, sessionID string) error {
	if cfg.Options.PhotoFile != "" {
		rc, err := reader.Open(ctx, cfg.Options.PhotoFile)
		if err != nil {
			return fmt.Errorf("参照写真の読み込みに失敗したのだ: %w", err)
		}
		defer rc.Close()
		photo, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if _, err := manager.DeriveAvatarFromPhoto(ctx, sessionID, photo); err != nil {
			return fmt.Errorf("アバターの導出に失敗したのだ: %w", err)
		}
		return nil
	}

	if cfg.Options.AvatarDesc == "" {
		return fmt.Errorf("アバターのソース（--photo または --avatar-desc）を指定してほしいのだ")
	}
	if _, err := manager.DeriveAvatarFromDescription(ctx, sessionID, cfg.Options.AvatarDesc); err != nil {
		return fmt.Errorf("アバターの導出に失敗したのだ: %w", err)
	}
	return nil
}

// exportFile はPDF/ZIPを組み立てて出力先へ書き込むのだ。
func exportFile(
	ctx context.Context,
	writer remoteio.OutputWriter,
	outputDir string,
	build func(sessionID string) ([]byte, string, error),
	sessionID, mimeType string,
) error {
	data, filename, err := build(sessionID)
	if err != nil {
		return fmt.Errorf("エクスポートの組み立てに失敗したのだ: %w", err)
	}
	fullPath, err := publisher.ResolveOutputPath(outputDir, filename)
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, fullPath, bytes.NewReader(data), mimeType); err != nil {
		return fmt.Errorf("エクスポートの保存に失敗したのだ: %w", err)
	}
	slog.Info("エクスポートを保存したのだ", "path", fullPath)
	return nil
}
