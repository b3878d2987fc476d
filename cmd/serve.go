package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/internal/httpapi"
	"github.com/shouni/go-storybook-kit/pkg/workflow"
)

// serveCmd は、絵本制作ワークフローをHTTP APIとして公開するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "絵本制作のHTTP APIサーバーを起動しますなのだ。",
	Long: `セッション作成から台本・アバター・挿絵の生成、PDF/ZIPエクスポートまでを
REST APIとして公開するのだ。フロントエンドはこのAPIだけで1冊を完成できるのだよ。`,
	RunE: serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	serverCfg, err := httpapi.LoadServerConfig()
	if err != nil {
		return err
	}

	manager, err := buildManager(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + serverCfg.Port,
		Handler:      httpapi.NewRouter(manager, serverCfg),
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
	}

	// SIGINT / SIGTERM で安全に停止するのだ
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTPサーバーを起動するのだ！", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("サーバーの起動に失敗したのだ: %w", err)
	case <-stop:
		slog.Info("停止シグナルを受け取ったのだ。後片付けをするのだよ。")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗したのだ: %w", err)
	}
	return nil
}

// buildManager は、HTTPサーバー用のワークフローマネージャを初期化するのだ。
func buildManager(ctx context.Context, cfg *config.Config) (*workflow.Manager, error) {
	httpClient := httpkit.New(cfg.Options.HTTPTimeout)

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	wfCfg := workflow.NewConfig(cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	wfCfg.GeminiModel = cfg.GeminiModel
	wfCfg.OpenAIBaseURL = cfg.OpenAIBaseURL
	wfCfg.EditModel = cfg.EditModel
	wfCfg.GenerateModel = cfg.GenerateModel
	wfCfg.TileDir = cfg.TileDir
	wfCfg.PaceInterval = config.DefaultPaceInterval
	wfCfg.SessionTTL = config.DefaultSessionTTL

	return workflow.New(ctx, workflow.ManagerArgs{
		Config:     wfCfg,
		HTTPClient: httpClient,
		Reader:     reader,
		Writer:     writer,
	})
}
