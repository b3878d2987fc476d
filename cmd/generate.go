package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、1冊分の絵本（台本・アバター・挿絵・出力）を一括生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "AIに絵本を1冊まるごと生成させますなのだ。",
	Long: `子どものプロフィールと課題のJSONを読み込み、台本、主人公のアバター、
表紙から献辞までの挿絵を順番に生成して保存するのだ。
--pdf や --zip を付けると完成品のエクスポートも一緒に書き出すのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.ChildFile == "" {
		return fmt.Errorf("入力JSON（--child-file）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("絵本生成パイプラインを起動するのだ！",
		"input", opts.ChildFile,
		"text_model", cfg.GeminiModel,
		"edit_model", cfg.EditModel,
		"output", opts.OutputDir)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
