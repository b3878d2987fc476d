package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-storybook-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は CLI フラグの受け皿なのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ChildFile, "child-file", "f", "", "子ども・課題・スタイル指定のJSONパス（'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.PhotoFile, "photo", "p", "", "主人公の参照写真のパス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AvatarDesc, "avatar-desc", "", "写真の代わりに使う主人公の説明文なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "保存ディレクトリ（ローカル or gs://...）なのだ。")
	generateCmd.Flags().BoolVar(&opts.ExportPDF, "pdf", false, "レター判PDFも一緒に書き出すのだ。")
	generateCmd.Flags().BoolVar(&opts.ExportZIP, "zip", false, "PNG一式のZIPも一緒に書き出すのだ。")
	exportCmd.Flags().StringVar(&opts.InputDir, "input-dir", "", "generate が書き出した story.json のあるディレクトリなのだ。")
	exportCmd.Flags().BoolVar(&opts.ExportPDF, "pdf", false, "レター判PDFへ組み立てるのだ。")
	exportCmd.Flags().BoolVar(&opts.ExportZIP, "zip", false, "ZIPアーカイブへ固めるのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultGeminiModel, "台本生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Strategy, "strategy", "", "ページ挿絵のソース選択戦略（always-avatar / chain-from-previous）なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "画像合成リクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// export は保存済みアセットの組み立て直しだけなので、APIキーは不要なのだ。
	if cmd.Name() == "export" {
		return nil
	}

	// 台本はGemini、挿絵はOpenAI互換APIを使うため、両方のキーが必須なのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。台本生成に必須なのだ")
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 OPENAI_API_KEY が設定されていません。挿絵の合成に必須なのだ")
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"storybook-go",
		addAppFlags,
		preRunAppE,
		generateCmd,
		serveCmd,
		exportCmd,
	)
}
