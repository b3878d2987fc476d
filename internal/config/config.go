package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultGeminiModel   = "gemini-3-flash-preview"
	DefaultEditModel     = "gpt-image-1"
	DefaultGenerateModel = "dall-e-2"
	DefaultHTTPTimeout   = 120 * time.Second
	DefaultPaceInterval  = 500 * time.Millisecond
	DefaultTileDir       = "assets/styles" // スタイル参照タイル画像の置き場なのだ
	DefaultOutputDir     = "output/storybook"
	DefaultSessionTTL    = 30 * time.Minute
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	ProjectID     string
	LocationID    string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	EditModel     string
	GenerateModel string
	TileDir       string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		ProjectID:     envutil.GetEnv("PROJECT_ID", ""),
		LocationID:    envutil.GetEnv("REGION", ""),
		GeminiAPIKey:  envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:   envutil.GetEnv("GEMINI_MODEL", DefaultGeminiModel),
		OpenAIAPIKey:  envutil.GetEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envutil.GetEnv("OPENAI_BASE_URL", ""),
		EditModel:     envutil.GetEnv("IMAGE_EDIT_MODEL", DefaultEditModel),
		GenerateModel: envutil.GetEnv("IMAGE_GENERATE_MODEL", DefaultGenerateModel),
		TileDir:       envutil.GetEnv("STYLE_TILE_DIR", DefaultTileDir),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力関連
	ChildFile  string // --child-file: 子ども・課題・スタイル指定のJSONパス
	PhotoFile  string // --photo: 参照写真のパス
	AvatarDesc string // --avatar-desc: 写真の代わりに使う主人公の説明

	// 出力関連
	OutputDir string // --output-dir
	InputDir  string // --input-dir: export の読み戻し元
	ExportPDF bool   // --pdf
	ExportZIP bool   // --zip

	// AI挙動設定
	AIModel  string // --model: 台本生成用のGeminiモデル
	Strategy string // --strategy: ページ挿絵のソース選択戦略

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
