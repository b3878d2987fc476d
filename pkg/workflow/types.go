// Package workflow は絵本制作の各工程（台本・アバター・挿絵・出力）を
// 束ねるマネージャを提供します。
package workflow

import (
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storybook-kit/pkg/generator"
)

// デフォルト値の定義
const (
	DefaultGeminiModel    = "gemini-3-flash-preview"
	DefaultRequestTimeout = 5 * time.Minute

	defaultGeminiTemperature = float32(0.7)
)

// Config は各工程を動作させるための基本設定です。
type Config struct {
	// --- 台本生成（テキストモデル） ---
	GeminiAPIKey string
	GeminiModel  string

	// --- 画像合成プロバイダ ---
	OpenAIAPIKey  string
	OpenAIBaseURL string
	EditModel     string
	GenerateModel string

	// --- 生成の挙動 ---
	TileDir      string
	Strategy     generator.Strategy
	PaceInterval time.Duration
	CanvasWidth  int
	CanvasHeight int

	// --- セッションとタイムアウト ---
	SessionTTL     time.Duration
	RequestTimeout time.Duration
}

// NewConfig はデフォルト値で初期化された Config に必須のAPIキーをセットして返します。
func NewConfig(geminiAPIKey, openaiAPIKey string) Config {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = geminiAPIKey
	cfg.OpenAIAPIKey = openaiAPIKey
	return cfg
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		GeminiModel:    DefaultGeminiModel,
		Strategy:       generator.StrategyAlwaysAvatar,
		PaceInterval:   generator.DefaultPaceInterval,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// ManagerArgs は Manager の組み立てに必要な依存の一式です。
type ManagerArgs struct {
	Config     Config
	HTTPClient httpkit.ClientInterface
	Reader     remoteio.InputReader
	Writer     remoteio.OutputWriter
}
