// Package httpapi は絵本制作ワークフローをHTTPで公開します。
package httpapi

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig はHTTPサーバーの起動設定です。環境変数から読み込みます。
// 画像合成は1冊分で数分かかるため、書き込みタイムアウトは長めが既定です。
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// LoadServerConfig は環境変数から ServerConfig を組み立てます。
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("サーバー設定の読み込みに失敗しました: %w", err)
	}
	return cfg, nil
}
