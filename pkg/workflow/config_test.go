package workflow

import (
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/generator"
)

func TestNewConfig(t *testing.T) {
	t.Run("APIキーと推奨デフォルトがセットされること", func(t *testing.T) {
		cfg := NewConfig("gemini-key", "openai-key")
		if cfg.GeminiAPIKey != "gemini-key" || cfg.OpenAIAPIKey != "openai-key" {
			t.Error("APIキーがセットされていません")
		}
		if cfg.GeminiModel != DefaultGeminiModel {
			t.Errorf("モデル: 期待値 %s, 実際の値 %s", DefaultGeminiModel, cfg.GeminiModel)
		}
		if cfg.Strategy != generator.StrategyAlwaysAvatar {
			t.Errorf("戦略: 期待値 %s, 実際の値 %s", generator.StrategyAlwaysAvatar, cfg.Strategy)
		}
		if cfg.PaceInterval != generator.DefaultPaceInterval {
			t.Errorf("間隔: 期待値 %s, 実際の値 %s", generator.DefaultPaceInterval, cfg.PaceInterval)
		}
	})
}
