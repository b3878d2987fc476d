package generator

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// DefaultPaceInterval は連続呼び出しの最短間隔です。
const DefaultPaceInterval = 500 * time.Millisecond

// NewDefaultPacer は既定の間隔で刻むペーサーを返します。
func NewDefaultPacer() Pacer {
	return rate.NewLimiter(rate.Every(DefaultPaceInterval), 1)
}

// BatchRunner はバッチをアイテム順に逐次実行します。
// 並列化はプロバイダのレート制限と出力の安定性を損なうため行いません。
type BatchRunner struct {
	gateway SynthesisGateway
	pacer   Pacer
}

// NewBatchRunner は BatchRunner を初期化します。pacer が nil の場合は
// 既定のペーサーを使います。
func NewBatchRunner(gateway SynthesisGateway, pacer Pacer) (*BatchRunner, error) {
	if gateway == nil {
		return nil, &PreconditionError{Missing: []string{"synthesis gateway"}}
	}
	if pacer == nil {
		pacer = NewDefaultPacer()
	}
	return &BatchRunner{gateway: gateway, pacer: pacer}, nil
}

// Run はアイテムを入力順に1つずつ実行し、同じ順序で結果を返します。
// 上限超過の場合は1件も実行せずにエラーを返します。個々のアイテムの失敗は
// 残りのアイテムの実行を止めません。コンテキストの取り消しだけが中断理由です。
func (r *BatchRunner) Run(ctx context.Context, items []BatchItem) ([]BatchResult, error) {
	if len(items) > MaxBatchSize {
		return nil, &BatchTooLargeError{Requested: len(items)}
	}

	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		if err := r.pacer.Wait(ctx); err != nil {
			return results, err
		}

		data, err := r.runItem(ctx, item)
		if err != nil {
			results = append(results, BatchResult{Slot: item.Slot, Err: &SlotGenerationError{Slot: item.Slot, Err: err}})
			continue
		}
		results = append(results, BatchResult{Slot: item.Slot, Data: data})
	}
	return results, nil
}

// runItem はソース画像の有無で edit / generate を使い分けます。
func (r *BatchRunner) runItem(ctx context.Context, item BatchItem) ([]byte, error) {
	if len(item.Source) > 0 {
		return r.gateway.Edit(ctx, synthesis.EditRequest{
			Prompt:    item.Prompt,
			Source:    item.Source,
			StyleHint: item.StyleHint,
			Size:      item.Size,
		})
	}
	return r.gateway.Generate(ctx, synthesis.GenerateRequest{
		Prompt: item.Prompt,
		Size:   item.Size,
	})
}
