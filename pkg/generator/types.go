// Package generator は絵本の挿絵生成を統括します。
//
// アバターの導出、バッチ実行、キャラクターの一貫性を保ったままの
// 全スロット展開（表紙→各ページ→献辞）をこのパッケージが担います。
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// MaxBatchSize は1回のバッチで処理できるアイテム数の上限です。
const MaxBatchSize = 12

// Strategy はページ挿絵のソース画像の選び方です。
type Strategy string

const (
	// StrategyAlwaysAvatar は全ページでアバターをソースにします（既定）。
	StrategyAlwaysAvatar Strategy = "always-avatar"
	// StrategyChainFromPrevious は直前ページの完成画像をソースにします。
	StrategyChainFromPrevious Strategy = "chain-from-previous"
)

// Valid は戦略が定義済みかを返します。空文字は既定値として扱います。
func (s Strategy) Valid() bool {
	return s == "" || s == StrategyAlwaysAvatar || s == StrategyChainFromPrevious
}

// Pacer は連続する外部呼び出しの間隔を制御します。
// rate.Limiter の Wait と互換です。
type Pacer interface {
	Wait(ctx context.Context) error
}

// SynthesisGateway は画像合成ゲートウェイの最小インターフェースです。
type SynthesisGateway interface {
	Generate(ctx context.Context, req synthesis.GenerateRequest) ([]byte, error)
	Edit(ctx context.Context, req synthesis.EditRequest) ([]byte, error)
}

// AssetStore は生成済みアセットの置き場です。session.Session が満たします。
type AssetStore interface {
	Asset(slot domain.Slot) (domain.GeneratedAsset, bool)
	PutAsset(asset domain.GeneratedAsset)
	MarkStatus(slot domain.Slot, status domain.SlotStatus)
}

// BatchItem はバッチ1件分の合成指示です。
type BatchItem struct {
	Slot      domain.Slot
	Prompt    string
	Source    []byte // nil の場合は generate、それ以外は edit
	StyleHint []byte
	Size      domain.Size
}

// BatchResult はバッチ1件分の結果です。Err が nil でなければ Data は空です。
type BatchResult struct {
	Slot domain.Slot
	Data []byte
	Err  error
}

// BatchTooLargeError はバッチ上限超過を表します。超過時は1件も実行されません。
type BatchTooLargeError struct {
	Requested int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d items exceeds the limit of %d", e.Requested, MaxBatchSize)
}

// SlotGenerationError は特定スロットの生成失敗を表します。
// 1つのスロットの失敗は他のスロットへ波及しません。
type SlotGenerationError struct {
	Slot domain.Slot
	Err  error
}

func (e *SlotGenerationError) Error() string {
	return fmt.Sprintf("generation failed for slot %s: %v", e.Slot, e.Err)
}

func (e *SlotGenerationError) Unwrap() error { return e.Err }

// AvatarGenerationError はアバター導出の失敗を表します。
// 失敗時に既存のアバターが置き換えられることはありません。
type AvatarGenerationError struct {
	Err error
}

func (e *AvatarGenerationError) Error() string {
	return fmt.Sprintf("avatar generation failed: %v", e.Err)
}

func (e *AvatarGenerationError) Unwrap() error { return e.Err }

// PreconditionError は前提（台本やアバターの存在）が満たされていないことを
// 表します。外部サービスへの呼び出し前に必ず検出されます。
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("preconditions not met: %s missing", strings.Join(e.Missing, ", "))
}
