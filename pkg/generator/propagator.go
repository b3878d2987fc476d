package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/imaging"
	"github.com/shouni/go-storybook-kit/pkg/prompts"
)

// Progress は伝搬の進捗通知です。done は完了（成否問わず処理済み）件数です。
type Progress func(done, total int)

// Result は伝搬1回分の集計です。
type Result struct {
	CompletedSlots []domain.Slot
	FailedSlots    map[domain.Slot]error
}

// slotSerializer は同一スロットへの生成要求を直列化できるストアです。
// session.Session が満たします。満たさないストアでは直列化を行いません。
type slotSerializer interface {
	DoSlot(slot domain.Slot, fn func() (any, error)) (any, error)
}

// PropagatorConfig は伝搬の設定です。
type PropagatorConfig struct {
	// CanvasWidth / CanvasHeight は各スロットの出力寸法です。
	// 0 の場合は正準キャンバスの寸法を使います。
	CanvasWidth  int
	CanvasHeight int
}

// Propagator は表紙→各ページ→献辞の正準順序で挿絵を展開します。
// 全スロットでアバター（または直前ページ）をソースに使うことで
// キャラクターの見た目を一冊を通して安定させます。
type Propagator struct {
	runner *BatchRunner
	cfg    PropagatorConfig
}

// NewPropagator は Propagator を初期化します。runner は必須です。
func NewPropagator(runner *BatchRunner, cfg PropagatorConfig) (*Propagator, error) {
	if runner == nil {
		return nil, &PreconditionError{Missing: []string{"batch runner"}}
	}
	if cfg.CanvasWidth <= 0 {
		cfg.CanvasWidth = domain.CanonicalWidth
	}
	if cfg.CanvasHeight <= 0 {
		cfg.CanvasHeight = domain.CanonicalHeight
	}
	return &Propagator{runner: runner, cfg: cfg}, nil
}

// IllustrateAll は未完了の全スロットを正準順序で生成します。
// 生成済みのスロットは飛ばすため、途中で失敗しても再実行すれば続きから
// 埋まります。1つのスロットの失敗は他のスロットへ波及しません。
func (p *Propagator) IllustrateAll(
	ctx context.Context,
	store AssetStore,
	story domain.Story,
	avatar domain.Avatar,
	strategy Strategy,
	progress Progress,
) (Result, error) {
	if !strategy.Valid() {
		return Result{}, &domain.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}

	order := domain.SlotOrder(len(story.Pages))
	result := Result{FailedSlots: make(map[domain.Slot]error)}

	for _, slot := range order {
		if _, ok := store.Asset(slot); !ok {
			store.MarkStatus(slot, domain.SlotPending)
		}
	}

	for i, slot := range order {
		if _, ok := store.Asset(slot); ok {
			result.CompletedSlots = append(result.CompletedSlots, slot)
			notify(progress, i+1, len(order))
			continue
		}

		asset, err := p.generateSerialized(ctx, store, story, avatar, strategy, slot)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			store.MarkStatus(slot, domain.SlotFailed)
			result.FailedSlots[slot] = err
			notify(progress, i+1, len(order))
			continue
		}

		store.PutAsset(asset)
		result.CompletedSlots = append(result.CompletedSlots, slot)
		notify(progress, i+1, len(order))
	}
	return result, nil
}

// IllustrateSlot は既存アセットの有無にかかわらず1スロットだけ生成し直します。
func (p *Propagator) IllustrateSlot(
	ctx context.Context,
	store AssetStore,
	story domain.Story,
	avatar domain.Avatar,
	strategy Strategy,
	slot domain.Slot,
) (domain.GeneratedAsset, error) {
	if err := validateSlot(story, slot); err != nil {
		return domain.GeneratedAsset{}, err
	}

	asset, err := p.generateSerialized(ctx, store, story, avatar, strategy, slot)
	if err != nil {
		store.MarkStatus(slot, domain.SlotFailed)
		return domain.GeneratedAsset{}, err
	}
	store.PutAsset(asset)
	return asset, nil
}

// generateSerialized は、ストアが直列化に対応している場合に同一スロットの
// 生成を1件に束ねます。同時要求は最初の1件の合成結果を共有するため、
// 1スロットにつき外部呼び出しは常に高々1つです。
func (p *Propagator) generateSerialized(
	ctx context.Context,
	store AssetStore,
	story domain.Story,
	avatar domain.Avatar,
	strategy Strategy,
	slot domain.Slot,
) (domain.GeneratedAsset, error) {
	ser, ok := store.(slotSerializer)
	if !ok {
		return p.generateSlot(ctx, store, story, avatar, strategy, slot)
	}
	v, err := ser.DoSlot(slot, func() (any, error) {
		return p.generateSlot(ctx, store, story, avatar, strategy, slot)
	})
	if err != nil {
		return domain.GeneratedAsset{}, err
	}
	return v.(domain.GeneratedAsset), nil
}

// generateSlot は1スロット分の生成と正準化を行います。失敗時にストアの
// 既存アセットへ触れることはありません。
func (p *Propagator) generateSlot(
	ctx context.Context,
	store AssetStore,
	story domain.Story,
	avatar domain.Avatar,
	strategy Strategy,
	slot domain.Slot,
) (domain.GeneratedAsset, error) {
	prompt, source, err := p.resolveItem(store, story, avatar, strategy, slot)
	if err != nil {
		return domain.GeneratedAsset{}, err
	}

	results, err := p.runner.Run(ctx, []BatchItem{{
		Slot:   slot,
		Prompt: prompt,
		Source: source,
		Size:   imaging.SizeForAspect(p.cfg.CanvasWidth, p.cfg.CanvasHeight),
	}})
	if err != nil {
		return domain.GeneratedAsset{}, err
	}
	if results[0].Err != nil {
		return domain.GeneratedAsset{}, results[0].Err
	}

	normalized, err := imaging.NormalizeCropToFill(results[0].Data, p.cfg.CanvasWidth, p.cfg.CanvasHeight)
	if err != nil {
		return domain.GeneratedAsset{}, &SlotGenerationError{Slot: slot, Err: err}
	}

	return domain.GeneratedAsset{
		Slot:   slot,
		Data:   normalized,
		Width:  p.cfg.CanvasWidth,
		Height: p.cfg.CanvasHeight,
		Style:  avatar.Style,
	}, nil
}

// resolveItem はスロットに応じた指示文とソース画像を決定します。
// 直前ページ連鎖の戦略でも、直前の画像が無い場合はアバターへ退避します。
func (p *Propagator) resolveItem(
	store AssetStore,
	story domain.Story,
	avatar domain.Avatar,
	strategy Strategy,
	slot domain.Slot,
) (prompt string, source []byte, err error) {
	style := avatar.Style

	switch slot {
	case domain.SlotCover:
		return prompts.Cover(story.Title, style), avatar.Data, nil
	case domain.SlotDedication:
		return prompts.Dedication(story.Dedication, style), avatar.Data, nil
	}

	number, ok := slot.PageNumber()
	if !ok {
		return "", nil, &domain.ValidationError{Field: "slot", Reason: fmt.Sprintf("unknown slot %q", slot)}
	}
	page := story.Pages.FindPage(number)
	if page == nil {
		return "", nil, &domain.ValidationError{Field: "slot", Reason: fmt.Sprintf("story has no page %d", number)}
	}

	scene := page.IllustrationPrompt
	if scene == "" {
		scene = page.Text
	}

	if strategy == StrategyChainFromPrevious {
		if prev, ok := p.previousAsset(store, number); ok {
			return prompts.PageFromPrevious(scene), prev, nil
		}
	}
	return prompts.PageFromAvatar(scene, style), avatar.Data, nil
}

// previousAsset は連鎖元（ページ1なら表紙、以降は直前ページ）の画像を探します。
func (p *Propagator) previousAsset(store AssetStore, pageNumber int) ([]byte, bool) {
	prevSlot := domain.SlotCover
	if pageNumber > 1 {
		prevSlot = domain.PageSlot(pageNumber - 1)
	}
	asset, ok := store.Asset(prevSlot)
	if !ok {
		return nil, false
	}
	return asset.Data, true
}

func validateSlot(story domain.Story, slot domain.Slot) error {
	if slot == domain.SlotCover || slot == domain.SlotDedication {
		return nil
	}
	if n, ok := slot.PageNumber(); ok {
		if story.Pages.FindPage(n) == nil {
			return &domain.ValidationError{Field: "slot", Reason: fmt.Sprintf("story has no page %d", n)}
		}
		return nil
	}
	return &domain.ValidationError{Field: "slot", Reason: fmt.Sprintf("unknown slot %q", slot)}
}

func notify(progress Progress, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}
