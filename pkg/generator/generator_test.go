package generator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// makePNG は指定寸法の無地PNGを生成するテスト用ヘルパーです。
func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("PNGの生成に失敗しました: %v", err)
	}
	return buf.Bytes()
}

// fakeGateway は呼び出しを記録する差し替え用ゲートウェイです。
type fakeGateway struct {
	output   []byte
	edits    []synthesis.EditRequest
	gens     []synthesis.GenerateRequest
	failWhen func(prompt string) bool
}

func (f *fakeGateway) calls() int { return len(f.edits) + len(f.gens) }

func (f *fakeGateway) Edit(_ context.Context, req synthesis.EditRequest) ([]byte, error) {
	f.edits = append(f.edits, req)
	if f.failWhen != nil && f.failWhen(req.Prompt) {
		return nil, errors.New("synthesis blew up")
	}
	return f.output, nil
}

func (f *fakeGateway) Generate(_ context.Context, req synthesis.GenerateRequest) ([]byte, error) {
	f.gens = append(f.gens, req)
	if f.failWhen != nil && f.failWhen(req.Prompt) {
		return nil, errors.New("synthesis blew up")
	}
	return f.output, nil
}

// instantPacer は待ち時間なしで回数だけ数えるペーサーです。
type instantPacer struct {
	waits int
}

func (p *instantPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

// fakeStore は AssetStore のインメモリ実装です。
type fakeStore struct {
	assets   map[domain.Slot]domain.GeneratedAsset
	statuses map[domain.Slot]domain.SlotStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets:   make(map[domain.Slot]domain.GeneratedAsset),
		statuses: make(map[domain.Slot]domain.SlotStatus),
	}
}

func (s *fakeStore) Asset(slot domain.Slot) (domain.GeneratedAsset, bool) {
	a, ok := s.assets[slot]
	return a, ok
}

func (s *fakeStore) PutAsset(asset domain.GeneratedAsset) {
	s.assets[asset.Slot] = asset
	s.statuses[asset.Slot] = domain.SlotDone
}

func (s *fakeStore) MarkStatus(slot domain.Slot, status domain.SlotStatus) {
	s.statuses[slot] = status
}
