package workflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/session"
	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// failingGateway は常に合成を失敗させる差し替え用ゲートウェイです。
type failingGateway struct {
	calls int
}

func (g *failingGateway) Generate(context.Context, synthesis.GenerateRequest) ([]byte, error) {
	g.calls++
	return nil, errors.New("synthesis blew up")
}

func (g *failingGateway) Edit(context.Context, synthesis.EditRequest) ([]byte, error) {
	g.calls++
	return nil, errors.New("synthesis blew up")
}

// tileReader はどのパスにも同じタイル画像を返す差し替え用リーダーです。
type tileReader struct{}

func (r *tileReader) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte("tile-bytes"))), nil
}

func testManager(t *testing.T, gw generator.SynthesisGateway) *Manager {
	t.Helper()
	deriver, err := generator.NewAvatarDeriver(gw, &tileReader{}, generator.DeriverConfig{
		TileDir:      "assets/styles",
		CanvasWidth:  20,
		CanvasHeight: 30,
	})
	if err != nil {
		t.Fatalf("アバター導出の初期化に失敗しました: %v", err)
	}
	return &Manager{
		cfg:     DefaultConfig(),
		store:   session.NewStore(time.Minute, time.Minute),
		deriver: deriver,
	}
}

func testSessionInputs() (domain.ChildProfile, domain.StoryGoal, domain.StyleSpec) {
	child := domain.ChildProfile{Name: "Mia", Age: 5}
	goal := domain.StoryGoal{Challenge: "first day of school jitters"}
	style := domain.StyleSpec{IllustrationStyle: domain.StyleWatercolor, PageCount: 6}
	return child, goal, style
}

func TestManager_RegenerateAvatar(t *testing.T) {
	t.Run("再生成の失敗で既存アバターが温存されること", func(t *testing.T) {
		gw := &failingGateway{}
		m := testManager(t, gw)

		child, goal, style := testSessionInputs()
		sess, err := m.CreateSession(child, goal, style, generator.StrategyAlwaysAvatar)
		if err != nil {
			t.Fatalf("セッション作成に失敗しました: %v", err)
		}

		original := domain.Avatar{
			Data:   []byte("original avatar"),
			Source: domain.AvatarFromDescription,
			Style:  domain.StyleWatercolor,
			Width:  20,
			Height: 30,
		}
		sess.SetAvatar(original, session.AvatarInput{Description: "a kind girl with curly hair"})

		_, err = m.RegenerateAvatar(context.Background(), sess.ID)
		var age *generator.AvatarGenerationError
		if !errors.As(err, &age) {
			t.Fatalf("AvatarGenerationError を期待しましたが %T でした", err)
		}
		if gw.calls == 0 {
			t.Error("ゲートウェイが一度も呼ばれていません")
		}

		got, ok := sess.Avatar()
		if !ok {
			t.Fatal("失敗後にアバターが消えています")
		}
		if string(got.Data) != "original avatar" {
			t.Error("失敗後に既存アバターが置き換えられています")
		}
		input, ok := sess.AvatarInput()
		if !ok || input.Description != "a kind girl with curly hair" {
			t.Error("失敗後に導出入力が失われています")
		}
	})

	t.Run("導出入力が無いと前提エラーになること", func(t *testing.T) {
		m := testManager(t, &failingGateway{})

		child, goal, style := testSessionInputs()
		sess, err := m.CreateSession(child, goal, style, generator.StrategyAlwaysAvatar)
		if err != nil {
			t.Fatalf("セッション作成に失敗しました: %v", err)
		}

		_, err = m.RegenerateAvatar(context.Background(), sess.ID)
		var pe *generator.PreconditionError
		if !errors.As(err, &pe) {
			t.Fatalf("PreconditionError を期待しましたが %T でした", err)
		}
	})
}
