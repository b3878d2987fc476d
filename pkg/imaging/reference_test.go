package imaging

import (
	"image/color"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

func TestPrepareReference(t *testing.T) {
	t.Run("大きな写真が最大辺1024に収まること", func(t *testing.T) {
		data := makePNG(t, 2048, 1024, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		out, err := PrepareReference(data)
		if err != nil {
			t.Fatalf("参照写真の整形に失敗しました: %v", err)
		}
		w, h, err := Dimensions(out)
		if err != nil {
			t.Fatalf("出力の寸法取得に失敗しました: %v", err)
		}
		if w > maxReferenceDimension || h > maxReferenceDimension {
			t.Errorf("最大辺が上限を超えています: %dx%d", w, h)
		}
		// 縦横比が維持されていること（2:1）
		if w != 1024 || h != 512 {
			t.Errorf("期待値 1024x512, 実際の値 %dx%d", w, h)
		}
	})

	t.Run("小さな写真がそのままの寸法で返ること", func(t *testing.T) {
		data := makePNG(t, 400, 600, color.RGBA{R: 50, A: 255})
		out, err := PrepareReference(data)
		if err != nil {
			t.Fatalf("参照写真の整形に失敗しました: %v", err)
		}
		w, h, _ := Dimensions(out)
		if w != 400 || h != 600 {
			t.Errorf("期待値 400x600, 実際の値 %dx%d", w, h)
		}
	})

	t.Run("画像でない入力が拒否されること", func(t *testing.T) {
		if _, err := PrepareReference([]byte{0x00, 0x01}); err == nil {
			t.Error("不正な入力でエラーが発生しませんでした")
		}
	})
}

func TestCropCenter(t *testing.T) {
	t.Run("出力がターゲット寸法になること", func(t *testing.T) {
		data := makePNG(t, 200, 300, color.RGBA{G: 80, A: 255})
		out, err := CropCenter(data, 0.75, 64, 96)
		if err != nil {
			t.Fatalf("中央切り出しに失敗しました: %v", err)
		}
		w, h, _ := Dimensions(out)
		if w != 64 || h != 96 {
			t.Errorf("期待値 64x96, 実際の値 %dx%d", w, h)
		}
	})

	t.Run("不正な比率が拒否されること", func(t *testing.T) {
		data := makePNG(t, 100, 100, color.RGBA{A: 255})
		if _, err := CropCenter(data, 0, 64, 96); err == nil {
			t.Error("比率 0 でエラーが発生しませんでした")
		}
	})
}

func TestSizeForAspect(t *testing.T) {
	cases := []struct {
		w, h int
		want domain.Size
	}{
		{1000, 1000, domain.SizeSquare},  // 1.0
		{1600, 1000, domain.SizeLandscape}, // 1.6
		{600, 1000, domain.SizePortrait}, // 0.6
		{1100, 1000, domain.SizeSquare},
	}
	for _, c := range cases {
		if got := SizeForAspect(c.w, c.h); got != c.want {
			t.Errorf("SizeForAspect(%d, %d): 期待値 %s, 実際の値 %s", c.w, c.h, c.want, got)
		}
	}
}
