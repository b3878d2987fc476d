// Package imaging は生成画像を正準キャンバスへ整形する純粋関数群を提供します。
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// neutralFill はパディング部分を塗る中立背景色です (#f5f5f5)。
var neutralFill = color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}

// ImageDecodeError は入力バイト列を画像として解釈できなかったことを表します。
// 正規化は元のバイト列を黙って返すことはせず、必ずこのエラーで失敗します。
type ImageDecodeError struct {
	Err error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("cannot decode input as an image: %v", e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// NormalizeCropToFill は画像を target 寸法のキャンバスいっぱいに拡縮し、
// はみ出す分を中央基準で切り落とします。画面表示・生成パイプライン用の方針です。
func NormalizeCropToFill(data []byte, targetWidth, targetHeight int) ([]byte, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}
	return render(src, targetWidth, targetHeight, true)
}

// NormalizeFitWithPadding は画像を切り落とさずに target 寸法へ収め、
// 余白を中立背景色で埋めます。エクスポート（PDF）用の方針です。
func NormalizeFitWithPadding(data []byte, targetWidth, targetHeight int) ([]byte, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}
	return render(src, targetWidth, targetHeight, false)
}

// Dimensions は画像のピクセル寸法だけを読み取ります。
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, &ImageDecodeError{Err: err}
	}
	return cfg.Width, cfg.Height, nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageDecodeError{Err: err}
	}
	return img, nil
}

// render は crop（fill=true）または letterbox（fill=false）で描画領域を計算し、
// 中立背景の上へ拡縮描画して PNG にエンコードします。決定論的です。
func render(src image.Image, targetWidth, targetHeight int, fill bool) ([]byte, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", targetWidth, targetHeight)
	}

	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, &ImageDecodeError{Err: fmt.Errorf("empty image %dx%d", srcW, srcH)}
	}

	srcAspect := float64(srcW) / float64(srcH)
	targetAspect := float64(targetWidth) / float64(targetHeight)

	var drawW, drawH int
	if (srcAspect > targetAspect) == fill {
		// fill: 横長ソースは高さ基準で合わせて左右を切る。
		// fit: 縦長ソースは高さ基準で合わせて左右に余白を作る。
		drawH = targetHeight
		drawW = int(float64(targetHeight)*srcAspect + 0.5)
	} else {
		drawW = targetWidth
		drawH = int(float64(targetWidth)/srcAspect + 0.5)
	}

	offsetX := (targetWidth - drawW) / 2
	offsetY := (targetHeight - drawH) / 2

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(neutralFill), image.Point{}, draw.Src)

	dstRect := image.Rect(offsetX, offsetY, offsetX+drawW, offsetY+drawH)
	draw.CatmullRom.Scale(dst, dstRect, src, srcBounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
