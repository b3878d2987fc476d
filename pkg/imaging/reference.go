package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"golang.org/x/image/draw"
)

// 参照写真の取り扱い上限
const (
	maxReferenceDimension = 1024
	maxReferenceBytes     = 4 * 1024 * 1024
	shrinkRatio           = 0.75
	fallbackJPEGQuality   = 80
)

// PrepareReference はアップロードされた参照写真を編集APIへ渡せる形に整えます。
// 最大辺を 1024px に収めて PNG へ再エンコードし、それでもバイト数の上限を
// 超える場合は 75% に縮小した JPEG へ落とします。
func PrepareReference(photo []byte) ([]byte, error) {
	src, err := decode(photo)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if w > maxReferenceDimension || h > maxReferenceDimension {
		if w >= h {
			scale = float64(maxReferenceDimension) / float64(w)
		} else {
			scale = float64(maxReferenceDimension) / float64(h)
		}
	}

	scaled := scaleImage(src, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	if buf.Len() <= maxReferenceBytes {
		return buf.Bytes(), nil
	}

	// PNGで上限超過なら、さらに縮小してJPEGで妥協する
	smaller := scaleImage(scaled, shrinkRatio)
	buf.Reset()
	if err := jpeg.Encode(&buf, smaller, &jpeg.Options{Quality: fallbackJPEGQuality}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// CropCenter は中央を基準に短辺×ratio の正方形を切り出し、target 寸法へ拡縮します。
// 表紙からアバターを切り出す経路で使います。
func CropCenter(data []byte, ratio float64, targetWidth, targetHeight int) ([]byte, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}
	if ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("invalid crop ratio %f", ratio)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	shorter := w
	if h < shorter {
		shorter = h
	}
	cropSize := int(float64(shorter)*ratio + 0.5)
	offsetX := bounds.Min.X + (w-cropSize)/2
	offsetY := bounds.Min.Y + (h-cropSize)/2
	cropRect := image.Rect(offsetX, offsetY, offsetX+cropSize, offsetY+cropSize)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, cropRect, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// SizeForAspect はソース画像の縦横比から正準サイズ（正方形・縦長・横長）を選びます。
func SizeForAspect(width, height int) domain.Size {
	if width <= 0 || height <= 0 {
		return domain.SizeSquare
	}
	aspect := float64(width) / float64(height)
	switch {
	case aspect > 1.25:
		return domain.SizeLandscape
	case aspect < 0.8:
		return domain.SizePortrait
	default:
		return domain.SizeSquare
	}
}

func scaleImage(src image.Image, scale float64) image.Image {
	if scale >= 1.0 {
		return src
	}
	bounds := src.Bounds()
	w := int(float64(bounds.Dx())*scale + 0.5)
	h := int(float64(bounds.Dy())*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
