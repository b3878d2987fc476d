package generator

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/imaging"
	"github.com/shouni/go-storybook-kit/pkg/prompts"
	"github.com/shouni/go-storybook-kit/pkg/safety"
	"github.com/shouni/go-storybook-kit/pkg/synthesis"
)

// coverCropRatio は表紙からアバターを切り出すときの中央切り出し比率です。
const coverCropRatio = 0.75

// DeriverConfig はアバター導出の設定です。
type DeriverConfig struct {
	// TileDir はスタイル参照タイル画像の置き場（ローカルまたはGCS）です。
	TileDir string
	// CanvasWidth / CanvasHeight はアバターの出力寸法です。
	// 0 の場合は正準キャンバスの寸法を使います。
	CanvasWidth  int
	CanvasHeight int
}

// AvatarDeriver は参照写真・自由文・表紙のいずれかから主人公の
// 正準アバターを導出します。
type AvatarDeriver struct {
	gateway SynthesisGateway
	reader  remoteio.InputReader
	cfg     DeriverConfig
}

// NewAvatarDeriver は AvatarDeriver を初期化します。gateway は必須です。
// reader が nil の場合、スタイルタイルは使われません。
func NewAvatarDeriver(gateway SynthesisGateway, reader remoteio.InputReader, cfg DeriverConfig) (*AvatarDeriver, error) {
	if gateway == nil {
		return nil, fmt.Errorf("合成ゲートウェイは必須です")
	}
	if cfg.CanvasWidth <= 0 {
		cfg.CanvasWidth = domain.CanonicalWidth
	}
	if cfg.CanvasHeight <= 0 {
		cfg.CanvasHeight = domain.CanonicalHeight
	}
	return &AvatarDeriver{gateway: gateway, reader: reader, cfg: cfg}, nil
}

// FromPhoto は参照写真をスタイル変換してアバターを導出します。
// 写真は送信前に寸法・バイト数の上限へ整形されます。
func (d *AvatarDeriver) FromPhoto(ctx context.Context, photo []byte, style domain.Style) (domain.Avatar, error) {
	prepared, err := imaging.PrepareReference(photo)
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: err}
	}

	w, h, err := imaging.Dimensions(prepared)
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: err}
	}

	// タイルは画風のヒントに過ぎないため、読めなくても続行する
	tile, _ := d.loadTile(ctx, style)

	raw, err := d.gateway.Edit(ctx, synthesis.EditRequest{
		Prompt:    prompts.AvatarFromPhoto(style),
		Source:    prepared,
		StyleHint: tile,
		Size:      imaging.SizeForAspect(w, h),
	})
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: err}
	}

	return d.finalize(raw, domain.AvatarFromPhoto, style)
}

// FromDescription は自由文の説明からアバターを導出します。
// 編集APIはソース画像を要求するため、スタイルタイルを名目上のソースに使います。
func (d *AvatarDeriver) FromDescription(ctx context.Context, description string, style domain.Style) (domain.Avatar, error) {
	if description == "" {
		return domain.Avatar{}, &domain.ValidationError{Field: "avatar.description", Reason: "description is required"}
	}
	if err := safety.CheckText(description); err != nil {
		return domain.Avatar{}, err
	}

	tile, err := d.loadTile(ctx, style)
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: fmt.Errorf("スタイルタイルの読み込みに失敗しました: %w", err)}
	}

	raw, err := d.gateway.Edit(ctx, synthesis.EditRequest{
		Prompt: prompts.AvatarFromDescription(description, style),
		Source: tile,
		Size:   imaging.SizeForAspect(d.cfg.CanvasWidth, d.cfg.CanvasHeight),
	})
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: err}
	}

	return d.finalize(raw, domain.AvatarFromDescription, style)
}

// FromCover は完成済みの表紙の中央を切り出してアバターにします。
// 外部サービスは呼びません。表紙の画風を最も忠実に引き継ぐ経路です。
func (d *AvatarDeriver) FromCover(cover []byte, style domain.Style) (domain.Avatar, error) {
	data, err := imaging.CropCenter(cover, coverCropRatio, d.cfg.CanvasWidth, d.cfg.CanvasHeight)
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: err}
	}
	return domain.Avatar{
		Data:   data,
		Source: domain.AvatarFromCover,
		Style:  style,
		Width:  d.cfg.CanvasWidth,
		Height: d.cfg.CanvasHeight,
	}, nil
}

// finalize は生成結果を正準キャンバスへ正規化してアバターに包みます。
func (d *AvatarDeriver) finalize(raw []byte, source domain.AvatarSource, style domain.Style) (domain.Avatar, error) {
	normalized, err := imaging.NormalizeCropToFill(raw, d.cfg.CanvasWidth, d.cfg.CanvasHeight)
	if err != nil {
		return domain.Avatar{}, &AvatarGenerationError{Err: err}
	}
	return domain.Avatar{
		Data:   normalized,
		Source: source,
		Style:  style,
		Width:  d.cfg.CanvasWidth,
		Height: d.cfg.CanvasHeight,
	}, nil
}

// loadTile はスタイルに対応する参照タイル画像を読み込みます。
func (d *AvatarDeriver) loadTile(ctx context.Context, style domain.Style) ([]byte, error) {
	if d.reader == nil || d.cfg.TileDir == "" {
		return nil, fmt.Errorf("タイルの置き場が設定されていません")
	}
	rc, err := d.reader.Open(ctx, path.Join(d.cfg.TileDir, style.Info().TileFile))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
