// Package publisher は完成した絵本アセットの永続化とエクスポートを担います。
//
// スロットごとのPNGをローカルまたはGCSへ書き出すほか、1冊分をまとめた
// PDF（レター判）とZIPアーカイブを組み立てます。
package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理で生成されたファイルの情報を保持します。
type PublishResult struct {
	ImagePaths   []string // 保存された全画像のパスリスト
	ManifestPath string   // 生成された story.json のパス
}

// BookPublisher は成果物の永続化を担います。
type BookPublisher struct {
	writer remoteio.OutputWriter
}

// NewBookPublisher は BookPublisher を初期化します。
func NewBookPublisher(writer remoteio.OutputWriter) (*BookPublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}
	return &BookPublisher{writer: writer}, nil
}

// Publish は全アセットのPNGとマニフェストを出力先へ書き出します。
// アセットが存在しないスロットは黙って飛ばします。
func (p *BookPublisher) Publish(ctx context.Context, story domain.Story, assets map[domain.Slot]domain.GeneratedAsset, opts Options) (PublishResult, error) {
	result := PublishResult{}

	for _, slot := range domain.SlotOrder(len(story.Pages)) {
		asset, ok := assets[slot]
		if !ok || len(asset.Data) == 0 {
			continue
		}

		fullPath, err := ResolveOutputPath(opts.OutputDir, assetFileName(slot))
		if err != nil {
			return result, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(asset.Data), "image/png"); err != nil {
			return result, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}
		result.ImagePaths = append(result.ImagePaths, fullPath)
	}

	manifest, err := buildManifest(story, assets)
	if err != nil {
		return result, err
	}
	manifestPath, err := ResolveOutputPath(opts.OutputDir, manifestFileName)
	if err != nil {
		return result, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, manifestPath, bytes.NewReader(manifest), "application/json; charset=utf-8"); err != nil {
		return result, fmt.Errorf("マニフェストの書き込みに失敗しました: %w", err)
	}
	result.ManifestPath = manifestPath

	slog.Info("絵本を書き出しました", "title", story.Title, "images", len(result.ImagePaths))
	return result, nil
}

// assetFileName はスロットから出力ファイル名を決めます。
func assetFileName(slot domain.Slot) string {
	if n, ok := slot.PageNumber(); ok {
		return fmt.Sprintf("page_%02d.png", n)
	}
	return string(slot) + ".png"
}
