package publisher

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

const manifestFileName = "story.json"

// manifestEntry はマニフェストに載せるアセット1件分のメタ情報です。
type manifestEntry struct {
	Slot   domain.Slot `json:"slot"`
	File   string      `json:"file"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// manifest はZIPに同梱する story.json の形です。台本全文と
// アセット一覧を持ち、画像データそのものは含みません。
type manifest struct {
	Story  domain.Story    `json:"story"`
	Assets []manifestEntry `json:"assets"`
}

func buildManifest(story domain.Story, assets map[domain.Slot]domain.GeneratedAsset) ([]byte, error) {
	m := manifest{Story: story}
	for _, slot := range domain.SlotOrder(len(story.Pages)) {
		asset, ok := assets[slot]
		if !ok || len(asset.Data) == 0 {
			continue
		}
		m.Assets = append(m.Assets, manifestEntry{
			Slot:   slot,
			File:   assetFileName(slot),
			Width:  asset.Width,
			Height: asset.Height,
		})
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("マニフェストのエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// BuildZIP は全アセットのPNGとマニフェストをフラットな構成で固めます。
// アセットの無いスロットは飛ばします。
func BuildZIP(story domain.Story, assets map[domain.Slot]domain.GeneratedAsset) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	wrote := 0
	for _, slot := range domain.SlotOrder(len(story.Pages)) {
		asset, ok := assets[slot]
		if !ok || len(asset.Data) == 0 {
			continue
		}
		w, err := zw.Create(assetFileName(slot))
		if err != nil {
			return nil, fmt.Errorf("ZIPエントリの作成に失敗しました: %w", err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("ZIPエントリの書き込みに失敗しました: %w", err)
		}
		wrote++
	}

	if wrote == 0 {
		return nil, fmt.Errorf("固められるアセットが1つもありません")
	}

	manifestData, err := buildManifest(story, assets)
	if err != nil {
		return nil, err
	}
	w, err := zw.Create(manifestFileName)
	if err != nil {
		return nil, fmt.Errorf("ZIPエントリの作成に失敗しました: %w", err)
	}
	if _, err := w.Write(manifestData); err != nil {
		return nil, fmt.Errorf("ZIPエントリの書き込みに失敗しました: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ZIPの出力に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
