package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// LoadSnapshot は Publish が書き出した story.json と画像一式を読み戻します。
// マニフェストに載っているのに開けないファイルがあればエラーになります。
func LoadSnapshot(ctx context.Context, reader remoteio.InputReader, dir string) (domain.Story, map[domain.Slot]domain.GeneratedAsset, error) {
	if reader == nil {
		return domain.Story{}, nil, fmt.Errorf("InputReader は必須です")
	}

	manifestPath, err := ResolveOutputPath(dir, manifestFileName)
	if err != nil {
		return domain.Story{}, nil, err
	}
	var m manifest
	if err := readJSON(ctx, reader, manifestPath, &m); err != nil {
		return domain.Story{}, nil, fmt.Errorf("マニフェストの読み込みに失敗しました: %w", err)
	}

	assets := make(map[domain.Slot]domain.GeneratedAsset, len(m.Assets))
	for _, entry := range m.Assets {
		fullPath, err := ResolveOutputPath(dir, entry.File)
		if err != nil {
			return domain.Story{}, nil, err
		}
		data, err := readAll(ctx, reader, fullPath)
		if err != nil {
			return domain.Story{}, nil, fmt.Errorf("アセット %s の読み込みに失敗しました: %w", entry.File, err)
		}
		assets[entry.Slot] = domain.GeneratedAsset{
			Slot:   entry.Slot,
			Data:   data,
			Width:  entry.Width,
			Height: entry.Height,
		}
	}
	return m.Story, assets, nil
}

func readJSON(ctx context.Context, reader remoteio.InputReader, path string, v any) error {
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}

func readAll(ctx context.Context, reader remoteio.InputReader, path string) ([]byte, error) {
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
