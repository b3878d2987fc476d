package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/publisher"
)

// exportCmd は、保存済みのアセット一式からPDF/ZIPを組み立て直すのだ。
// 生成はやり直さないため、APIキーは不要なのだよ。
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "保存済みの絵本からPDF/ZIPを組み立てますなのだ。",
	Long: `generate が書き出した story.json と画像一式（--input-dir）を読み戻し、
レター判PDFやZIPアーカイブへ組み立て直すのだ。画像の再生成は行わないのだよ。`,
	RunE: exportCommand,
}

func exportCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.InputDir == "" {
		return fmt.Errorf("読み戻し元（--input-dir）を指定してほしいのだ")
	}
	if !opts.ExportPDF && !opts.ExportZIP {
		return fmt.Errorf("--pdf と --zip の少なくとも一方を指定してほしいのだ")
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return err
	}

	story, assets, err := publisher.LoadSnapshot(ctx, reader, opts.InputDir)
	if err != nil {
		return err
	}
	slog.Info("スナップショットを読み戻したのだ", "title", story.Title, "assets", len(assets))

	if opts.ExportPDF {
		if err := writeExport(ctx, writer, story, assets, publisher.BuildPDF, "_storybook.pdf", "application/pdf"); err != nil {
			return err
		}
	}
	if opts.ExportZIP {
		if err := writeExport(ctx, writer, story, assets, publisher.BuildZIP, "_storybook.zip", "application/zip"); err != nil {
			return err
		}
	}
	return nil
}

func writeExport(
	ctx context.Context,
	writer remoteio.OutputWriter,
	story domain.Story,
	assets map[domain.Slot]domain.GeneratedAsset,
	build func(domain.Story, map[domain.Slot]domain.GeneratedAsset) ([]byte, error),
	suffix, mimeType string,
) error {
	data, err := build(story, assets)
	if err != nil {
		return fmt.Errorf("エクスポートの組み立てに失敗したのだ: %w", err)
	}
	fullPath, err := publisher.ResolveOutputPath(opts.OutputDir, publisher.FileNameForTitle(story.Title, suffix))
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, fullPath, bytes.NewReader(data), mimeType); err != nil {
		return fmt.Errorf("エクスポートの保存に失敗したのだ: %w", err)
	}
	slog.Info("エクスポートを保存したのだ", "path", fullPath)
	return nil
}
