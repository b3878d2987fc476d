package publisher

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/imaging"
)

// レター判のページ寸法（ポイント）と、埋め込み画像のピクセル寸法。
// 画像は同じ縦横比で事前にレターボックス化してから全面に貼ります。
const (
	letterWidthPt  = 612.0
	letterHeightPt = 792.0

	pdfImageWidth  = 1224
	pdfImageHeight = 1584
)

var nonWinAnsi = regexp.MustCompile(`[^\x20-\x7E]`)

// SanitizeText はPDFメタデータに安全に載せられる形へテキストを整えます。
// スマートクォートなどの記号を近いASCIIへ置き換え、残りの非ASCIIは落とします。
func SanitizeText(text string) string {
	replacer := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
		"—", "-", "–", "-",
		"…", "...",
	)
	return nonWinAnsi.ReplaceAllString(replacer.Replace(text), "")
}

// BuildPDF は表紙→各ページ→献辞の順に1スロット1ページでPDFを組み立てます。
// 各画像は切り落とさずにレター判へ収め、余白は中立背景で埋めます。
// アセットの無いスロットは飛ばします。
func BuildPDF(story domain.Story, assets map[domain.Slot]domain.GeneratedAsset) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: letterWidthPt, Ht: letterHeightPt},
	})
	pdf.SetTitle(SanitizeText(story.Title), true)
	pdf.SetAutoPageBreak(false, 0)

	embedded := 0
	for _, slot := range domain.SlotOrder(len(story.Pages)) {
		asset, ok := assets[slot]
		if !ok || len(asset.Data) == 0 {
			continue
		}

		letterboxed, err := imaging.NormalizeFitWithPadding(asset.Data, pdfImageWidth, pdfImageHeight)
		if err != nil {
			return nil, fmt.Errorf("スロット %s のレターボックス化に失敗しました: %w", slot, err)
		}

		pdf.AddPage()
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(string(slot), opts, bytes.NewReader(letterboxed))
		pdf.ImageOptions(string(slot), 0, 0, letterWidthPt, letterHeightPt, false, opts, 0, "")
		embedded++
	}

	if embedded == 0 {
		return nil, fmt.Errorf("埋め込めるアセットが1つもありません")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDFの出力に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
