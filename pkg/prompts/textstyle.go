package prompts

import "github.com/shouni/go-storybook-kit/pkg/domain"

// textFittingRules は画中テキストの収まりに関する共通ルールです。
const textFittingRules = `TEXT FITTING RULES:
- The text MUST fit entirely within the image boundaries
- Leave comfortable margins on all sides (at least 5% of image width)
- If the text is long, reduce the font size so every word stays fully visible
- Never crop, cut off, or run text past the edge of the image
- Text must be legible against the background (add a soft glow or subtle panel behind it if needed)`

// textStyleBlocks は画風ごとの文字表現の指示です。
// キーは domain.StyleInfo.TextStyleKey に対応します。
var textStyleBlocks = map[string]string{
	"watercolor": `- Use hand-lettered, flowing script with soft watercolor texture
- Colors: muted earth tones that blend with the watercolor palette
- Gentle, organic letterforms as if painted with a fine brush`,
	"2d-digital": `- Use clean, rounded sans-serif lettering with smooth edges
- Colors: bright, saturated hues with a subtle drop shadow
- Crisp, modern letterforms consistent with flat digital illustration`,
	"comic": `- Use bold comic-book lettering with strong outlines
- Colors: high-contrast with a thick dark outline around each letter
- Dynamic, energetic letterforms like a comic title card`,
	"3d": `- Use dimensional, extruded lettering with soft studio lighting
- Colors: glossy, toy-like finish with gentle highlights
- Rounded 3D letterforms that match the rendered scene`,
}

// defaultTextStyleBlock は未知のスタイルに対するフォールバックです。
const defaultTextStyleBlock = `- Use playful, rounded children's book lettering
- Colors: warm and friendly, harmonizing with the scene`

// textStyleFor は指定スタイルに応じた文字表現の指示ブロックを返します。
func textStyleFor(style domain.Style) string {
	if block, ok := textStyleBlocks[style.Info().TextStyleKey]; ok {
		return block
	}
	return defaultTextStyleBlock
}
