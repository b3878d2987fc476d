// Package prompts は画像合成へ渡す指示文を組み立てます。
// キャラクターの一貫性・解剖学的正しさ・子ども向けの画調に関する
// 定型句をここに集約し、呼び出し側には完成した文字列だけを渡します。
package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// paletteSuffix は全スロット共通で適用する画調の指示です。
const paletteSuffix = "Palette: deep-navy, candlelight-amber, peach-coral accents, soft edges, picture-book lighting. No text, no watermarks, child-friendly, gentle faces, cozy compositions."

// anatomyBlock は不自然な人体描写を防ぐための定型指示です。
const anatomyBlock = `CRITICAL - ANATOMICAL CORRECTNESS:
- Character must have exactly TWO arms, TWO hands, TWO legs, TWO feet
- Proper human proportions for children's book character
- All body parts in correct positions and quantities
- No extra limbs, no missing limbs, no distorted anatomy
- Fingers clearly defined (5 per hand when visible)`

// AvatarFromPhoto は参照写真をスタイル変換するアバター生成の指示文を返します。
// 顔立ち・髪・肌の色・眼鏡などの特徴を維持させるのが要点です。
func AvatarFromPhoto(style domain.Style) string {
	return fmt.Sprintf("Transform this person into %s children's book illustration style. "+
		"Keep their key facial features, hair color/style, skin tone, and any accessories like glasses. "+
		"Create a warm, friendly children's book character with a cozy background scene. "+
		"Style should match: %s. No text, no watermarks.", style, style)
}

// AvatarFromDescription は自由文の説明から主人公を創作させる指示文を返します。
// プロバイダの edit はソース画像を要求するため、呼び出し側はスタイルタイルを
// 名目上のソースとして渡します。
func AvatarFromDescription(description string, style domain.Style) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Using the provided image only as a style reference, invent a brand-new children's book main character matching this description: %s. ", description))
	sb.WriteString(fmt.Sprintf("Render in %s style with an appearance distinctive and stable enough to reuse across every page of a picture book. ", style))
	sb.WriteString(anatomyBlock)
	sb.WriteString("\nNo text, no watermarks.")
	return sb.String()
}

// PageFromAvatar はアバターをソースにしたページ挿絵の指示文を返します。
func PageFromAvatar(scene string, style domain.Style) string {
	return fmt.Sprintf("Keep the same main character as the provided source image "+
		"(face, hair, skin tone, proportions, clothing). Now depict: %s. "+
		"Maintain %s children's book style. %s", scene, style, paletteSuffix)
}

// PageFromPrevious は直前ページをソースにしたページ挿絵の指示文を返します。
func PageFromPrevious(scene string) string {
	return fmt.Sprintf("Keep the same main character(s) and visual style as the previous page image "+
		"(hair, clothing, skin tone, proportions, palette). Now depict: %s. %s", scene, paletteSuffix)
}

// Cover は物語タイトルを画中に描き込む表紙の指示文を返します。
func Cover(title string, style domain.Style) string {
	var sb strings.Builder
	sb.WriteString("Create a whimsical children's storybook cover illustration featuring the same character from the provided image. The cover should have:\n")
	sb.WriteString(fmt.Sprintf("- A magical, inviting storybook scene that reflects the theme: %q\n", title))
	sb.WriteString("- The character in a prominent, central position looking happy and excited\n")
	sb.WriteString("- A colorful, enchanting background with storybook elements (sparkles, swirls, decorative borders)\n")
	sb.WriteString(fmt.Sprintf("- Style: %s\n\n", style))
	sb.WriteString(anatomyBlock)
	sb.WriteString("\n\nIMPORTANT - INCLUDE THE TITLE TEXT IN THE IMAGE:\n")
	sb.WriteString(fmt.Sprintf("- Draw the title text %q at the bottom third of the image\n", title))
	sb.WriteString(textStyleFor(style))
	sb.WriteString("\n\n")
	sb.WriteString(textFittingRules)
	return sb.String()
}

// Dedication は献辞テキストと固定の帰属表示を画中に描き込む指示文を返します。
func Dedication(dedication string, style domain.Style) string {
	var sb strings.Builder
	sb.WriteString("Create a beautiful children's storybook dedication page illustration featuring the same character from the provided image. The page should have:\n")
	sb.WriteString("- A gentle, heartwarming scene with the character in a peaceful, happy moment\n")
	sb.WriteString("- Simple, elegant background that doesn't distract from the text\n")
	sb.WriteString(fmt.Sprintf("- Style: %s\n\n", style))
	sb.WriteString(anatomyBlock)
	sb.WriteString("\n\nIMPORTANT - INCLUDE THIS TEXT IN THE IMAGE (centered in middle/upper portion):\n")
	if dedication != "" {
		sb.WriteString(fmt.Sprintf("%q\n", dedication))
	}
	sb.WriteString("\nAND AT THE BOTTOM, INCLUDE:\n\"Created By Bright Kids AI\"\n\n")
	sb.WriteString(textStyleFor(style))
	sb.WriteString("\n\n")
	sb.WriteString(textFittingRules)
	return sb.String()
}

// DefaultDedication は献辞が指定されなかったときの定型文です。
func DefaultDedication(childName string) string {
	return fmt.Sprintf("For %s, with love", childName)
}
