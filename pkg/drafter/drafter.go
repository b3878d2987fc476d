// Package drafter は子どものプロフィールと課題から絵本の台本を生成します。
//
// 外部の生成モデルにJSON形式の物語を書かせ、コードフェンスの除去・構造検証・
// ページ番号の補完までを済ませた domain.Story を返します。
package drafter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/safety"
)

// systemPrompt は物語作家としての役割と安全方針を固定する指示です。
const systemPrompt = `You are Wendy, a kind children's author and parent coach. Write age-appropriate picture-book text (2-5 sentences per page) with gentle, predictable structure and rich sensory detail.

IMPORTANT SAFETY GUIDELINES:
- Create only gentle, nurturing, age-appropriate content
- Avoid any scary, violent, or inappropriate themes
- Focus on positive learning and emotional growth
- Use warm, comforting language suitable for young children
- Never include text-in-image instructions in illustration prompts

Output valid JSON only, matching the provided schema exactly.`

// TextModel はテキスト生成モデルの最小インターフェースです。
// gemini.GenerativeModel がそのまま満たします。
type TextModel interface {
	GenerateContent(ctx context.Context, prompt, model string) (*gemini.Response, error)
}

// InvalidStoryStructureError はモデルの応答が物語の構造契約を満たさなかった
// ことを表します。入力不備（ValidationError）とは区別されます。
type InvalidStoryStructureError struct {
	Reason string
}

func (e *InvalidStoryStructureError) Error() string {
	return fmt.Sprintf("invalid story structure: %s", e.Reason)
}

// Drafter は台本生成の一連の工程（検証・安全確認・生成・パース）を担います。
type Drafter struct {
	model     TextModel
	modelName string
}

// New は Drafter を初期化します。model は必須です。
func New(model TextModel, modelName string) (*Drafter, error) {
	if model == nil {
		return nil, fmt.Errorf("テキスト生成モデルは必須です")
	}
	if modelName == "" {
		return nil, fmt.Errorf("モデル名は必須です")
	}
	return &Drafter{model: model, modelName: modelName}, nil
}

// Draft は入力を検証し、安全確認を通過した場合のみ台本生成を実行します。
// 検証・安全確認のエラー時には外部サービスへの呼び出しは一切行われません。
func (d *Drafter) Draft(ctx context.Context, child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec) (domain.Story, error) {
	if err := child.Validate(); err != nil {
		return domain.Story{}, err
	}
	if err := goal.Validate(); err != nil {
		return domain.Story{}, err
	}
	if err := style.Validate(); err != nil {
		return domain.Story{}, err
	}
	if err := safety.CheckText(goal.Challenge, goal.Context); err != nil {
		return domain.Story{}, err
	}

	prompt := buildPrompt(child, goal, style)
	resp, err := d.model.GenerateContent(ctx, prompt, d.modelName)
	if err != nil {
		return domain.Story{}, fmt.Errorf("台本の生成に失敗しました: %w", err)
	}

	story, err := parseStory(resp.Text)
	if err != nil {
		return domain.Story{}, err
	}

	normalizePages(&story, style)
	if !story.Pages.PageNumbersValid() {
		return domain.Story{}, &InvalidStoryStructureError{Reason: "page numbers are duplicated or out of range"}
	}
	return story, nil
}

// buildPrompt はシステム指示と具体的な依頼内容を1つのプロンプトに組み立てます。
func buildPrompt(child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nCHILD\n")
	sb.WriteString(fmt.Sprintf("- Name: %s\n", child.Name))
	sb.WriteString(fmt.Sprintf("- Age: %d\n", child.Age))
	sb.WriteString(fmt.Sprintf("- Interests: %s\n", joinOrNone(child.Interests)))
	sb.WriteString(fmt.Sprintf("- Reading level: %s\n", child.ReadingLevel))
	sb.WriteString(fmt.Sprintf("- Sensitivities/supports: %s\n", joinOrNone(child.Sensitivities)))
	sb.WriteString("\nGOAL\n")
	sb.WriteString(fmt.Sprintf("- Challenge: %s\n", goal.Challenge))
	sb.WriteString(fmt.Sprintf("- Context: %s\n", orNone(goal.Context)))
	sb.WriteString(fmt.Sprintf("- Tone: %s\n", goal.Tone))
	sb.WriteString(fmt.Sprintf("- Learning focus: %s\n", joinOrNone(goal.LearningFocus)))
	sb.WriteString("\nSTYLE\n")
	sb.WriteString(fmt.Sprintf("- Illustration style: %s\n", style.IllustrationStyle))
	sb.WriteString(fmt.Sprintf("- Page count: %d\n", style.PageCount))
	sb.WriteString(fmt.Sprintf("- Include affirmation: %t\n", style.IncludeAffirmation))
	sb.WriteString(fmt.Sprintf("- Dedication: %s\n", orNone(style.Dedication)))
	sb.WriteString(fmt.Sprintf("\nWrite a title and %d pages. Each page: 2-5 short sentences. "+
		"If the goal involves anxiety, include a repeating comfort element (e.g., \"hand on heart, slow breath\"). "+
		"Return JSON with keys: title, summary, pages[], affirmation (if requested), dedication. "+
		"For each page include: page, text, illustration_prompt (no text-in-image), alt.", style.PageCount))
	return sb.String()
}

// parseStory はモデルが付けがちなMarkdownコードフェンスを取り除き、
// JSONとしてパースした上で構造契約を検証します。
func parseStory(raw string) (domain.Story, error) {
	rawJSON := strings.TrimSpace(raw)
	rawJSON = strings.TrimPrefix(rawJSON, "```json")
	rawJSON = strings.TrimPrefix(rawJSON, "```")
	rawJSON = strings.TrimSuffix(rawJSON, "```")
	rawJSON = strings.TrimSpace(rawJSON)

	var story domain.Story
	if err := json.Unmarshal([]byte(rawJSON), &story); err != nil {
		return domain.Story{}, &InvalidStoryStructureError{Reason: fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	if strings.TrimSpace(story.Title) == "" {
		return domain.Story{}, &InvalidStoryStructureError{Reason: "title is missing"}
	}
	if len(story.Pages) == 0 {
		return domain.Story{}, &InvalidStoryStructureError{Reason: "pages are missing"}
	}
	return story, nil
}

// normalizePages はページ番号・alt・スタイルラベルの欠落を補完します。
func normalizePages(story *domain.Story, style domain.StyleSpec) {
	styleLabel := strings.ReplaceAll(strings.ToLower(string(style.IllustrationStyle)), " ", "_")
	for i := range story.Pages {
		if story.Pages[i].Page == 0 {
			story.Pages[i].Page = i + 1
		}
		if story.Pages[i].Alt == "" {
			story.Pages[i].Alt = fmt.Sprintf("Page %d illustration", i+1)
		}
		story.Pages[i].Style = styleLabel
	}
	if story.Dedication == "" {
		story.Dedication = style.Dedication
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none specified"
	}
	return strings.Join(items, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none specified"
	}
	return s
}
