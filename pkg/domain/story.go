package domain

import (
	"fmt"
	"strings"
)

// ReadingLevel は子どもの読書レベルを表します。
type ReadingLevel string

const (
	ReadingPreReader         ReadingLevel = "pre-reader"
	ReadingEarlyReader       ReadingLevel = "early-reader"
	ReadingIndependentReader ReadingLevel = "independent-reader"
)

// Tone は物語全体の語り口を表します。
type Tone string

const (
	ToneGentle      Tone = "gentle"
	ToneEncouraging Tone = "encouraging"
	TonePlayful     Tone = "playful"
	ToneCalm        Tone = "calm"
)

// 年齢とページ数の許容範囲の定義
const (
	MinChildAge  = 2
	MaxChildAge  = 10
	MinPageCount = 6
	MaxPageCount = 12
)

// ValidationError は呼び出し側の入力不備を表すエラーです。
// 外部サービスへの呼び出しが始まる前に必ず検出されます。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// ChildProfile は物語の主人公となる子どもの情報を保持します。
// 台本生成に渡した後は不変として扱います。
type ChildProfile struct {
	Name          string       `json:"name"`
	Age           int          `json:"age"`
	Interests     []string     `json:"interests,omitempty"`
	ReadingLevel  ReadingLevel `json:"reading_level,omitempty"`
	Sensitivities []string     `json:"sensitivities,omitempty"`
}

// Validate は名前と年齢の必須条件を確認します。
func (c ChildProfile) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "child.name", Reason: "name is required"}
	}
	if c.Age < MinChildAge || c.Age > MaxChildAge {
		return &ValidationError{
			Field:  "child.age",
			Reason: fmt.Sprintf("age must be between %d and %d years", MinChildAge, MaxChildAge),
		}
	}
	return nil
}

// StoryGoal は物語で扱うライフスキル上の課題を保持します。
type StoryGoal struct {
	Challenge     string   `json:"challenge"`
	Context       string   `json:"context,omitempty"`
	Tone          Tone     `json:"tone,omitempty"`
	LearningFocus []string `json:"learning_focus,omitempty"`
}

// Validate は課題テキストの必須条件を確認します。
func (g StoryGoal) Validate() error {
	if strings.TrimSpace(g.Challenge) == "" {
		return &ValidationError{Field: "goal.challenge", Reason: "challenge is required"}
	}
	return nil
}

// StyleSpec は挿絵のスタイルとページ構成の指定を保持します。
type StyleSpec struct {
	IllustrationStyle  Style  `json:"illustration_style"`
	PageCount          int    `json:"page_count"`
	IncludeAffirmation bool   `json:"include_affirmation,omitempty"`
	Dedication         string `json:"dedication,omitempty"`
}

// Validate はページ数の範囲とスタイル名を確認します。
func (s StyleSpec) Validate() error {
	if s.PageCount < MinPageCount || s.PageCount > MaxPageCount {
		return &ValidationError{
			Field:  "style.page_count",
			Reason: fmt.Sprintf("page count must be between %d and %d", MinPageCount, MaxPageCount),
		}
	}
	if !s.IllustrationStyle.Valid() {
		return &ValidationError{
			Field:  "style.illustration_style",
			Reason: fmt.Sprintf("unknown illustration style %q", s.IllustrationStyle),
		}
	}
	return nil
}

// Story は台本生成サービスが返した物語全体の構造です。
// 生成後は挿絵アセット（外部のストアで管理）以外は不変として扱います。
type Story struct {
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Pages       Pages  `json:"pages"`
	Affirmation string `json:"affirmation,omitempty"`
	Dedication  string `json:"dedication,omitempty"`
}

// Page は物語の1ページ分の本文と挿絵指示を保持します。
// Story に所有され、単独では存在しません。
type Page struct {
	Page               int    `json:"page"`
	Text               string `json:"text"`
	IllustrationPrompt string `json:"illustration_prompt"`
	Alt                string `json:"alt,omitempty"`
	Style              string `json:"style,omitempty"`
}

// Pages は Page の順序付きリストです。
type Pages []Page

// FindPage はページ番号から該当ページを探します。
func (ps Pages) FindPage(number int) *Page {
	for i := range ps {
		if ps[i].Page == number {
			res := ps[i]
			return &res
		}
	}
	return nil
}

// PageNumbersValid はページ番号が 1..len(ps) で重複なく揃っているかを確認します。
// 欠番や重複は台本生成サービス側の契約違反です。
func (ps Pages) PageNumbersValid() bool {
	seen := make(map[int]struct{}, len(ps))
	for _, p := range ps {
		if p.Page < 1 || p.Page > len(ps) {
			return false
		}
		if _, dup := seen[p.Page]; dup {
			return false
		}
		seen[p.Page] = struct{}{}
	}
	return len(seen) == len(ps)
}
