// Package safety は子ども向けテーマの粗い内容ガードを提供します。
//
// 判定は固定語リストに対する大文字小文字を無視した部分一致であり、
// 意味を理解する分類器ではありません。観測可能な挙動の互換性のために
// 意図的にこの素朴な実装を維持しています。モデレーションシステムの
// 代わりとして使ってはいけません。
package safety

import (
	"fmt"
	"strings"
)

// blockedTerms は拒否する語の固定リストです。勝手に増減させないこと。
var blockedTerms = []string{
	"violent", "scary", "horror", "death", "kill",
	"weapon", "gun", "knife", "blood", "murder",
}

// ContentSafetyError は課題テキストが拒否語に一致したことを表します。
// 外部サービスへの呼び出し前に必ず報告され、リトライ対象にはなりません。
type ContentSafetyError struct {
	Term string
}

func (e *ContentSafetyError) Error() string {
	return fmt.Sprintf("please use gentle, age-appropriate themes suitable for children's stories (matched %q)", e.Term)
}

// CheckText は与えられたテキスト群を連結して拒否語を検査します。
func CheckText(texts ...string) error {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, term := range blockedTerms {
		if strings.Contains(joined, term) {
			return &ContentSafetyError{Term: term}
		}
	}
	return nil
}
