package publisher

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ResolveOutputPath はベースディレクトリとファイル名を結合します。
// gs:// で始まるパスはGCSのURIとして扱い、スキーム部分を壊さずに結合します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if strings.HasPrefix(strings.ToLower(baseDir), "gs://") {
		u, err := url.Parse(baseDir)
		if err != nil {
			return "", fmt.Errorf("無効なGCS URIです: %w", err)
		}
		u.Path, err = url.JoinPath(u.Path, fileName)
		if err != nil {
			return "", fmt.Errorf("GCSパスの結合に失敗しました: %w", err)
		}
		return u.String(), nil
	}
	return filepath.Join(baseDir, fileName), nil
}

// FileNameForTitle は物語タイトルをファイル名に使える形へ変換します。
// 英数字以外はすべてアンダースコアに置き換えます。
func FileNameForTitle(title, suffix string) string {
	base := unsafeFileChars.ReplaceAllString(title, "_")
	if base == "" {
		base = "storybook"
	}
	return base + suffix
}
