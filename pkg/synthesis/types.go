// Package synthesis は外部の画像合成サービスへの薄いゲートウェイです。
//
// generate（ソース画像なし）と edit（ソース画像の変換）の2つの合成モードを
// 提供し、プロバイダのレスポンス形式（base64入りJSON封筒またはバイナリ本文）
// の差異を吸収して常に生の画像バイト列を返します。
package synthesis

import (
	"fmt"
	"net/http"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// Doer はHTTPリクエストを実行できる最小のインターフェースです。
// go-http-kit のクライアントや *http.Client がそのまま満たします。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GenerateRequest はソース画像なしの合成リクエストです。
type GenerateRequest struct {
	Prompt string
	Size   domain.Size
}

// EditRequest はソース画像を変換する合成リクエストです。
type EditRequest struct {
	Prompt    string
	Source    []byte // 必須。変換対象のソース画像
	StyleHint []byte // 任意。画風の参照として追加で渡す画像
	Mask      []byte // 任意。編集範囲を制限するマスク
	Size      domain.Size
}

// ProviderError は外部サービスが非成功ステータスを返したことを表します。
// 自動リトライは行わず、診断用にステータスと本文をそのまま保持します。
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("image provider returned status %d: %s", e.StatusCode, e.Body)
}

// InvalidResponseError はHTTPとしては成功したものの、期待したペイロード
// （画像データ）が欠けていたことを表します。ProviderError とは常に区別されます。
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid provider response: %s", e.Reason)
}
