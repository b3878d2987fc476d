package synthesis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// デフォルトの接続先とモデル名
const (
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultEditModel     = "gpt-image-1"
	DefaultGenerateModel = "dall-e-2"
)

// Config はゲートウェイの接続設定です。
type Config struct {
	BaseURL       string
	APIKey        string
	EditModel     string
	GenerateModel string
}

// Client は画像合成サービスのゲートウェイ実装です。
type Client struct {
	http Doer
	cfg  Config
}

// New はゲートウェイを初期化します。httpClient は必須です。
func New(httpClient Doer, cfg Config) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIキーが設定されていません")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EditModel == "" {
		cfg.EditModel = DefaultEditModel
	}
	if cfg.GenerateModel == "" {
		cfg.GenerateModel = DefaultGenerateModel
	}
	return &Client{http: httpClient, cfg: cfg}, nil
}

// Generate はソース画像なしのテキスト→画像合成を実行します。
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	size := domain.ResolveSize(string(req.Size))

	payload := map[string]any{
		"model":  c.cfg.GenerateModel,
		"prompt": req.Prompt,
		"size":   string(size),
		"n":      1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return c.execute(ctx, httpReq)
}

// Edit はソース画像を変換する合成を実行します。
// スタイルヒントがある場合は image[] の複数添付として送ります。
func (c *Client) Edit(ctx context.Context, req EditRequest) ([]byte, error) {
	if len(req.Source) == 0 {
		return nil, fmt.Errorf("edit にはソース画像が必須です")
	}
	size := domain.ResolveSize(string(req.Size))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", c.cfg.EditModel); err != nil {
		return nil, err
	}
	if err := mw.WriteField("prompt", req.Prompt); err != nil {
		return nil, err
	}
	if err := mw.WriteField("size", string(size)); err != nil {
		return nil, err
	}

	imageField := "image"
	if len(req.StyleHint) > 0 {
		imageField = "image[]"
	}
	if err := attachFile(mw, imageField, "source.png", req.Source); err != nil {
		return nil, err
	}
	if len(req.StyleHint) > 0 {
		if err := attachFile(mw, imageField, "style.png", req.StyleHint); err != nil {
			return nil, err
		}
	}
	if len(req.Mask) > 0 {
		if err := attachFile(mw, "mask", "mask.png", req.Mask); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/images/edits", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	return c.execute(ctx, httpReq)
}

// execute はリクエストを送信し、封筒形式とバイナリ形式の両方のレスポンスを
// 生の画像バイト列へ正規化します。
func (c *Client) execute(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("プロバイダへのリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンス本文の読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/json"):
		return c.decodeEnvelope(ctx, raw)
	case strings.HasPrefix(contentType, "image/"):
		if len(raw) == 0 {
			return nil, &InvalidResponseError{Reason: "empty image body"}
		}
		return raw, nil
	default:
		return nil, &InvalidResponseError{Reason: fmt.Sprintf("unexpected content type %q", contentType)}
	}
}

// envelope はプロバイダのJSON封筒の最小形です。
type envelope struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// decodeEnvelope はJSON封筒から画像を取り出します。base64が同梱されていれば
// それをデコードし、URLだけの場合はもう1往復して実体を取得します。
func (c *Client) decodeEnvelope(ctx context.Context, raw []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &InvalidResponseError{Reason: fmt.Sprintf("malformed JSON envelope: %v", err)}
	}
	if len(env.Data) == 0 {
		return nil, &InvalidResponseError{Reason: "envelope contains no image data"}
	}

	entry := env.Data[0]
	if entry.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(entry.B64JSON)
		if err != nil {
			return nil, &InvalidResponseError{Reason: fmt.Sprintf("invalid base64 payload: %v", err)}
		}
		return data, nil
	}

	if entry.URL != "" {
		return c.fetchImage(ctx, entry.URL)
	}

	return nil, &InvalidResponseError{Reason: "envelope entry has neither b64_json nor url"}
}

func (c *Client) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("画像URLの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return io.ReadAll(resp.Body)
}

func attachFile(mw *multipart.Writer, field, filename string, data []byte) error {
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
