package synthesis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(http.DefaultClient, Config{BaseURL: baseURL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("クライアントの初期化に失敗しました: %v", err)
	}
	return c
}

func TestClient_Edit(t *testing.T) {
	t.Run("JSON封筒のb64_jsonがデコードされること", func(t *testing.T) {
		want := []byte("fake-png-bytes")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/images/edits" {
				t.Errorf("予期しないパス: %s", r.URL.Path)
			}
			if err := r.ParseMultipartForm(8 << 20); err != nil {
				t.Fatalf("multipartのパースに失敗しました: %v", err)
			}
			if got := r.FormValue("size"); got != "1024x1536" {
				t.Errorf("size: 期待値 1024x1536, 実際の値 %s", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(want)}},
			})
		}))
		defer srv.Close()

		got, err := newTestClient(t, srv.URL).Edit(context.Background(), EditRequest{
			Prompt: "a friendly bear",
			Source: []byte("source"),
			Size:   domain.SizePortrait,
		})
		if err != nil {
			t.Fatalf("editに失敗しました: %v", err)
		}
		if string(got) != string(want) {
			t.Errorf("期待値 %q, 実際の値 %q", want, got)
		}
	})

	t.Run("バイナリ本文がそのまま返ること", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprint(w, "raw-binary-image")
		}))
		defer srv.Close()

		got, err := newTestClient(t, srv.URL).Edit(context.Background(), EditRequest{
			Prompt: "a friendly bear",
			Source: []byte("source"),
		})
		if err != nil {
			t.Fatalf("editに失敗しました: %v", err)
		}
		if string(got) != "raw-binary-image" {
			t.Errorf("バイナリ本文が一致しません: %q", got)
		}
	})

	t.Run("非成功ステータスが ProviderError になること", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Edit(context.Background(), EditRequest{
			Prompt: "x", Source: []byte("source"),
		})
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("ProviderError を期待しましたが %T でした", err)
		}
		if pe.StatusCode != http.StatusTooManyRequests {
			t.Errorf("期待値 429, 実際の値 %d", pe.StatusCode)
		}
	})

	t.Run("画像データ欠落が InvalidResponseError になること", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"data":[]}`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Edit(context.Background(), EditRequest{
			Prompt: "x", Source: []byte("source"),
		})
		var ire *InvalidResponseError
		if !errors.As(err, &ire) {
			t.Fatalf("InvalidResponseError を期待しましたが %T でした", err)
		}
	})

	t.Run("ソース画像なしの edit が拒否されること", func(t *testing.T) {
		_, err := newTestClient(t, "http://unused").Edit(context.Background(), EditRequest{Prompt: "x"})
		if err == nil {
			t.Error("ソース画像なしでエラーが発生しませんでした")
		}
	})
}

func TestClient_Generate(t *testing.T) {
	t.Run("URLのみの封筒で実体を取りに行くこと", func(t *testing.T) {
		want := "fetched-image-bytes"
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("リクエストのデコードに失敗しました: %v", err)
			}
			// auto は呼び出し前に正方形へ正規化される
			if payload["size"] != "1024x1024" {
				t.Errorf("size: 期待値 1024x1024, 実際の値 %v", payload["size"])
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]string{{"url": srv.URL + "/download"}},
			})
		})
		mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, want)
		})

		got, err := newTestClient(t, srv.URL).Generate(context.Background(), GenerateRequest{
			Prompt: "a cozy cottage",
			Size:   domain.SizeAuto,
		})
		if err != nil {
			t.Fatalf("generateに失敗しました: %v", err)
		}
		if string(got) != want {
			t.Errorf("期待値 %q, 実際の値 %q", want, got)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("APIキーなしで初期化が失敗すること", func(t *testing.T) {
		if _, err := New(http.DefaultClient, Config{}); err == nil {
			t.Error("APIキーなしでエラーが発生しませんでした")
		}
	})
}
