package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/config"
)

// newTestClient points a Client at a fake Gemini endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		GeminiAPIKey:  "test-key",
		GeminiBaseURL: srv.URL,
		GeminiModel:   "gemini-test",
		GeminiTimeout: 5 * time.Second,
	}
	return NewClient(cfg, zerolog.Nop())
}

// geminiReply wraps text in the Gemini candidate envelope.
func geminiReply(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	body := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode reply: %v", err)
	}
}

// promptFrom decodes the request and returns the first text part.
func promptFrom(t *testing.T, r *http.Request) string {
	t.Helper()
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(req.Contents) == 0 || len(req.Contents[0].Parts) == 0 {
		t.Fatal("request carried no parts")
	}
	return req.Contents[0].Parts[0].Text
}

func TestClientGenerateText(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("expected api key in query, got %q", got)
		}
		geminiReply(t, w, "hello from the model")
	})

	text, err := client.GenerateText(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "hello from the model" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestClientNon200IsTransportError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded"}}`))
	})

	_, err := client.GenerateText(context.Background(), "anything")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestClientEmptyCandidatesIsTransportError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	_, err := client.GenerateText(context.Background(), "anything")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestClientGenerateWithImagesCarriesInlineData(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 3 {
			t.Fatalf("expected prompt plus two images, got %d parts", len(parts))
		}
		if parts[1].InlineData == nil || parts[1].InlineData.Data != "img-a" {
			t.Errorf("first image missing or wrong: %+v", parts[1].InlineData)
		}
		if parts[2].InlineData == nil || parts[2].InlineData.MimeType != "image/jpeg" {
			t.Errorf("second image missing mime type: %+v", parts[2].InlineData)
		}
		geminiReply(t, w, "ok")
	})

	if _, err := client.GenerateWithImages(context.Background(), "compare", "img-a", "img-b"); err != nil {
		t.Fatalf("generate with images: %v", err)
	}
}
