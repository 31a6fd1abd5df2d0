package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/instaprep/instaprep-backend/internal/config"
)

// ErrTransport wraps network-level and non-2xx failures talking to the
// generative service. Callers that must degrade instead of failing check for
// it with errors.Is.
var ErrTransport = errors.New("ai transport error")

// Client is a thin HTTP client for the Gemini generateContent endpoint.
// All higher-level services (question generation, evaluation, code running,
// face matching) share one client.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		apiKey:  cfg.GeminiAPIKey,
		baseURL: cfg.GeminiBaseURL,
		model:   cfg.GeminiModel,
		http:    &http.Client{Timeout: cfg.GeminiTimeout},
		log:     log.With().Str("component", "ai_client").Logger(),
	}
}

// ─── Wire types (Gemini REST shapes) ────────────────────────────────

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateText sends a single text prompt and returns the first candidate's
// text. Transport and API failures come back wrapped in ErrTransport.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

// GenerateWithImages sends a text prompt plus inline JPEG images. Used by the
// face-match service.
func (c *Client) GenerateWithImages(ctx context.Context, prompt string, imagesB64 ...string) (string, error) {
	parts := []part{{Text: prompt}}
	for _, img := range imagesB64 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/jpeg",
			Data:     img,
		}})
	}
	return c.generate(ctx, generateRequest{Contents: []content{{Parts: parts}}})
}

func (c *Client) generate(ctx context.Context, reqBody generateRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("Gemini returned non-200")
		// Try to extract a useful message from the error body.
		var er generateResponse
		if json.Unmarshal(body, &er) == nil && er.Error != nil {
			return "", fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, er.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrTransport, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrTransport)
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
