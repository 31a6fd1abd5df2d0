package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse means the model's output contained no parseable JSON
// payload. Surfaced to the user as a blocking, manually-retryable error.
var ErrMalformedResponse = errors.New("malformed AI response")

// ExtractJSON pulls the first JSON payload out of free-form model output and
// unmarshals it into dst. Models routinely wrap JSON in prose or markdown
// fences, so this works through a fallback ladder:
//
//  1. strip ```json fences
//  2. locate the span from the first '{' or '[' to the last '}' or ']'
//  3. parse that span
//
// Any failure is reported as ErrMalformedResponse, never a panic.
func ExtractJSON(text string, dst interface{}) error {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := spanStart(cleaned)
	end := spanEnd(cleaned)
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("%w: no JSON found in output", ErrMalformedResponse)
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// spanStart finds the earlier of the first '{' and the first '['.
func spanStart(s string) int {
	brace := strings.IndexByte(s, '{')
	bracket := strings.IndexByte(s, '[')
	if bracket != -1 && (brace == -1 || bracket < brace) {
		return bracket
	}
	return brace
}

// spanEnd finds the later of the last '}' and the last ']'.
func spanEnd(s string) int {
	brace := strings.LastIndexByte(s, '}')
	bracket := strings.LastIndexByte(s, ']')
	if bracket > brace {
		return bracket
	}
	return brace
}
