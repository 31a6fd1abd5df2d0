package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// MatchResult is the identity-verification outcome for one proctoring check.
type MatchResult struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// FaceMatcher compares a live camera frame against the baseline snapshot.
// The session proctor depends on this interface so tests can substitute a
// fake for the network-backed implementation.
type FaceMatcher interface {
	Compare(ctx context.Context, baselineB64, currentB64 string) MatchResult
}

// FaceMatchService implements FaceMatcher via Gemini vision.
//
// Transport failures fail OPEN (match:true): a service outage must not
// disqualify a candidate. Mismatch verdicts from a healthy service still
// fail closed.
type FaceMatchService struct {
	client *Client
	log    zerolog.Logger
}

// NewFaceMatchService creates a FaceMatchService.
func NewFaceMatchService(client *Client, log zerolog.Logger) *FaceMatchService {
	return &FaceMatchService{
		client: client,
		log:    log.With().Str("component", "ai_facematch").Logger(),
	}
}

const faceMatchPrompt = `Compare the two photos. Image A is the registered candidate. Image B is a live proctoring frame.
Decide whether they show the SAME person.
If Image B is black, blurry, or has NO face, return match: false.

Response Format (JSON):
{
  "match": true/false,
  "confidence": 0.0-1.0,
  "error": "reason if match is false, else null"
}`

// Compare checks the live frame against the baseline. A missing image on
// either side fails fast without a network call.
func (s *FaceMatchService) Compare(ctx context.Context, baselineB64, currentB64 string) MatchResult {
	if strings.TrimSpace(baselineB64) == "" || strings.TrimSpace(currentB64) == "" {
		return MatchResult{Match: false, Error: "Missing image data"}
	}

	text, err := s.client.GenerateWithImages(ctx, faceMatchPrompt, stripDataURL(baselineB64), stripDataURL(currentB64))
	if err != nil {
		if errors.Is(err, ErrTransport) {
			s.log.Warn().Err(err).Msg("Face-match service unavailable, failing open")
			return MatchResult{Match: true, Confidence: 0, Error: "service unavailable"}
		}
		return MatchResult{Match: true, Confidence: 0, Error: err.Error()}
	}

	var result MatchResult
	if err := ExtractJSON(text, &result); err != nil {
		s.log.Warn().Err(err).Msg("Face-match response unparseable, failing open")
		return MatchResult{Match: true, Confidence: 0, Error: "unparseable verdict"}
	}
	return result
}

// stripDataURL removes a leading data-URL prefix ("data:image/jpeg;base64,")
// so browsers can send canvas output unmodified.
func stripDataURL(s string) string {
	if idx := strings.Index(s, ","); idx != -1 && strings.HasPrefix(s, "data:") {
		return s[idx+1:]
	}
	return s
}
