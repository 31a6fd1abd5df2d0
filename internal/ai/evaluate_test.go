package ai

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/model"
)

func evalQuestions() []model.Question {
	return []model.Question{
		{Text: "What is a mutex?", Kind: model.QuestionKindTechnical, ExpectedTopics: []string{"locking", "contention"}},
		{Text: "Reverse a string", Kind: model.QuestionKindCoding},
	}
}

func TestEvaluationServiceHappyPath(t *testing.T) {
	t.Parallel()

	var prompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		prompt = promptFrom(t, r)
		geminiReply(t, w, `{"feedback": "Strong fundamentals, weak on edge cases.", "score": 72}`)
	})
	svc := NewEvaluationService(client, zerolog.Nop())

	eval := svc.Evaluate(context.Background(), "Backend Engineer", model.RoundTech1, evalQuestions(), []string{"A lock", ""})
	if eval.Score != 72 {
		t.Errorf("expected score 72, got %d", eval.Score)
	}
	if eval.Feedback == "" {
		t.Error("expected feedback text")
	}

	// The prompt carries the expected-topics fallback and marks skips.
	if !strings.Contains(prompt, "locking, contention") {
		t.Error("prompt missing expected-topics fallback for the technical question")
	}
	if !strings.Contains(prompt, "Code Solution") {
		t.Error("prompt missing code-solution fallback for the coding question")
	}
	if !strings.Contains(prompt, "Skipped") {
		t.Error("prompt must mark unanswered questions as skipped")
	}
}

func TestEvaluationServiceDegradesOnTransportFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	svc := NewEvaluationService(client, zerolog.Nop())

	eval := svc.Evaluate(context.Background(), "Dev", model.RoundHR, evalQuestions(), nil)
	if eval.Feedback != DegradedFeedback {
		t.Errorf("expected degraded feedback, got %q", eval.Feedback)
	}
	if eval.Score != 0 {
		t.Errorf("degraded evaluation must score 0, got %d", eval.Score)
	}
}

func TestEvaluationServiceKeepsRawProse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, "  The candidate did reasonably well overall.  ")
	})
	svc := NewEvaluationService(client, zerolog.Nop())

	eval := svc.Evaluate(context.Background(), "Dev", model.RoundBehavioral, evalQuestions(), nil)
	if eval.Feedback != "The candidate did reasonably well overall." {
		t.Errorf("expected trimmed raw prose as feedback, got %q", eval.Feedback)
	}
	if eval.Score != 0 {
		t.Errorf("unparseable evaluation must score 0, got %d", eval.Score)
	}
}

func TestEvaluationServiceClampsScore(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, `{"feedback": "x", "score": 250}`)
	})
	svc := NewEvaluationService(client, zerolog.Nop())

	eval := svc.Evaluate(context.Background(), "Dev", model.RoundTech2, evalQuestions(), nil)
	if eval.Score != 100 {
		t.Errorf("expected score clamped to 100, got %d", eval.Score)
	}
}
