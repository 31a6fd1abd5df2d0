package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/model"
)

func TestQuestionServiceGenerate(t *testing.T) {
	t.Parallel()

	reply := `Here is your assessment:
` + "```json" + `
{
  "questions": [
    {"question": "What is a goroutine?", "type": "multiple-choice", "options": ["a", "b", "c", "d"], "correctAnswer": "A"},
    {"question": "Pick the stable sort", "type": "multiple-choice", "options": ["quick", "merge", "heap", "shell"], "correctAnswer": "B"}
  ],
  "expectedTime": 25
}
` + "```"

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, reply)
	})
	svc := NewQuestionService(client, zerolog.Nop())

	set, err := svc.Generate(context.Background(), "Backend Engineer", model.RoundOA, 20, "Medium")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(set.Questions))
	}
	if set.TimeLimitMinutes != 25 {
		t.Errorf("expected time limit from model, got %d", set.TimeLimitMinutes)
	}
}

func TestQuestionServiceInterviewCountDerivation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		round model.RoundType
		param int
		want  string
	}{
		{model.RoundTech1, 30, "Generate 10 core technical questions"}, // 30 min / 3
		{model.RoundBehavioral, 20, "Generate 10 behavioral questions"}, // 20 min / 2
		{model.RoundTech2, 6, "Generate 3 Medium Level questions"},      // floored to the minimum of 3
	}
	for _, c := range cases {
		var prompt string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			prompt = promptFrom(t, r)
			geminiReply(t, w, `{"questions": [{"question": "q"}], "expectedTime": 10}`)
		})
		svc := NewQuestionService(client, zerolog.Nop())

		if _, err := svc.Generate(context.Background(), "SRE", c.round, c.param, "Medium"); err != nil {
			t.Fatalf("%s: generate: %v", c.round, err)
		}
		if !strings.Contains(prompt, c.want) {
			t.Errorf("%s param=%d: prompt missing %q", c.round, c.param, c.want)
		}
	}
}

func TestQuestionServiceBareArrayFallback(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, `[{"question": "Tell me about yourself and your background."}]`)
	})
	svc := NewQuestionService(client, zerolog.Nop())

	set, err := svc.Generate(context.Background(), "PM", model.RoundBehavioral, 20, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(set.Questions) != 1 {
		t.Fatalf("expected 1 question from bare array, got %d", len(set.Questions))
	}
	// Missing kind defaults to technical outside the OA round.
	if set.Questions[0].Kind != model.QuestionKindTechnical {
		t.Errorf("expected defaulted kind, got %q", set.Questions[0].Kind)
	}
	// Missing expectedTime falls back to the requested duration.
	if set.TimeLimitMinutes != 20 {
		t.Errorf("expected fallback time limit 20, got %d", set.TimeLimitMinutes)
	}
}

func TestQuestionServiceFallbackTimeMinimum(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, `{"questions": [{"question": "Describe a conflict you resolved."}]}`)
	})
	svc := NewQuestionService(client, zerolog.Nop())

	set, err := svc.Generate(context.Background(), "PM", model.RoundBehavioral, 5, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// A short requested duration never produces a session under 20 minutes.
	if set.TimeLimitMinutes != 20 {
		t.Errorf("expected 20-minute floor, got %d", set.TimeLimitMinutes)
	}
}

func TestQuestionServiceKindDefaultsForOA(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, `{"questions": [{"question": "2+2?", "options": ["3","4","5","6"], "correctAnswer": "B"}], "expectedTime": 5}`)
	})
	svc := NewQuestionService(client, zerolog.Nop())

	set, err := svc.Generate(context.Background(), "QA", model.RoundOA, 10, "Easy")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if set.Questions[0].Kind != model.QuestionKindMultipleChoice {
		t.Errorf("expected multiple-choice default for OA, got %q", set.Questions[0].Kind)
	}
}

func TestQuestionServiceMalformedOutput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, "I am unable to produce questions right now.")
	})
	svc := NewQuestionService(client, zerolog.Nop())

	_, err := svc.Generate(context.Background(), "Dev", model.RoundOA, 10, "Medium")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestQuestionServiceTransportFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc := NewQuestionService(client, zerolog.Nop())

	_, err := svc.Generate(context.Background(), "Dev", model.RoundOA, 10, "Medium")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}
