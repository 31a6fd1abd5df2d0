package ai

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/model"
)

func codingQuestion() model.Question {
	return model.Question{
		Text:        "Return the sum of two integers",
		Kind:        model.QuestionKindCoding,
		TestCases:   []model.TestCase{{Input: "1 2", Output: "3"}},
		Constraints: "O(1)",
	}
}

func TestCodeRunnerBlankCodeFailsFast(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("blank code must not reach the network")
	})
	runner := NewCodeRunner(client, zerolog.Nop())

	result := runner.Run(context.Background(), "   \n\t", "python", codingQuestion())
	if result.Passed {
		t.Error("blank code must not pass")
	}
	if result.Error != "No code provided" {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestCodeRunnerHappyPath(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		prompt := promptFrom(t, r)
		if !strings.Contains(prompt, "def add") {
			t.Error("prompt missing candidate code")
		}
		if !strings.Contains(prompt, `"input":"1 2"`) {
			t.Error("prompt missing serialized test cases")
		}
		geminiReply(t, w, `{"passed": true, "output": "Test Case 1: Passed"}`)
	})
	runner := NewCodeRunner(client, zerolog.Nop())

	result := runner.Run(context.Background(), "def add(a, b): return a + b", "python", codingQuestion())
	if !result.Passed {
		t.Errorf("expected pass, got %+v", result)
	}
}

func TestCodeRunnerServiceUnavailable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	runner := NewCodeRunner(client, zerolog.Nop())

	result := runner.Run(context.Background(), "code", "javascript", codingQuestion())
	if result.Passed {
		t.Error("transport failure must not pass")
	}
	if result.Error != "Compiler Service Unavailable" {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestCodeRunnerUnparseableKeepsRawOutput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, "Your code looks fine to me.")
	})
	runner := NewCodeRunner(client, zerolog.Nop())

	result := runner.Run(context.Background(), "code", "", codingQuestion())
	if result.Passed {
		t.Error("unparseable verdict must not pass")
	}
	if !strings.HasPrefix(result.Output, "Raw Output: ") {
		t.Errorf("expected raw output preserved, got %q", result.Output)
	}
}
