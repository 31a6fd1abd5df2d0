package session

import (
	"errors"
	"testing"

	"github.com/instaprep/instaprep-backend/internal/model"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{Text: "Pick A", Kind: model.QuestionKindMultipleChoice, Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "A"},
		{Text: "Explain channels", Kind: model.QuestionKindTechnical},
		{Text: "Reverse a list", Kind: model.QuestionKindCoding},
	}
}

func TestQuestionSetSequentialAdvance(t *testing.T) {
	t.Parallel()

	qs := NewQuestionSet(sampleQuestions(), false)
	if qs.Index() != 0 {
		t.Fatalf("expected cursor at 0, got %d", qs.Index())
	}
	if !qs.Advance() {
		t.Fatal("expected advance from 0 to succeed")
	}
	if !qs.Advance() {
		t.Fatal("expected advance from 1 to succeed")
	}
	if qs.Advance() {
		t.Error("advance past the last question must return false")
	}
	if qs.Index() != 2 {
		t.Errorf("expected cursor at 2, got %d", qs.Index())
	}
}

func TestQuestionSetJumpOnlyWithFreeNavigation(t *testing.T) {
	t.Parallel()

	sequential := NewQuestionSet(sampleQuestions(), false)
	if err := sequential.JumpTo(2); !errors.Is(err, ErrNavigationDenied) {
		t.Errorf("expected ErrNavigationDenied, got %v", err)
	}

	free := NewQuestionSet(sampleQuestions(), true)
	if err := free.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if free.Index() != 2 {
		t.Errorf("expected cursor at 2, got %d", free.Index())
	}
	if err := free.JumpTo(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestQuestionSetVisitedTracksCursor(t *testing.T) {
	t.Parallel()

	qs := NewQuestionSet(sampleQuestions(), true)
	if !qs.Visited(0) {
		t.Error("the first question starts visited")
	}
	if qs.Visited(1) || qs.Visited(2) {
		t.Error("unvisited questions must not be marked")
	}

	if err := qs.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if !qs.Visited(2) {
		t.Error("jump target must be marked visited")
	}

	// Visiting is independent of answering.
	if qs.Answered(2) {
		t.Error("visiting must not mark a question answered")
	}

	want := []bool{true, false, true}
	got := qs.VisitedList()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visited[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestQuestionSetCodingNeedsExplicitSubmit(t *testing.T) {
	t.Parallel()

	qs := NewQuestionSet(sampleQuestions(), false)

	// A draft in the editor does not count.
	if err := qs.Answer(2, "def reverse(xs): ..."); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if qs.Answered(2) {
		t.Error("coding question must not count as answered before submit")
	}

	if err := qs.SubmitCode(2, "def reverse(xs): return xs[::-1]"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !qs.Answered(2) {
		t.Error("coding question must count as answered after submit")
	}

	// Non-coding questions count as soon as the slot is non-empty.
	if err := qs.Answer(1, "Channels synchronize goroutines"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !qs.Answered(1) {
		t.Error("technical question with an answer must count")
	}
	if qs.AnsweredCount() != 2 {
		t.Errorf("expected 2 answered, got %d", qs.AnsweredCount())
	}
}

func TestQuestionSetAnswersReturnsCopy(t *testing.T) {
	t.Parallel()

	qs := NewQuestionSet(sampleQuestions(), false)
	if err := qs.Answer(0, "A"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	got := qs.Answers()
	got[0] = "tampered"
	if fresh := qs.Answers(); fresh[0] != "A" {
		t.Errorf("Answers must return a copy, internal slot became %q", fresh[0])
	}
}

func TestQuestionSetRecordingNeverMovesCursor(t *testing.T) {
	t.Parallel()

	qs := NewQuestionSet(sampleQuestions(), true)
	if err := qs.Answer(1, "x"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if qs.Index() != 0 {
		t.Errorf("recording an answer moved the cursor to %d", qs.Index())
	}
}
