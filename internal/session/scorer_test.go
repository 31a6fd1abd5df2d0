package session

import (
	"testing"

	"github.com/instaprep/instaprep-backend/internal/model"
)

func mc(correct string, options ...string) model.Question {
	return model.Question{
		Kind:          model.QuestionKindMultipleChoice,
		Options:       options,
		CorrectAnswer: correct,
	}
}

func TestCorrectLetterFormats(t *testing.T) {
	t.Parallel()

	options := []string{"Paris", "London", "Berlin", "Madrid"}
	cases := []struct {
		in   string
		want string
	}{
		{"A", "A"},
		{"b", "B"},
		{"C.", "C"},
		{"D)", "D"},
		{"Option A", "A"},
		{"option b.", "B"},
		{"Berlin", "C"},   // full option text maps back by position
		{" london ", "B"}, // whitespace and case insensitive
		{"E", ""},
		{"Rome", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := correctLetter(c.in, options); got != c.want {
			t.Errorf("correctLetter(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScoreObjectiveToleratesKeyDrift(t *testing.T) {
	t.Parallel()

	questions := []model.Question{
		mc("Option B", "red", "green", "blue", "yellow"),
		mc("green", "red", "green", "blue", "yellow"),
		mc("C)", "red", "green", "blue", "yellow"),
	}
	// The candidate answers in yet other formats.
	answers := []string{"B.", "b", "blue"}

	score, perQuestion := ScoreObjective(questions, answers)
	if score != 100 {
		t.Errorf("expected 100, got %d", score)
	}
	for i, ok := range perQuestion {
		if !ok {
			t.Errorf("question %d marked wrong despite equivalent answer", i)
		}
	}
}

func TestScoreObjectiveRounding(t *testing.T) {
	t.Parallel()

	questions := []model.Question{
		mc("A", "x", "y"),
		mc("A", "x", "y"),
		mc("A", "x", "y"),
	}
	answers := []string{"A", "A", "B"}

	score, perQuestion := ScoreObjective(questions, answers)
	if score != 67 {
		t.Errorf("expected 67 (2/3 rounded), got %d", score)
	}
	if !perQuestion[0] || !perQuestion[1] || perQuestion[2] {
		t.Errorf("unexpected per-question result %v", perQuestion)
	}
}

func TestScoreObjectiveSkippedAndMissingAnswers(t *testing.T) {
	t.Parallel()

	questions := []model.Question{
		mc("A", "x", "y"),
		mc("B", "x", "y"),
	}

	score, _ := ScoreObjective(questions, []string{"", "B"})
	if score != 50 {
		t.Errorf("expected 50 with one skipped, got %d", score)
	}

	// Shorter answer slice than questions must not panic.
	score, _ = ScoreObjective(questions, []string{"A"})
	if score != 50 {
		t.Errorf("expected 50 with truncated answers, got %d", score)
	}
}

func TestScoreObjectiveEmptyPaper(t *testing.T) {
	t.Parallel()

	score, perQuestion := ScoreObjective(nil, nil)
	if score != 0 || len(perQuestion) != 0 {
		t.Errorf("expected zero score on empty paper, got %d/%v", score, perQuestion)
	}
}

func TestScoreObjectiveBadKeyNeverMatchesEmptyAnswer(t *testing.T) {
	t.Parallel()

	// An answer key that resolves to no letter must not match a blank answer.
	questions := []model.Question{mc("not a real option", "x", "y")}
	score, perQuestion := ScoreObjective(questions, []string{""})
	if score != 0 || perQuestion[0] {
		t.Errorf("unresolvable key must score zero, got %d/%v", score, perQuestion)
	}
}
