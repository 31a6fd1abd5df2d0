package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/ai"
	"github.com/instaprep/instaprep-backend/internal/model"
)

type fakeEvaluator struct {
	eval ai.Evaluation
}

func (f fakeEvaluator) Evaluate(_ context.Context, _ string, _ model.RoundType, _ []model.Question, _ []string) ai.Evaluation {
	return f.eval
}

type fakeStore struct {
	mu       sync.Mutex
	attempts []model.TestAttempt
	err      error
}

func (s *fakeStore) Insert(_ context.Context, attempt model.TestAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func (s *fakeStore) last() model.TestAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[len(s.attempts)-1]
}

type fakeMatcher struct{}

func (fakeMatcher) Compare(_ context.Context, _, _ string) ai.MatchResult {
	return ai.MatchResult{Match: true}
}

type fakeNotifier struct {
	mu        sync.Mutex
	warnings  []int
	expired   int
	finalized int
}

func (n *fakeNotifier) Warning(_ string, count, _ int, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, count)
}

func (n *fakeNotifier) Expired(string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired++
}

func (n *fakeNotifier) Finalized(string, model.TestAttempt) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finalized++
}

func (n *fakeNotifier) finalizedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.finalized
}

func newTestEngine(t *testing.T, round model.RoundType, threshold int) (*Engine, *fakeStore, *fakeNotifier) {
	t.Helper()
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	log := zerolog.Nop()
	coord := NewCoordinator(fakeEvaluator{eval: ai.Evaluation{Feedback: "solid", Score: 80}}, store, log)
	eng := NewEngine("sess-1", 7, "Backend Engineer", round, coord, fakeMatcher{}, notifier, nil, Config{
		WarningThreshold:  threshold,
		FaceCheckInterval: time.Hour, // keep the proctor quiet in tests
	}, log)
	return eng, store, notifier
}

func activate(t *testing.T, eng *Engine, questions []model.Question) {
	t.Helper()
	if err := eng.CaptureBaseline("img-base64"); err != nil {
		t.Fatalf("capture baseline: %v", err)
	}
	eng.SetGeneratedSet(ai.GeneratedSet{Questions: questions, TimeLimitMinutes: 30})
	if err := eng.StartActive(true, true); err != nil {
		t.Fatalf("start active: %v", err)
	}
}

func waitForResult(t *testing.T, eng *Engine) model.TestAttempt {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if r := eng.Result(); r != nil {
			return *r
		}
		select {
		case <-deadline:
			t.Fatal("finalization never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEngineSetupOrderEnforced(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t, model.RoundTech1, 10)

	// Rules acceptance before the baseline snapshot is rejected.
	eng.SetGeneratedSet(ai.GeneratedSet{Questions: sampleQuestions(), TimeLimitMinutes: 10})
	if err := eng.StartActive(true, true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before baseline, got %v", err)
	}

	if err := eng.CaptureBaseline(""); !errors.Is(err, ErrBaselineRequired) {
		t.Errorf("expected ErrBaselineRequired for empty snapshot, got %v", err)
	}
}

func TestEngineStartRequiresGeneratedPaper(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t, model.RoundOA, 10)
	if err := eng.CaptureBaseline("img"); err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if err := eng.StartActive(false, false); !errors.Is(err, ErrGenerationPending) {
		t.Errorf("expected ErrGenerationPending, got %v", err)
	}

	eng.SetGenerationError(errors.New("upstream down"))
	if err := eng.StartActive(false, false); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestEngineScreenShareMandatoryForInterviews(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t, model.RoundBehavioral, 10)
	if err := eng.CaptureBaseline("img"); err != nil {
		t.Fatalf("baseline: %v", err)
	}
	eng.SetGeneratedSet(ai.GeneratedSet{Questions: sampleQuestions(), TimeLimitMinutes: 10})

	if err := eng.StartActive(false, true); !errors.Is(err, ErrScreenShareNeeded) {
		t.Errorf("expected ErrScreenShareNeeded, got %v", err)
	}
	// Fullscreen is best-effort; its absence does not block activation.
	if err := eng.StartActive(true, false); err != nil {
		t.Errorf("activation without fullscreen should succeed, got %v", err)
	}
}

func TestEngineWarningsDisqualifyExactlyOnce(t *testing.T) {
	t.Parallel()

	eng, store, notifier := newTestEngine(t, model.RoundTech1, 3)
	activate(t, eng, sampleQuestions())

	for i := 0; i < 6; i++ {
		eng.ReportFocusLost("tab switched")
	}

	attempt := waitForResult(t, eng)
	if attempt.Status != model.AttemptStatusDisqualified {
		t.Errorf("expected disqualified, got %q", attempt.Status)
	}
	if attempt.DisqualificationReason == "" {
		t.Error("expected a disqualification reason")
	}
	// Disqualification zeroes the score but keeps the evaluator's feedback.
	if attempt.Score != 0 {
		t.Errorf("disqualified attempt must score 0, got %d", attempt.Score)
	}
	if attempt.Feedback != "solid" {
		t.Errorf("expected feedback kept on disqualification, got %q", attempt.Feedback)
	}
	if store.count() != 1 {
		t.Errorf("expected exactly one persisted attempt, got %d", store.count())
	}
	if eng.State().Phase != PhaseTerminated {
		t.Errorf("expected terminated phase, got %q", eng.State().Phase)
	}
	if notifier.finalizedCount() != 1 {
		t.Errorf("expected one finalized notification, got %d", notifier.finalizedCount())
	}
}

func TestEngineManualFinishCompletes(t *testing.T) {
	t.Parallel()

	eng, store, _ := newTestEngine(t, model.RoundHR, 10)
	activate(t, eng, sampleQuestions())

	if err := eng.Answer(0, "A"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	eng.Finish()

	attempt := waitForResult(t, eng)
	if attempt.Status != model.AttemptStatusCompleted {
		t.Errorf("expected completed, got %q", attempt.Status)
	}
	if attempt.Score != 80 {
		t.Errorf("interview score comes from evaluation, expected 80, got %d", attempt.Score)
	}
	if attempt.Feedback != "solid" {
		t.Errorf("unexpected feedback %q", attempt.Feedback)
	}
	if len(attempt.Answers) == 0 || attempt.Answers[0] != "A" {
		t.Errorf("expected recorded answers in attempt, got %v", attempt.Answers)
	}
	if store.count() != 1 {
		t.Errorf("expected one persisted attempt, got %d", store.count())
	}
}

func TestEngineObjectiveRoundScoredLocally(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t, model.RoundOA, 10)
	questions := []model.Question{
		mc("A", "w", "x", "y", "z"),
		mc("B", "w", "x", "y", "z"),
	}
	activate(t, eng, questions)

	if err := eng.Answer(0, "A"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := eng.Answer(1, "C"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	eng.Finish()

	attempt := waitForResult(t, eng)
	// The evaluation fake says 80, but objective rounds trust the local grade.
	if attempt.Score != 50 {
		t.Errorf("expected locally computed 50, got %d", attempt.Score)
	}
	if attempt.Feedback != "solid" {
		t.Errorf("feedback still comes from evaluation, got %q", attempt.Feedback)
	}
}

func TestEngineRejectsInputAfterTermination(t *testing.T) {
	t.Parallel()

	eng, store, _ := newTestEngine(t, model.RoundTech2, 10)
	activate(t, eng, sampleQuestions())
	eng.Finish()
	waitForResult(t, eng)

	if err := eng.Answer(0, "late"); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive for late answer, got %v", err)
	}
	if _, err := eng.AdvanceQuestion(); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive for late advance, got %v", err)
	}

	// Late detector signals change nothing.
	eng.ReportFocusLost("late blur")
	eng.Finish()
	time.Sleep(20 * time.Millisecond)
	if store.count() != 1 {
		t.Errorf("late signals must not produce more attempts, got %d", store.count())
	}
	if eng.State().WarningCount != 0 {
		t.Errorf("late warnings must not be recorded, got %d", eng.State().WarningCount)
	}
}

func TestEnginePaperIsSanitized(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t, model.RoundOA, 10)
	questions := []model.Question{mc("A", "w", "x", "y", "z")}
	questions[0].Explanation = "because w"
	activate(t, eng, questions)

	paper, err := eng.Paper()
	if err != nil {
		t.Fatalf("paper: %v", err)
	}
	if len(paper) != 1 {
		t.Fatalf("expected 1 question, got %d", len(paper))
	}
}

func TestEngineStateSnapshot(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t, model.RoundOA, 10)
	s := eng.State()
	if s.Phase != PhaseSetupCamera || s.GenerationReady {
		t.Errorf("unexpected initial state %+v", s)
	}

	activate(t, eng, sampleQuestions())
	if err := eng.Answer(0, "A"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	s = eng.State()
	if s.Phase != PhaseActive {
		t.Errorf("expected active, got %q", s.Phase)
	}
	if s.QuestionTotal != 3 || s.AnsweredCount != 1 {
		t.Errorf("unexpected progress %d/%d answered=%d", s.QuestionIndex, s.QuestionTotal, s.AnsweredCount)
	}
	if s.RemainingSeconds == 0 {
		t.Error("expected a running countdown in the snapshot")
	}
}
