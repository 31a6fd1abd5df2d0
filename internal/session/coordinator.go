package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/ai"
	"github.com/instaprep/instaprep-backend/internal/model"
)

// Evaluator produces the subjective judgement for a finished paper.
type Evaluator interface {
	Evaluate(ctx context.Context, role string, round model.RoundType, questions []model.Question, answers []string) ai.Evaluation
}

// ResultStore persists finished attempts.
type ResultStore interface {
	Insert(ctx context.Context, attempt model.TestAttempt) error
}

// Outcome describes why a session is being finalized.
type Outcome struct {
	Status AttemptOutcome
	Reason string
}

// AttemptOutcome mirrors the terminal statuses an attempt can end with.
type AttemptOutcome = model.AttemptStatus

// Coordinator assembles and persists the single result record of a session.
// It runs at most once per session; the phase machine's finalize latch is
// claimed before the engine hands over here.
type Coordinator struct {
	evaluator Evaluator
	store     ResultStore
	log       zerolog.Logger
}

func NewCoordinator(evaluator Evaluator, store ResultStore, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		evaluator: evaluator,
		store:     store,
		log:       log.With().Str("component", "coordinator").Logger(),
	}
}

// Finalize grades the paper and writes the attempt. Objective rounds are
// scored locally and the AI only adds feedback prose; other rounds take
// score and feedback from the evaluation. Evaluation cannot fail, only
// degrade, so the attempt is always built. A store error is returned so the
// caller can queue the attempt for retry.
func (c *Coordinator) Finalize(ctx context.Context, attempt *model.TestAttempt, outcome Outcome, questions []model.Question, answers []string) error {
	attempt.ID = uuid.New()
	attempt.Status = outcome.Status
	attempt.DisqualificationReason = outcome.Reason
	attempt.Questions = questions
	attempt.Answers = answers
	attempt.FinishedAt = time.Now()
	attempt.CreatedAt = attempt.FinishedAt

	eval := c.evaluator.Evaluate(ctx, attempt.JobRole, attempt.RoundType, questions, answers)
	attempt.Feedback = eval.Feedback
	attempt.PerQuestionScores = eval.PerQuestionScores

	if attempt.RoundType.Objective() {
		score, _ := ScoreObjective(questions, answers)
		attempt.Score = score
	} else {
		attempt.Score = eval.Score
	}

	// A disqualified session keeps its feedback but never a score.
	if outcome.Status == model.AttemptStatusDisqualified {
		attempt.Score = 0
	}

	if err := c.store.Insert(ctx, *attempt); err != nil {
		c.log.Error().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to persist attempt")
		return err
	}
	c.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("status", string(attempt.Status)).
		Int("score", attempt.Score).
		Msg("Attempt persisted")
	return nil
}
