package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/instaprep/instaprep-backend/internal/model"
)

// AttemptRepository persists finished test attempts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Insert writes a finished attempt. Attempts are append-only; there is no
// update path.
func (r *AttemptRepository) Insert(ctx context.Context, a model.TestAttempt) error {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	var perQuestion []byte
	if a.PerQuestionScores != nil {
		if perQuestion, err = json.Marshal(a.PerQuestionScores); err != nil {
			return fmt.Errorf("marshal per-question scores: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO test_attempts
		 (id, candidate_id, job_role, round_type, status, score, per_question_scores,
		  feedback, disqualification_reason, warning_count, questions, answers,
		  started_at, finished_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.CandidateID, a.JobRole, a.RoundType, a.Status, a.Score, perQuestion,
		a.Feedback, a.DisqualificationReason, a.WarningCount, questions, answers,
		a.StartedAt, a.FinishedAt, a.CreatedAt,
	)
	return err
}

// ListByCandidate returns a candidate's attempts, newest first. The heavy
// question/answer payloads stay out of the listing.
func (r *AttemptRepository) ListByCandidate(ctx context.Context, candidateID int, limit int) ([]model.TestAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, candidate_id, job_role, round_type, status, score, feedback,
		        disqualification_reason, warning_count, started_at, finished_at, created_at
		 FROM test_attempts
		 WHERE candidate_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, candidateID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.TestAttempt
	for rows.Next() {
		var a model.TestAttempt
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.JobRole, &a.RoundType, &a.Status,
			&a.Score, &a.Feedback, &a.DisqualificationReason, &a.WarningCount,
			&a.StartedAt, &a.FinishedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// GetByID returns one attempt with its full question and answer payloads.
func (r *AttemptRepository) GetByID(ctx context.Context, id string, candidateID int) (*model.TestAttempt, error) {
	a := &model.TestAttempt{}
	var questions, answers, perQuestion []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, job_role, round_type, status, score, per_question_scores,
		        feedback, disqualification_reason, warning_count, questions, answers,
		        started_at, finished_at, created_at
		 FROM test_attempts
		 WHERE id = $1 AND candidate_id = $2`, id, candidateID,
	).Scan(&a.ID, &a.CandidateID, &a.JobRole, &a.RoundType, &a.Status, &a.Score, &perQuestion,
		&a.Feedback, &a.DisqualificationReason, &a.WarningCount, &questions, &answers,
		&a.StartedAt, &a.FinishedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &a.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	if len(perQuestion) > 0 {
		if err := json.Unmarshal(perQuestion, &a.PerQuestionScores); err != nil {
			return nil, fmt.Errorf("unmarshal per-question scores: %w", err)
		}
	}
	return a, nil
}
