package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates terminal session outcomes.
type AttemptStatus string

const (
	AttemptStatusCompleted    AttemptStatus = "completed"
	AttemptStatusDisqualified AttemptStatus = "disqualified"
)

// TestAttempt is the persisted result of a finished session. Created exactly
// once at finalization and never updated.
type TestAttempt struct {
	ID                     uuid.UUID     `json:"id"`
	CandidateID            int           `json:"candidate_id"`
	JobRole                string        `json:"job_role"`
	RoundType              RoundType     `json:"round_type"`
	Status                 AttemptStatus `json:"status"`
	Score                  int           `json:"score"`
	PerQuestionScores      []int         `json:"per_question_scores,omitempty"`
	Feedback               string        `json:"feedback"`
	DisqualificationReason string        `json:"disqualification_reason,omitempty"`
	WarningCount           int           `json:"warning_count"`
	Questions              []Question    `json:"questions"`
	Answers                []string      `json:"answers"`
	StartedAt              time.Time     `json:"started_at"`
	FinishedAt             time.Time     `json:"finished_at"`
	CreatedAt              time.Time     `json:"created_at"`
}

// Candidate is the account a session and its attempts belong to.
type Candidate struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for candidate login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// CreateSessionRequest is the payload for starting a new prep session.
type CreateSessionRequest struct {
	JobRole    string `json:"job_role" binding:"required,min=2,max=100"`
	RoundType  string `json:"round_type" binding:"required,oneof=oa tech1 tech2 behavioral hr"`
	Param      int    `json:"param" binding:"omitempty,min=1,max=120"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
}

// SnapshotRequest carries the baseline face image captured during setup.
type SnapshotRequest struct {
	ImageB64 string `json:"image_b64" binding:"required"`
}

// StartSessionRequest is the payload for the rules-acceptance transition.
type StartSessionRequest struct {
	ScreenShareAcquired bool `json:"screen_share_acquired"`
	FullscreenEntered   bool `json:"fullscreen_entered"`
}

// AnswerRequest writes an answer slot.
type AnswerRequest struct {
	Index int    `json:"index" binding:"min=0"`
	Value string `json:"value"`
}

// RunCodeRequest asks the code-runner collaborator to simulate execution.
type RunCodeRequest struct {
	Index    int    `json:"index" binding:"min=0"`
	Code     string `json:"code"`
	Language string `json:"language" binding:"omitempty,oneof=javascript python java cpp c html css sql"`
}

// JumpRequest moves the cursor to an arbitrary question (objective rounds only).
type JumpRequest struct {
	Index int `json:"index" binding:"min=0"`
}
