package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/ai"
	"github.com/instaprep/instaprep-backend/internal/config"
	"github.com/instaprep/instaprep-backend/internal/model"
	"github.com/instaprep/instaprep-backend/internal/repository"
	"github.com/instaprep/instaprep-backend/internal/session"
)

// Common session-service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another candidate")
	ErrSessionRunning  = errors.New("another session is already running")
)

// Notifier is the outbound push surface of the session service, implemented
// by the websocket hub.
type Notifier interface {
	Warning(sessionID string, count, threshold int, reason string)
	Expired(sessionID string)
	Finalized(sessionID string, attempt model.TestAttempt)
}

// SessionService owns the registry of live session engines: it creates them,
// runs question generation in the background, mirrors their state to Redis,
// and reacts to finalization.
type SessionService struct {
	cfg       *config.Config
	rdb       *redis.Client
	questions *ai.QuestionService
	matcher   ai.FaceMatcher
	attempts  *repository.AttemptRepository
	evaluator session.Evaluator
	notifier  Notifier
	log       zerolog.Logger

	mu      sync.RWMutex
	engines map[string]*session.Engine
}

// NewSessionService creates a SessionService and starts its janitor.
func NewSessionService(
	cfg *config.Config,
	rdb *redis.Client,
	questions *ai.QuestionService,
	evaluator session.Evaluator,
	matcher ai.FaceMatcher,
	attempts *repository.AttemptRepository,
	notifier Notifier,
	log zerolog.Logger,
) *SessionService {
	s := &SessionService{
		cfg:       cfg,
		rdb:       rdb,
		questions: questions,
		evaluator: evaluator,
		matcher:   matcher,
		attempts:  attempts,
		notifier:  notifier,
		log:       log.With().Str("component", "session_service").Logger(),
		engines:   make(map[string]*session.Engine),
	}
	go s.janitor()
	return s
}

// Create builds a new engine for the candidate and kicks off question
// generation in the background. At most one session per candidate runs at a
// time.
func (s *SessionService) Create(ctx context.Context, candidateID int, req model.CreateSessionRequest) (string, error) {
	round := model.RoundType(req.RoundType)
	if !round.Valid() {
		return "", errors.New("unknown round type")
	}

	activeKey := config.CacheKey.CandidateActiveSessionKey(candidateID)
	existing, err := s.rdb.Get(ctx, activeKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	if existing != "" {
		if eng := s.engine(existing); eng != nil && eng.State().Phase != session.PhaseTerminated {
			return "", ErrSessionRunning
		}
		// Stale key from a crashed or finished session.
		s.rdb.Del(ctx, activeKey)
	}

	id := uuid.New().String()
	coord := session.NewCoordinator(s.evaluator, s.resultStore(), s.log)
	eng := session.NewEngine(id, candidateID, req.JobRole, round, coord, s.matcher, s, s.sinkMalpractice, session.Config{
		WarningThreshold:  s.cfg.WarningThreshold,
		FaceCheckInterval: s.cfg.FaceCheckInterval,
	}, s.log)

	s.mu.Lock()
	s.engines[id] = eng
	s.mu.Unlock()

	if err := s.rdb.Set(ctx, activeKey, id, 6*time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to mark active session")
	}

	go s.generate(eng, req)

	s.log.Info().
		Str("session_id", id).
		Int("candidate_id", candidateID).
		Str("round", req.RoundType).
		Msg("Session created")
	return id, nil
}

// generate runs question generation and delivers the outcome to the engine.
func (s *SessionService) generate(eng *session.Engine, req model.CreateSessionRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	set, err := s.questions.Generate(ctx, req.JobRole, eng.Round(), req.Param, req.Difficulty)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", eng.ID()).Msg("Question generation failed")
		eng.SetGenerationError(err)
		return
	}
	eng.SetGeneratedSet(*set)
	s.MirrorState(context.Background(), eng)
}

// Engine returns the candidate's engine for the given session ID.
func (s *SessionService) Engine(sessionID string, candidateID int) (*session.Engine, error) {
	eng := s.engine(sessionID)
	if eng == nil {
		return nil, ErrSessionNotFound
	}
	if eng.CandidateID() != candidateID {
		return nil, ErrNotSessionOwner
	}
	return eng, nil
}

func (s *SessionService) engine(sessionID string) *session.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engines[sessionID]
}

// MirrorState writes the engine's snapshot and answers to Redis so a
// reconnecting client (or an operator) can inspect a live session without
// touching the engine.
func (s *SessionService) MirrorState(ctx context.Context, eng *session.Engine) {
	state := eng.State()
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.PrepSessionStateKey(eng.ID()), payload, 6*time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", eng.ID()).Msg("State mirror failed")
	}

	answers, err := eng.Answers()
	if err != nil {
		return
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.PrepSessionAnswersKey(eng.ID()), raw, 6*time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", eng.ID()).Msg("Answer mirror failed")
	}
}

// sinkMalpractice queues one warning for durable persistence. Non-blocking
// from the engine's perspective; the malpractice worker drains the queue.
func (s *SessionService) sinkMalpractice(sessionID string, candidateID int, kind session.EventKind, reason string, at time.Time) {
	payload, err := json.Marshal(malpracticePayload{
		SessionID:   sessionID,
		CandidateID: candidateID,
		Kind:        string(kind),
		Reason:      reason,
		Timestamp:   at.Unix(),
	})
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistMalpracticeQueue, payload).Err(); err != nil {
			s.log.Error().Err(err).Msg("Failed to queue malpractice event")
		}
	}()
}

// malpracticePayload is the queue wire format shared with the worker.
type malpracticePayload struct {
	SessionID   string `json:"session_id"`
	CandidateID int    `json:"candidate_id"`
	Kind        string `json:"kind"`
	Reason      string `json:"reason"`
	Timestamp   int64  `json:"timestamp"`
}

// ─── session.Notifier implementation ────────────────────────────────

// Warning forwards a warning push to the hub.
func (s *SessionService) Warning(sessionID string, count, threshold int, reason string) {
	s.notifier.Warning(sessionID, count, threshold, reason)
}

// Expired forwards the timer-expiry push to the hub.
func (s *SessionService) Expired(sessionID string) {
	s.notifier.Expired(sessionID)
}

// Finalized clears the candidate's active-session and history cache keys,
// then forwards the push.
func (s *SessionService) Finalized(sessionID string, attempt model.TestAttempt) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.rdb.Del(ctx,
		config.CacheKey.CandidateActiveSessionKey(attempt.CandidateID),
		config.CacheKey.CandidateHistoryKey(attempt.CandidateID),
		config.CacheKey.PrepSessionStateKey(sessionID),
		config.CacheKey.PrepSessionAnswersKey(sessionID),
	)
	if eng := s.engine(sessionID); eng != nil {
		s.MirrorState(ctx, eng)
	}

	s.notifier.Finalized(sessionID, attempt)
}

// resultStore wraps the attempt repository: a failed insert is queued for
// the retry worker so the result is never lost, then reported upward so the
// client can be told persistence is pending.
func (s *SessionService) resultStore() session.ResultStore {
	return &queueingStore{svc: s}
}

type queueingStore struct {
	svc *SessionService
}

func (q *queueingStore) Insert(ctx context.Context, attempt model.TestAttempt) error {
	err := q.svc.attempts.Insert(ctx, attempt)
	if err == nil {
		return nil
	}

	payload, merr := json.Marshal(attempt)
	if merr != nil {
		q.svc.log.Error().Err(merr).Msg("Cannot serialize attempt for retry queue")
		return err
	}
	if qerr := q.svc.rdb.RPush(ctx, config.WorkerKey.RetryAttemptsQueue, payload).Err(); qerr != nil {
		q.svc.log.Error().Err(qerr).Str("attempt_id", attempt.ID.String()).Msg("Retry enqueue failed, result at risk")
	} else {
		q.svc.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Insert failed, attempt queued for retry")
	}
	return err
}

// janitor drops terminated engines an hour after finalization so the
// registry does not grow without bound. Results live in Postgres by then.
func (s *SessionService) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	type deadline struct{ seen time.Time }
	terminated := make(map[string]deadline)

	for range ticker.C {
		s.mu.Lock()
		for id, eng := range s.engines {
			if eng.State().Phase != session.PhaseTerminated {
				delete(terminated, id)
				continue
			}
			d, ok := terminated[id]
			if !ok {
				terminated[id] = deadline{seen: time.Now()}
				continue
			}
			if time.Since(d.seen) > time.Hour {
				delete(s.engines, id)
				delete(terminated, id)
			}
		}
		s.mu.Unlock()
	}
}
