package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/config"
	"github.com/instaprep/instaprep-backend/internal/model"
	"github.com/instaprep/instaprep-backend/internal/repository"
)

const (
	ResultPollTimeout = 1 * time.Second
	ResultRetryDelay  = 5 * time.Second
)

// ResultWorker retries attempt inserts that failed at finalization time.
// The candidate already saw their score from memory; this closes the gap so
// the result also lands in history.
type ResultWorker struct {
	attempts *repository.AttemptRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

func NewResultWorker(attempts *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		attempts: attempts,
		rdb:      rdb,
		log:      log.With().Str("component", "result_worker").Logger(),
	}
}

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.RetryAttemptsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var attempt model.TestAttempt
		if err := json.Unmarshal([]byte(result[1]), &attempt); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed attempt")
			continue
		}

		if err := w.attempts.Insert(ctx, attempt); err != nil {
			w.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Retry insert failed, requeueing")
			raw, _ := json.Marshal(attempt)
			if err := w.rdb.RPush(ctx, config.WorkerKey.RetryAttemptsQueue, raw).Err(); err != nil {
				w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue attempt. Result lost.")
			}
			// Back off; the database is likely still down.
			select {
			case <-ctx.Done():
				return
			case <-time.After(ResultRetryDelay):
			}
			continue
		}

		// The history cache may hold a listing without this attempt.
		w.rdb.Del(ctx, config.CacheKey.CandidateHistoryKey(attempt.CandidateID))
		w.log.Info().Str("attempt_id", attempt.ID.String()).Msg("Attempt recovered")
	}
}
