package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/config"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// MalpracticeWorker drains the malpractice queue into Postgres in batches.
// The engine only ever touches Redis, so a slow or down database never
// stalls warning accumulation.
type MalpracticeWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewMalpracticeWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *MalpracticeWorker {
	return &MalpracticeWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "malpractice_worker").Logger(),
	}
}

type malpracticePayload struct {
	SessionID   string `json:"session_id"`
	CandidateID int    `json:"candidate_id"`
	Kind        string `json:"kind"`
	Reason      string `json:"reason"`
	Timestamp   int64  `json:"timestamp"`
}

func (w *MalpracticeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("MalpracticeWorker started")

	buffer := make([]*malpracticePayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check flush conditions (time or size)
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Check context (graceful shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second and returns
		// immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistMalpracticeQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		// 4. Process data
		if len(result) < 2 {
			continue
		}

		var payload malpracticePayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *MalpracticeWorker) flushSafe(ctx context.Context, batch []*malpracticePayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *MalpracticeWorker) bulkInsert(ctx context.Context, batch []*malpracticePayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		rows = append(rows, []interface{}{
			p.SessionID, p.CandidateID, p.Kind, p.Reason, time.Unix(p.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"malpractice_events"},
		[]string{"session_id", "candidate_id", "kind", "reason", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *MalpracticeWorker) fallbackInsert(ctx context.Context, batch []*malpracticePayload) {
	requeueList := make([]*malpracticePayload, 0)

	for _, p := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO malpractice_events (session_id, candidate_id, kind, reason, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.SessionID, p.CandidateID, p.Kind, p.Reason, time.Unix(p.Timestamp, 0),
		)
		if err != nil {
			w.log.Error().Err(err).Int("candidate_id", p.CandidateID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *MalpracticeWorker) requeue(ctx context.Context, items []*malpracticePayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistMalpracticeQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down hard.
	time.Sleep(2 * time.Second)
}

func (w *MalpracticeWorker) shutdown(buffer []*malpracticePayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
