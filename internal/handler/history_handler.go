package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/config"
	"github.com/instaprep/instaprep-backend/internal/middleware"
	"github.com/instaprep/instaprep-backend/internal/model"
	"github.com/instaprep/instaprep-backend/internal/repository"
	"github.com/instaprep/instaprep-backend/internal/response"
)

const historyCacheTTL = 10 * time.Minute

// HistoryHandler serves a candidate's past attempts. Listings are cached in
// Redis and invalidated whenever a new attempt lands.
type HistoryHandler struct {
	attempts *repository.AttemptRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(attempts *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		attempts: attempts,
		rdb:      rdb,
		log:      log.With().Str("component", "history_handler").Logger(),
	}
}

// parseHistoryLimit reads the limit query parameter. Only the default
// listing is cacheable; a custom limit always hits the database so the
// cached default listing never masquerades as a shorter one.
func parseHistoryLimit(c *gin.Context) (limit int, cacheable bool) {
	raw := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 50, true
	}
	return limit, limit == 50
}

// List godoc
// GET /api/v1/history
// Returns the candidate's attempts, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, cacheable := parseHistoryLimit(c)
	cacheKey := config.CacheKey.CandidateHistoryKey(claims.UserID)

	// Cache hit serves straight from Redis; anything else self-heals from
	// Postgres.
	if cacheable {
		if cached, err := h.rdb.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var attempts []model.TestAttempt
			if json.Unmarshal([]byte(cached), &attempts) == nil {
				response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
				return
			}
		} else if !errors.Is(err, redis.Nil) {
			h.log.Warn().Err(err).Msg("History cache read failed, falling back to database")
		}
	}

	attempts, err := h.attempts.ListByCandidate(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if cacheable {
		if payload, err := json.Marshal(attempts); err == nil {
			if err := h.rdb.Set(c.Request.Context(), cacheKey, payload, historyCacheTTL).Err(); err != nil {
				h.log.Warn().Err(err).Msg("History cache write failed")
			}
		}
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// Get godoc
// GET /api/v1/history/:id
// Returns one attempt with its full question and answer payloads.
func (h *HistoryHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempt, err := h.attempts.GetByID(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, attempt)
}
