package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/ai"
	"github.com/instaprep/instaprep-backend/internal/config"
	"github.com/instaprep/instaprep-backend/internal/database"
	"github.com/instaprep/instaprep-backend/internal/handler"
	"github.com/instaprep/instaprep-backend/internal/logger"
	"github.com/instaprep/instaprep-backend/internal/repository"
	"github.com/instaprep/instaprep-backend/internal/router"
	"github.com/instaprep/instaprep-backend/internal/service"
	"github.com/instaprep/instaprep-backend/internal/validator"
	"github.com/instaprep/instaprep-backend/internal/worker"
	ws "github.com/instaprep/instaprep-backend/internal/websocket"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting InstaPrep Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	// ─── Initialize AI Services ────────────────────────────────────────
	aiClient := ai.NewClient(cfg, log)
	questionSvc := ai.NewQuestionService(aiClient, log)
	evaluationSvc := ai.NewEvaluationService(aiClient, log)
	faceMatchSvc := ai.NewFaceMatchService(aiClient, log)
	codeRunner := ai.NewCodeRunner(aiClient, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	hub := ws.NewHub(log)
	sessionService := service.NewSessionService(cfg, rdb, questionSvc, evaluationSvc, faceMatchSvc, attemptRepo, hub, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, candidateRepo),
		Session: handler.NewSessionHandler(sessionService, codeRunner),
		History: handler.NewHistoryHandler(attemptRepo, rdb, log),
		WS:      handler.NewWSHandler(sessionService, hub, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	malpracticeWorker := worker.NewMalpracticeWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(attemptRepo, rdb, log)

	go malpracticeWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
