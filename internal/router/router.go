package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/instaprep/instaprep-backend/internal/config"
	"github.com/instaprep/instaprep-backend/internal/handler"
	"github.com/instaprep/instaprep-backend/internal/middleware"
	"github.com/instaprep/instaprep-backend/internal/response"
	"github.com/instaprep/instaprep-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
	History *handler.HistoryHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Question papers and attempt history
	// compress well.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		api.POST("/sessions", handlers.Session.Create)
		api.POST("/sessions/:id/snapshot", handlers.Session.Snapshot)
		api.POST("/sessions/:id/start", handlers.Session.Start)
		api.GET("/sessions/:id/state", handlers.Session.State)
		api.GET("/sessions/:id/paper", handlers.Session.Paper)
		api.POST("/sessions/:id/answer", handlers.Session.Answer)
		api.POST("/sessions/:id/run-code", handlers.Session.RunCode)
		api.POST("/sessions/:id/submit-code", handlers.Session.SubmitCode)
		api.POST("/sessions/:id/advance", handlers.Session.Advance)
		api.POST("/sessions/:id/jump", handlers.Session.Jump)
		api.POST("/sessions/:id/finish", handlers.Session.Finish)
		api.GET("/sessions/:id/result", handlers.Session.Result)

		api.GET("/history", handlers.History.List)
		api.GET("/history/:id", handlers.History.Get)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
