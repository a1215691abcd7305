package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/handler"
	"github.com/stemsi/exstem-learn/internal/middleware"
	"github.com/stemsi/exstem-learn/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Exam   *handler.ExamHandler
	WS     *handler.WSHandler
	Health *handler.HealthHandler
}

// Authority validates learner tokens and their active session.
type Authority interface {
	middleware.TokenValidator
	middleware.SessionChecker
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth Authority,
	handlers *Handlers,
	submitLimiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Authorization",
		response.HeaderRequestID, handler.HeaderIdempotencyKey,
	}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/login", handlers.Auth.Login)
	}

	// ─── 2. Exam Group (JWT + Single Session) ─────────────────────────
	examAPI := router.Group("/api/v1/exam")
	examAPI.Use(
		middleware.RequireLearnerJWT(auth),
		middleware.RequireActiveSession(auth),
		middleware.NoStore(),
	)
	{
		examAPI.GET("/course/:course_id/random", handlers.Exam.RandomQuestions)
		examAPI.POST("/submit", submitLimiter.Middleware(), handlers.Exam.Submit)
		examAPI.GET("/attempts/:attempt_id", handlers.Exam.GetAttempt)
	}

	// ─── 3. WebSocket Group (Learner WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireLearnerWSAuth(auth),
		middleware.RequireActiveSession(auth),
	)
	{
		ws.GET("/exam/monitor", handlers.WS.ExamMonitor)
	}

	return router
}
