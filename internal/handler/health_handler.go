package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/response"
)

// PingFunc checks one backing service.
type PingFunc func(ctx context.Context) error

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	checks  map[string]PingFunc
	started time.Time
	log     zerolog.Logger
}

// NewHealthHandler creates a HealthHandler over named dependency checks.
func NewHealthHandler(checks map[string]PingFunc, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		started: time.Now(),
		log:     log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	response.Success(c, status, gin.H{
		"status":       overall,
		"dependencies": deps,
		"uptime":       time.Since(h.started).Truncate(time.Second).String(),
	})
}
