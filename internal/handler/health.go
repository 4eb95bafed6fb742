// Package handler provides the JSON API, health endpoints and top-level router.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	components map[string]Pinger
	timeout    time.Duration
}

// NewHealthHandler creates a health handler that checks the given components on /ready.
func NewHealthHandler(components map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		components: components,
		timeout:    2 * time.Second,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string, len(h.components))
	status, code := "ready", http.StatusOK
	for name, c := range h.components {
		if err := c.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	response.JSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
