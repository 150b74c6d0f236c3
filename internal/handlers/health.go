package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything with a health probe (the Redis limiter client).
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabasePinger matches *database.DB without binding the handler to
// the concrete type.
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker handles liveness and readiness probes.
type HealthChecker struct {
	db    DatabasePinger
	cache Pinger
}

// NewHealthChecker creates a health checker. cache may be nil when no
// Redis is configured.
func NewHealthChecker(db DatabasePinger, cache Pinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles /healthz. Basic mode only confirms the process is
// serving; mode=extended probes the database and cache.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		for _, v := range response.Checks {
			if v != "healthy" {
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	checks := make(map[string]string)

	probe := func(name string, fn func(context.Context) error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			return
		}
		checks[name] = "healthy"
	}

	probe("database", h.db.PingContext)
	if h.cache != nil {
		probe("cache", h.cache.Ping)
	}
	return checks
}
