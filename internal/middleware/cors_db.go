package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/cors"
	"github.com/sproutplan/sproutplan-api/internal/database"
	"go.uber.org/zap"
)

// CORSReloader serves requests through an rs/cors handler rebuilt from
// the database on an interval, so allowed origins can be changed with
// the configure CLI without restarting the server.
type CORSReloader struct {
	repo     *database.CorsConfigRepository
	fallback string
	log      *zap.Logger
	interval time.Duration

	next    http.Handler
	handler atomic.Pointer[http.Handler]
}

// NewCORSReloader builds a reloader. fallbackOrigins (usually
// FRONTEND_URL) is used whenever the database holds no CORS row.
func NewCORSReloader(repo *database.CorsConfigRepository, fallbackOrigins string, log *zap.Logger, interval time.Duration) *CORSReloader {
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(fallbackOrigins),
		log:      log,
		interval: interval,
	}
}

// Middleware wires the reloader into a mux chain and builds the initial
// handler from whatever the database currently holds.
func (c *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		c.next = next
		c.rebuild(context.Background())
		return c
	}
}

// Start re-reads the stored config on each tick until ctx is cancelled.
func (c *CORSReloader) Start(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.rebuild(ctx)
		}
	}
}

func (c *CORSReloader) rebuild(ctx context.Context) {
	if c.next == nil {
		return
	}

	origins := database.AllowedOriginsSlice(c.fallback)
	allowCredentials := true
	maxAge := 86400

	cfg, err := c.repo.Get(ctx)
	switch {
	case err != nil:
		c.log.Warn("cors_config_load_failed_using_fallback", zap.Error(err))
	case cfg != nil:
		origins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		allowCredentials = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	h := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}).Handler(c.next)
	c.handler.Store(&h)
}

func (c *CORSReloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h := c.handler.Load(); h != nil {
		(*h).ServeHTTP(w, r)
		return
	}
	if c.next != nil {
		c.next.ServeHTTP(w, r)
	}
}
