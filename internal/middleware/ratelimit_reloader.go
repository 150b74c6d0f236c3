package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sproutplan/sproutplan-api/internal/database"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"github.com/sproutplan/sproutplan-api/internal/request"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// defaultRatelimitRate is ulule's formatted-rate syntax: 5 requests per second.
const defaultRatelimitRate = "5-S"

// RateLimitReloader enforces a per-IP rate limit backed by Redis. The
// rate itself lives in the database and is re-read on an interval, so
// it can be tightened with the configure CLI without a restart.
type RateLimitReloader struct {
	store       limiter.Store
	repo        *database.RatelimitConfigRepository
	defaultRate string
	log         *zap.Logger
	interval    time.Duration

	next    http.Handler
	handler atomic.Pointer[http.Handler]
}

// NewRateLimitReloader builds a reloader on top of an existing Redis
// client. Returns nil if the limiter store cannot be created.
func NewRateLimitReloader(redisClient *redis.Client, repo *database.RatelimitConfigRepository, defaultRate string, log *zap.Logger, interval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = defaultRatelimitRate
	}
	// One store for the lifetime of the process; reloads only swap the rate.
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		log.Error("ratelimit_store_init_failed", zap.Error(err))
		return nil
	}
	return &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
		interval:    interval,
	}
}

// Middleware wires the reloader into a mux chain and builds the initial
// handler from the stored rate.
func (rl *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		rl.next = next
		rl.rebuild(context.Background())
		return rl
	}
}

// Start re-reads the stored rate on each tick until ctx is cancelled.
func (rl *RateLimitReloader) Start(ctx context.Context) {
	if rl.interval <= 0 {
		return
	}
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.rebuild(ctx)
		}
	}
}

// currentRate resolves the rate string to apply, seeding the database
// with the default when no row exists yet.
func (rl *RateLimitReloader) currentRate(ctx context.Context) string {
	cfg, err := rl.repo.Get(ctx)
	if err != nil {
		rl.log.Warn("ratelimit_config_load_failed_using_default",
			zap.Error(err),
			zap.String("default_rate", rl.defaultRate),
		)
		return rl.defaultRate
	}
	if cfg != nil && cfg.Rate != "" {
		return cfg.Rate
	}
	if err := rl.repo.Set(ctx, &models.RatelimitConfig{Rate: rl.defaultRate}); err != nil {
		rl.log.Error("ratelimit_default_seed_failed", zap.Error(err))
	}
	return rl.defaultRate
}

func (rl *RateLimitReloader) rebuild(ctx context.Context) {
	if rl.next == nil {
		return
	}

	rateStr := rl.currentRate(ctx)
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		rl.log.Error("ratelimit_rate_parse_failed",
			zap.Error(err),
			zap.String("rate", rateStr),
		)
		if rate, err = limiter.NewRateFromFormatted(rl.defaultRate); err != nil {
			return
		}
	}

	mw := stdlibmw.NewMiddleware(
		limiter.New(rl.store, rate),
		stdlibmw.WithKeyGetter(func(r *http.Request) string {
			return request.ClientIP(r)
		}),
	)
	h := mw.Handler(rl.next)
	rl.handler.Store(&h)
}

func (rl *RateLimitReloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h := rl.handler.Load(); h != nil {
		(*h).ServeHTTP(w, r)
		return
	}
	if rl.next != nil {
		rl.next.ServeHTTP(w, r)
	}
}
