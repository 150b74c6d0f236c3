package middleware

import (
	"net/http"

	logpkg "github.com/sproutplan/sproutplan-api/internal/logger"
	"github.com/sproutplan/sproutplan-api/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-relevant outcomes: rejected credentials and rate
// limit hits. Regular traffic is left to the Logging middleware.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			var event string
			switch rec.status {
			case http.StatusUnauthorized, http.StatusForbidden:
				event = "security_event"
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			default:
				return
			}

			ip := request.ClientIP(r)
			logger.Warn(event,
				zap.Int("status_code", rec.status),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(ip, logpkg.MaxGeneralStringLength)),
			)
		})
	}
}
