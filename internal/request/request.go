package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/sproutplan/sproutplan-api/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContextKey exposes the context key for tests that need to inject
// non-user values.
func UserContextKey() contextKey { return userContextKey }

// ClientIP resolves the originating client address. Proxy headers take
// precedence over the socket address: the first X-Forwarded-For hop,
// then X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil when the
// request carries none.
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}
