package middleware

import (
	"net/http"
	"strings"

	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

// IdentityHeader carries the caller identity used for rate limiting.
const IdentityHeader = "X-Identity"

// RateLimit creates a middleware that gates the high-volume API entry
// points behind the distributed rate limiter. Health and metrics
// endpoints are never gated. A missing identity is handled by the gate
// itself (fail-open).
func RateLimit(gate domain.RequestGate) Middleware {
	if gate == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identity := r.Header.Get(IdentityHeader)
			ctx = observability.WithIdentity(ctx, identity)

			if !gate.Allow(ctx, identity) {
				observability.FromContext(ctx).Info("request rate limited")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
