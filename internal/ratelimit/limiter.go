// Package ratelimit bounds the number of requests a single identity may
// issue within a rolling window, shared across process instances through
// the distributed store. A limiter outage must not take down the
// resolution path, so every failure mode allows the request through.
package ratelimit

import (
	"context"
	"time"

	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

const keyPrefix = "rate-limiter."

// Limiter implements domain.RequestGate over the shared store's atomic
// increment-and-expire primitive.
type Limiter struct {
	store      domain.Store
	maxAllowed int64
	timeframe  time.Duration
}

// NewLimiter creates a limiter allowing maxAllowed requests per identity
// within a rolling window of the given timeframe.
func NewLimiter(store domain.Store, maxAllowed int, timeframe time.Duration) *Limiter {
	return &Limiter{
		store:      store,
		maxAllowed: int64(maxAllowed),
		timeframe:  timeframe,
	}
}

// Allow reports whether a request from identity may proceed. The request
// ordinal is its position within the current window; the request is
// allowed iff ordinal <= maxAllowed. Unknown identities and store errors
// fail open.
func (l *Limiter) Allow(ctx context.Context, identity string) bool {
	logger := observability.FromContext(ctx)

	if identity == "" {
		logger.Warn("no identity for rate limiting, allowing request")
		return true
	}

	ordinal, err := l.store.IncrExpire(ctx, keyPrefix+identity, l.timeframe)
	if err != nil {
		logger.Error("couldn't check limits, allowing request",
			observability.String("identity", identity),
			observability.Error(err))
		return true
	}

	logger.Debug("request ordinal within window",
		observability.String("identity", identity),
		observability.Int64("ordinal", ordinal))

	allowed := ordinal <= l.maxAllowed
	if !allowed {
		observability.RateLimitedTotal.Inc()
	}
	return allowed
}
