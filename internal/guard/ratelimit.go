package guard

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a single golang.org/x/time/rate.Limiter for one
// adapter's outbound requests, with a provider-header-driven backoff
// on top of the bucket itself.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter allowing rps requests per second with
// the given burst capacity.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Throttle reduces the allowed rate for the given duration, then
// restores it. Used when a provider returns a Retry-After header.
func (r *RateLimiter) Throttle(retryAfter time.Duration, restoreTo float64) {
	if retryAfter <= 0 {
		return
	}
	r.limiter.SetLimit(rate.Limit(1.0 / retryAfter.Seconds()))
	time.AfterFunc(retryAfter, func() {
		r.limiter.SetLimit(rate.Limit(restoreTo))
	})
}
