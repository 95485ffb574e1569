package sources

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/caldera-energy/pricefeed/internal/errs"
	"github.com/caldera-energy/pricefeed/internal/guard"
)

// maxAttempts bounds the retry loop: at most 3 attempts in total (the
// first try plus 2 retries) before a transient failure surfaces as
// RetriesExhausted.
const maxAttempts = 3

// fetchFunc performs one attempt at an HTTP round trip and classifies
// the outcome. A nil error with nil body means a 2xx was received but
// the caller still needs to read it (unused here; body always returned
// on success).
type fetchFunc func(ctx context.Context) (*http.Response, error)

// withRetry runs do through the adapter's rate limiter and circuit
// breaker, retrying errs.Transient failures with exponential backoff
// capped at 10s, three attempts total. One helper shared by every
// adapter instead of copied three times.
func withRetry(ctx context.Context, source string, rl *guard.RateLimiter, cb *guard.CircuitBreaker, do fetchFunc) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := calculateBackoff(attempt)
			log.Debug().Str("source", source).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying after transient error")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := rl.Wait(ctx); err != nil {
			return nil, err
		}

		result, cbErr := cb.Execute(func() (interface{}, error) {
			resp, err := do(ctx)
			if err != nil {
				return nil, errs.New(errs.Transient, source, "request failed", err)
			}
			if classified := classifyStatus(source, resp); classified != nil {
				return resp, classified
			}
			return resp, nil
		})

		if cbErr == nil {
			return result.(*http.Response), nil
		}

		if cbErr == gobreaker.ErrOpenState || cbErr == gobreaker.ErrTooManyRequests {
			cbErr = errs.New(errs.Transient, source, "circuit breaker open", cbErr)
		}

		if !errs.Retryable(cbErr) {
			return nil, cbErr
		}

		if resp, ok := result.(*http.Response); ok && resp != nil {
			if retryAfter := parseRetryAfter(resp.Header); retryAfter > 0 {
				rl.Throttle(retryAfter, 1.0)
			}
		}

		lastErr = cbErr
	}

	return nil, errs.New(errs.RetriesExhausted, source, "exhausted retry budget", lastErr)
}

// classifyStatus tags a non-2xx response with the taxonomy kind its
// status code implies.
func classifyStatus(source string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return errs.New(errs.Transient, source, "retryable HTTP status "+strconv.Itoa(resp.StatusCode), nil)
	}
	return errs.New(errs.Client, source, "non-retryable HTTP status "+strconv.Itoa(resp.StatusCode), nil)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// calculateBackoff is exponential with a 10s cap: 2s, 4s (capped).
func calculateBackoff(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt-1)) * time.Second
	const cap = 10 * time.Second
	if backoff > cap {
		return cap
	}
	return backoff
}
