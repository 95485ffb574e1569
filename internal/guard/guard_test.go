package guard

import (
	"context"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGetRoundTrip(t *testing.T) {
	c := NewCache(time.Minute)
	key := Key("fred", "DCOILWTICO", time.Unix(0, 0), time.Unix(86400, 0))

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, []byte(`{"value":42}`))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, `{"value":42}`, string(got))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Millisecond)
	key := Key("eia", "PET.RWTC.D", time.Now(), time.Now())
	c.Set(key, []byte("x"))

	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCacheDisabledWhenZeroTTL(t *testing.T) {
	c := NewCache(0)
	key := Key("quote", "CL=F", time.Now(), time.Now())
	c.Set(key, []byte("x"))
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.False(t, c.Stats().Enabled)
}

func TestRateLimiterWaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	rl.Wait(context.Background()) // consume the initial burst token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	assert.Error(t, err)
}

func TestCircuitBreakerTripsOnConsecutiveFailures(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test-source")
	cfg.ConsecutiveFailures = 2
	cb := NewCircuitBreaker(cfg)

	failing := func() (interface{}, error) { return nil, assert.AnError }

	_, _ = cb.Execute(failing)
	_, _ = cb.Execute(failing)

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
