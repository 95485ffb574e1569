package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := New(Transient, "fred", "request failed", cause)

	k, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Transient, k)
	assert.True(t, Is(err, Transient))
	assert.False(t, Is(err, Storage))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("fetch series: %w", New(Storage, "postgres", "upsert failed", nil))

	k, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Storage, k)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(Transient, "eia", "503", nil)))
	assert.False(t, Retryable(New(Client, "eia", "404", nil)))
	assert.False(t, Retryable(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := New(Parse, "quote", "unexpected shape", errors.New("bad json"))
	assert.Contains(t, err.Error(), "parse")
	assert.Contains(t, err.Error(), "quote")
	assert.Contains(t, err.Error(), "bad json")
}
