package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DefaultPoolConfig(""))
	assert.Error(t, err)
}

func TestDefaultPoolConfigValues(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://localhost/pricefeed")
	assert.Equal(t, 10, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
}
