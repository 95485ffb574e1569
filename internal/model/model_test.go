package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExecutionResultCompleteSuccess(t *testing.T) {
	r := &ExecutionResult{
		RunID:  uuid.New(),
		Stored: map[string]int{"eia": 10, "fred": 5},
	}
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	r.Complete(now)

	assert.Equal(t, RunSuccess, r.Status)
	assert.Equal(t, now, r.EndedAt)
}

func TestExecutionResultCompletePartial(t *testing.T) {
	r := &ExecutionResult{
		Stored: map[string]int{"eia": 10, "fred": 0},
		Errors: []string{"fred: retries_exhausted"},
	}
	r.Complete(time.Now().UTC())

	assert.Equal(t, RunPartialSuccess, r.Status)
}

func TestExecutionResultCompleteFailed(t *testing.T) {
	r := &ExecutionResult{
		Stored: map[string]int{"eia": 0, "fred": 0},
		Errors: []string{"eia: retries_exhausted", "fred: retries_exhausted"},
	}
	r.Complete(time.Now().UTC())

	assert.Equal(t, RunFailed, r.Status)
}
