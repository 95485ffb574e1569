// Package errs implements the error taxonomy shared by every pipeline
// component: a small closed set of kinds with their own retry and
// propagation policy, instead of ad-hoc fmt.Errorf strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind tags an error with its origin and retry policy.
type Kind string

const (
	// Config signals a missing credential or invalid configuration.
	// Never retried; aborts a run or refuses construction.
	Config Kind = "config"
	// Validation signals a bad input shape or date range.
	Validation Kind = "validation"
	// Transient signals a network error, HTTP 429, or HTTP 5xx.
	// Retried with bounded exponential backoff.
	Transient Kind = "transient"
	// Client signals an HTTP 4xx other than 429. Not retried.
	Client Kind = "client"
	// Parse signals a provider response shape the adapter does not
	// recognize. Not retried.
	Parse Kind = "parse"
	// Storage signals an upsert or connection failure.
	Storage Kind = "storage"
	// RetriesExhausted signals a Transient error that persisted
	// through the retry budget.
	RetriesExhausted Kind = "retries_exhausted"
)

// Error wraps a Kind, the component that raised it, and the underlying
// cause.
type Error struct {
	Kind   Kind
	Source string // adapter or component name, e.g. "fred", "storage"
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Source, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Source, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a tagged *Error.
func New(kind Kind, source, msg string, cause error) *Error {
	return &Error{Kind: kind, Source: source, Msg: msg, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Retryable reports whether err's kind is retried per the taxonomy.
func Retryable(err error) bool {
	k, ok := KindOf(err)
	return ok && k == Transient
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
