// Package retry classifies transient failures from embedding backends
// and provides the backoff schedule used when retrying them.
package retry

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxAttempts is the number of tries for a failing backend call.
const MaxAttempts = 3

// TransientError marks a failure worth retrying, such as a rate limit
// or a server-side error. RetryAfter carries the backend's requested
// wait when it sent one.
type TransientError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("transient backend error (status %d): %s", e.StatusCode, msg)
}

// IsTransient reports whether err wraps a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Wait returns how long to pause before retrying after err on the
// given attempt (0-based). A backend-provided Retry-After wins over
// the computed backoff.
func Wait(err error, attempt int) time.Duration {
	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter
	}
	return Backoff(attempt)
}

// Backoff returns the wait duration before the given attempt (0-based).
// Exponential with jitter, capped at 30 seconds.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<attempt) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base / 2)))
	return base + jitter
}
