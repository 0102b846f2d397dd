package history

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RetryPolicy controls how writes are retried while another connection
// holds the database lock.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	UseJitter  bool
}

// DefaultRetryPolicy covers short lock contention between the CLI and a
// concurrently running MCP server.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 4,
	BaseDelay:  20 * time.Millisecond,
	MaxDelay:   500 * time.Millisecond,
	UseJitter:  true,
}

// retry runs fn until it succeeds, returns an error retryable rejects, or
// the policy is exhausted. The last error is returned.
func retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func() error) error {
	var lastErr error
	attempts := max(policy.MaxRetries, 0) + 1

	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt, policy)):
			}
		}
	}
	return lastErr
}

// backoff returns BaseDelay * 2^attempt capped at MaxDelay, optionally
// scaled by a random factor in [0.5, 1.5).
func backoff(attempt int, policy RetryPolicy) time.Duration {
	base, limit := policy.BaseDelay, policy.MaxDelay
	if base <= 0 {
		base = 10 * time.Millisecond
	}
	if limit <= 0 {
		limit = time.Second
	}

	delay := base
	for range attempt {
		delay *= 2
		if delay >= limit {
			delay = limit
			break
		}
	}
	if policy.UseJitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	}
	return min(delay, limit)
}

// isBusy reports whether err is SQLite lock contention. Extended result
// codes such as SQLITE_BUSY_SNAPSHOT carry the primary code in the low byte.
func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
