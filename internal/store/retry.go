package store

import (
	"context"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// RetryPolicy configures how writes are retried when another process holds
// the database lock.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	Delay       time.Duration                              // fixed delay between retries (used if DelayFunc nil)
	ShouldRetry func(error) bool                           // predicate; if nil, all errors retried
	DelayFunc   func(attempt int, err error) time.Duration // dynamic backoff; attempt is 1-based
}

// DefaultRetryPolicy retries busy and locked errors with linear backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	ShouldRetry: IsBusy,
	DelayFunc: func(attempt int, _ error) time.Duration {
		return time.Duration(attempt) * 50 * time.Millisecond
	},
}

// IsBusy reports whether err is SQLite refusing a write because the database
// is locked by another connection.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func (p RetryPolicy) do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Don't delay after the last attempt.
		if attempt < attempts {
			if p.ShouldRetry != nil && !p.ShouldRetry(lastErr) {
				return lastErr
			}
			delay := p.Delay
			if p.DelayFunc != nil {
				delay = p.DelayFunc(attempt, lastErr)
			}
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
