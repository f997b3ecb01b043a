package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
)

func TestIsBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"wrapped busy", fmt.Errorf("insert run: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), true},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"generic", errors.New("oops"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBusy(tt.err); got != tt.want {
				t.Errorf("IsBusy(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicyRetriesUntilSuccess(t *testing.T) {
	var attempts int
	var delays []int
	policy := RetryPolicy{
		MaxAttempts: 5,
		ShouldRetry: IsBusy,
		DelayFunc: func(attempt int, _ error) time.Duration {
			delays = append(delays, attempt)
			return time.Millisecond
		},
	}
	err := policy.do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 || delays[0] != 1 || delays[1] != 2 {
		t.Errorf("delays = %v, want [1 2]", delays)
	}
}

func TestRetryPolicyRespectsMaxAttempts(t *testing.T) {
	var attempts int
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Microsecond}
	err := policy.do(context.Background(), func() error {
		attempts++
		return busy
	})
	if !errors.Is(err, busy) {
		t.Fatalf("do() error = %v, want last error", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	var attempts int
	policy := DefaultRetryPolicy
	err := policy.do(context.Background(), func() error {
		attempts++
		return sqlite3.Error{Code: sqlite3.ErrConstraint}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	var attempts int
	_ = RetryPolicy{}.do(context.Background(), func() error {
		attempts++
		return errors.New("fail")
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryPolicyCanceledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}
	err := policy.do(ctx, func() error {
		cancel()
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("do() error = %v, want context.Canceled", err)
	}
}
