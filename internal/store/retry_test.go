package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestRetryBusy_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retryBusy(context.Background(), fastRetry(4), func() error {
		calls++
		if calls < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryBusy_GivesUp(t *testing.T) {
	calls := 0
	err := retryBusy(context.Background(), fastRetry(3), func() error {
		calls++
		return fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrLocked})
	})
	assert.True(t, isBusy(err))
	assert.Equal(t, 3, calls)
}

func TestRetryBusy_OtherErrorsFailFast(t *testing.T) {
	boom := errors.New("constraint failed")
	calls := 0
	err := retryBusy(context.Background(), fastRetry(5), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryBusy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryBusy(ctx, fastRetry(5), func() error {
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryBusy_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := retryBusy(context.Background(), RetryConfig{}, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
