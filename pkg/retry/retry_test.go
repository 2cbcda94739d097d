package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("success on first attempt", func(t *testing.T) {
		attempts := 0
		err := Do(ctx, fastConfig(), func() error {
			attempts++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after transient failures", func(t *testing.T) {
		attempts := 0
		var notified []int
		cfg := fastConfig()
		cfg.OnRetry = func(attempt int, _ error, _ time.Duration) {
			notified = append(notified, attempt)
		}

		err := Do(ctx, cfg, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("database is locked")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, []int{1, 2}, notified)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		attempts := 0
		sentinel := errors.New("still locked")
		err := Do(ctx, fastConfig(), func() error {
			attempts++
			return sentinel
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
		assert.Contains(t, err.Error(), "giving up after 3 attempts")
		assert.Equal(t, 3, attempts)
	})

	t.Run("non retryable error returns immediately", func(t *testing.T) {
		cfg := SQLiteConfig()
		attempts := 0
		err := Do(ctx, cfg, func() error {
			attempts++
			return errors.New("no such table: storage_entries")
		})

		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := Do(cancelled, fastConfig(), func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid config", func(t *testing.T) {
		err := Do(ctx, Config{}, func() error { return nil })
		assert.Error(t, err)
	})
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	value, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("connection refused")
		}
		return "opened", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "opened", value)
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(0, cfg))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(1, cfg))
	assert.Equal(t, 300*time.Millisecond, calculateDelay(5, cfg))
	assert.Equal(t, 100*time.Millisecond, calculateDelay(-1, cfg))
}

func TestAddJitter(t *testing.T) {
	for i := 0; i < 50; i++ {
		delay := addJitter(time.Second)
		assert.GreaterOrEqual(t, delay, 900*time.Millisecond)
		assert.LessOrEqual(t, delay, 1100*time.Millisecond)
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil, DefaultConfig()))
	assert.True(t, IsRetryableError(errors.New("anything"), DefaultConfig()))
	assert.True(t, IsRetryableError(errors.New("SQLITE_BUSY: database is locked"), SQLiteConfig()))
	assert.True(t, IsRetryableError(errors.New("dial tcp 127.0.0.1:5432: connection refused"), PostgresConfig()))
	assert.False(t, IsRetryableError(errors.New("syntax error"), PostgresConfig()))

	busy := errors.New("busy")
	cfg := SQLiteConfig()
	cfg.RetryIf = func(err error) bool { return errors.Is(err, busy) }
	assert.True(t, IsRetryableError(busy, cfg))
	assert.False(t, IsRetryableError(errors.New("database is locked"), cfg))
}
