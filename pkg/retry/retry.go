// Package retry provides retry logic with exponential backoff for opening the store.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config holds retry strategy configuration.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first one.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// RetryableErrors lists substrings of retryable error messages.
	// An empty list makes every error retryable.
	RetryableErrors []string
	// RetryIf, when set, decides retryability instead of RetryableErrors.
	RetryIf func(err error) bool
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RetryableErrors: []string{},
	}
}

// Do executes fn with retry logic.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn with retry logic and returns its result.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		return zero, fmt.Errorf("MaxAttempts must be greater than 0")
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryableError(err, cfg) {
			return zero, err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := addJitter(calculateDelay(attempt, cfg))
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// calculateDelay returns initialDelay * multiplier^attempt capped at MaxDelay.
func calculateDelay(attempt int, cfg Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	return time.Duration(delay)
}

// addJitter adds ±10% jitter.
func addJitter(delay time.Duration) time.Duration {
	//nolint:gosec // jitter has no security requirement
	jitter := float64(delay) * 0.1 * (rand.Float64()*2 - 1)
	return delay + time.Duration(jitter)
}

// IsRetryableError checks if err should trigger another attempt.
func IsRetryableError(err error, cfg Config) bool {
	if err == nil {
		return false
	}

	if cfg.RetryIf != nil {
		return cfg.RetryIf(err)
	}

	if len(cfg.RetryableErrors) == 0 {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range cfg.RetryableErrors {
		if strings.Contains(errMsg, strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}

// DefaultPostgresRetryableErrors returns transient error patterns for PostgreSQL.
func DefaultPostgresRetryableErrors() []string {
	return []string{
		"connection refused",
		"i/o timeout",
		"connection reset",
		"server closed the connection",
		"too many connections",
		"the database system is starting up",
		"network is unreachable",
		"dial tcp",
		"connection timed out",
	}
}

// DefaultSQLiteRetryableErrors returns transient error patterns for SQLite.
func DefaultSQLiteRetryableErrors() []string {
	return []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
	}
}

// PostgresConfig returns retry configuration for PostgreSQL connections.
func PostgresConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryableErrors = DefaultPostgresRetryableErrors()
	return cfg
}

// SQLiteConfig returns retry configuration for SQLite files shared between processes.
func SQLiteConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = 50 * time.Millisecond
	cfg.MaxDelay = time.Second
	cfg.RetryableErrors = DefaultSQLiteRetryableErrors()
	return cfg
}
