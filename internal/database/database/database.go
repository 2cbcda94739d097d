// Package database opens the gorm connection behind the storage namespace.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/festy23/prtracker/internal/database/config"
	"github.com/festy23/prtracker/internal/database/pool"
	"github.com/festy23/prtracker/pkg/retry"
)

// ErrNoDatabase is returned for the memory driver, which has no SQL backing.
var ErrNoDatabase = errors.New("memory driver has no database")

// New opens the store configured by DB_* environment variables.
func New(ctx context.Context, logger *zap.SugaredLogger) (*gorm.DB, error) {
	return NewWithConfig(ctx, config.LoadConfigFromEnv(), logger)
}

// NewWithConfig opens the store described by cfg, retrying transient failures.
func NewWithConfig(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverMemory {
		return nil, ErrNoDatabase
	}

	dialector, poolCfg, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := config.LoadRetryConfigFromEnv(cfg.Driver)
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warnw("store open failed, retrying",
			"driver", cfg.Driver, "attempt", attempt, "delay", delay, "error", config.SanitizeError(err, cfg))
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*gorm.DB, error) {
		db, err := gorm.Open(dialector, &gorm.Config{
			NowFunc: func() time.Time { return time.Now().UTC() },
			Logger:  newGormLogger(logger),
		})
		if err != nil {
			return nil, err
		}
		if err := HealthCheck(ctx, db); err != nil {
			_ = Close(db)
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		return nil, config.SanitizeError(err, cfg)
	}

	if err := pool.SetupConnectionPool(db, poolCfg); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to setup connection pool: %w", err)
	}

	logger.Infow("store opened", "driver", cfg.Driver, "path", cfg.Path)
	return db, nil
}

func dialectorFor(cfg config.Config) (gorm.Dialector, pool.Config, error) {
	dsn := config.BuildDSN(cfg)
	if cfg.Driver == config.DriverPostgres {
		return postgres.Open(dsn), pool.DefaultPoolConfig(), nil
	}

	if cfg.Path != config.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, pool.Config{}, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return sqlite.Open(dsn), pool.SQLitePoolConfig(), nil
}

// Dialect returns the golang-migrate database name for db.
func Dialect(db *gorm.DB) string {
	if db == nil {
		return ""
	}
	return db.Dialector.Name()
}

// HealthCheck verifies database connection availability.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close gracefully closes database connection.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetStats returns database connection pool statistics.
func GetStats(db *gorm.DB) (*sql.DBStats, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return &stats, nil
}
