// Package repository provides the key-value storage area.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	storageModel "github.com/festy23/prtracker/internal/storage/model"
	"github.com/festy23/prtracker/pkg/retry"
)

// Repository is the storage area shared by every context.
// Individual calls are serialized; a sequence of calls is not atomic.
type Repository interface {
	// Get returns the values stored under keys. Missing keys are absent from the result.
	Get(ctx context.Context, keys ...string) (storageModel.Items, error)

	// GetAll returns a snapshot of the whole namespace.
	GetAll(ctx context.Context) (storageModel.Items, error)

	// Set writes every item, replacing existing values.
	Set(ctx context.Context, items storageModel.Items) error

	// Remove deletes keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}

type repository struct {
	db       *gorm.DB
	logger   *zap.SugaredLogger
	retryCfg retry.Config
}

var _ Repository = (*repository)(nil)

// New creates a gorm-backed storage area.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	cfg := retry.SQLiteConfig()
	cfg.RetryIf = isBusy
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Debugw("storage busy, retrying", "attempt", attempt, "delay", delay, "error", err)
	}
	return &repository{db: db, logger: logger, retryCfg: cfg}
}

// Get returns the values stored under keys.
func (r *repository) Get(ctx context.Context, keys ...string) (storageModel.Items, error) {
	items := storageModel.Items{}
	if len(keys) == 0 {
		return items, nil
	}

	var entries []storageModel.Entry
	err := r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Where("entry_key IN ?", keys).Find(&entries).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get storage entries: %w", err)
	}

	for _, e := range entries {
		items[e.Key] = json.RawMessage(e.Value)
	}
	return items, nil
}

// GetAll returns a snapshot of the whole namespace.
func (r *repository) GetAll(ctx context.Context) (storageModel.Items, error) {
	var entries []storageModel.Entry
	err := r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Order("entry_key").Find(&entries).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list storage entries: %w", err)
	}

	items := make(storageModel.Items, len(entries))
	for _, e := range entries {
		items[e.Key] = json.RawMessage(e.Value)
	}
	return items, nil
}

// Set writes every item in one transaction.
func (r *repository) Set(ctx context.Context, items storageModel.Items) error {
	if len(items) == 0 {
		return nil
	}
	if err := items.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	entries := make([]storageModel.Entry, 0, len(items))
	for k, v := range items {
		entries = append(entries, storageModel.Entry{Key: k, Value: string(v), UpdatedAt: now})
	}

	err := r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("failed to set storage entries: %w", err)
	}

	r.logger.Debugw("storage entries set", "count", len(entries))
	return nil
}

// Remove deletes keys.
func (r *repository) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	err := r.withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&storageModel.Entry{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to remove storage entries: %w", err)
	}

	r.logger.Debugw("storage entries removed", "count", len(keys))
	return nil
}

func (r *repository) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, r.retryCfg, fn)
}

// isBusy reports SQLite lock contention between processes sharing the file.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
