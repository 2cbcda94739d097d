// Package repository provides typed access to pull request entries of the storage namespace.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

// Pair is a record and its counters. Either side may be nil when not stored.
type Pair struct {
	Stats  *pullrequestModel.Stats
	Record *pullrequestModel.Record
}

// Repository defines typed pull request storage operations.
type Repository interface {
	// GetPair reads the counters and record of key in one call.
	GetPair(ctx context.Context, key prkey.Key) (Pair, error)

	// SavePair writes the non-nil sides of p in one call.
	SavePair(ctx context.Context, key prkey.Key, p Pair) error

	// RemovePair deletes both entries of key.
	RemovePair(ctx context.Context, key prkey.Key) error

	// ListPairs returns every stored record with its counters, keyed by the bare stats key.
	ListPairs(ctx context.Context) (map[string]Pair, error)

	// GetCache reads pr_data_cache. A missing cache is nil.
	GetCache(ctx context.Context) (*pullrequestModel.CacheEntry, error)

	// SaveCache writes pr_data_cache.
	SaveCache(ctx context.Context, entry *pullrequestModel.CacheEntry) error
}

type repository struct {
	area   storageRepository.Repository
	logger *zap.SugaredLogger
}

// New creates a new pull request repository over a storage area.
func New(area storageRepository.Repository, logger *zap.SugaredLogger) Repository {
	return &repository{area: area, logger: logger}
}

// GetPair reads the counters and record of key.
func (r *repository) GetPair(ctx context.Context, key prkey.Key) (Pair, error) {
	items, err := r.area.Get(ctx, key.String(), key.InfoKey())
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		Stats:  decode[pullrequestModel.Stats](r.logger, key.String(), items),
		Record: decode[pullrequestModel.Record](r.logger, key.InfoKey(), items),
	}, nil
}

// SavePair writes the non-nil sides of p.
func (r *repository) SavePair(ctx context.Context, key prkey.Key, p Pair) error {
	items := storageModel.Items{}
	if p.Stats != nil {
		raw, err := json.Marshal(p.Stats)
		if err != nil {
			return fmt.Errorf("failed to encode stats: %w", err)
		}
		items[key.String()] = raw
	}
	if p.Record != nil {
		raw, err := json.Marshal(p.Record)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		items[key.InfoKey()] = raw
	}
	return r.area.Set(ctx, items)
}

// RemovePair deletes both entries of key.
func (r *repository) RemovePair(ctx context.Context, key prkey.Key) error {
	return r.area.Remove(ctx, key.String(), key.InfoKey())
}

// ListPairs returns every stored record with its counters.
func (r *repository) ListPairs(ctx context.Context) (map[string]Pair, error) {
	items, err := r.area.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	pairs := make(map[string]Pair)
	for k := range items {
		if !prkey.IsInfoKey(k) {
			continue
		}
		record := decode[pullrequestModel.Record](r.logger, k, items)
		if record == nil {
			continue
		}
		statsKey := prkey.StatsKeyFromInfoKey(k)
		pairs[statsKey] = Pair{
			Stats:  decode[pullrequestModel.Stats](r.logger, statsKey, items),
			Record: record,
		}
	}
	return pairs, nil
}

// GetCache reads pr_data_cache.
func (r *repository) GetCache(ctx context.Context) (*pullrequestModel.CacheEntry, error) {
	items, err := r.area.Get(ctx, prkey.CacheKey)
	if err != nil {
		return nil, err
	}
	return decode[pullrequestModel.CacheEntry](r.logger, prkey.CacheKey, items), nil
}

// SaveCache writes pr_data_cache.
func (r *repository) SaveCache(ctx context.Context, entry *pullrequestModel.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	return r.area.Set(ctx, storageModel.Items{prkey.CacheKey: raw})
}

// decode returns nil for missing or malformed values; both read as "not yet tracked".
func decode[T any](logger *zap.SugaredLogger, key string, items storageModel.Items) *T {
	raw, ok := items[key]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warnw("ignoring malformed storage value", "key", key, "error", err)
		return nil
	}
	return &v
}
