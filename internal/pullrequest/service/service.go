// Package service provides the record store facade for tracked pull requests.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	"github.com/festy23/prtracker/internal/pullrequest/repository"
)

// Notifier is told about every key whose persisted state changed.
type Notifier interface {
	Notify(key prkey.Key)
}

// Service defines the interface for reading and writing pull request state.
type Service interface {
	// GetStats returns the counters of key, zero when not tracked.
	GetStats(ctx context.Context, key prkey.Key) (*pullrequestModel.Stats, error)

	// GetRecord returns the record of key, empty when not tracked.
	GetRecord(ctx context.Context, key prkey.Key) (*pullrequestModel.Record, error)

	// SaveRecord stores page-reported metadata for key.
	SaveRecord(ctx context.Context, key prkey.Key, record *pullrequestModel.Record) error

	// UpsertVisit applies one visit to the counters of key and returns the updated counters.
	UpsertVisit(
		ctx context.Context,
		key prkey.Key,
		in pullrequestModel.VisitInput,
	) (*pullrequestModel.Stats, error)

	// ListAll returns every tracked pull request merged with its counters.
	ListAll(ctx context.Context) (map[string]pullrequestModel.MergedView, error)

	// Remove deletes the record and counters of key.
	Remove(ctx context.Context, key prkey.Key) error

	// RefreshCache rebuilds pr_data_cache from ListAll.
	RefreshCache(ctx context.Context) (*pullrequestModel.CacheEntry, error)

	// Cached returns pr_data_cache, nil when it was never written.
	Cached(ctx context.Context) (*pullrequestModel.CacheEntry, error)
}

type service struct {
	repo     repository.Repository
	notifier Notifier
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// New creates a new pull request service instance.
func New(repo repository.Repository, notifier Notifier, logger *zap.SugaredLogger) Service {
	return NewWithClock(repo, notifier, logger, time.Now)
}

// NewWithClock creates a service that stamps timestamps with now.
func NewWithClock(
	repo repository.Repository,
	notifier Notifier,
	logger *zap.SugaredLogger,
	now func() time.Time,
) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

// GetStats returns the counters of key.
func (s *service) GetStats(ctx context.Context, key prkey.Key) (*pullrequestModel.Stats, error) {
	if key == "" {
		return nil, pullrequestModel.ErrEmptyKey
	}

	pair, err := s.repo.GetPair(ctx, key)
	if err != nil {
		return nil, err
	}
	if pair.Stats == nil {
		return &pullrequestModel.Stats{}, nil
	}
	return pair.Stats, nil
}

// GetRecord returns the record of key.
func (s *service) GetRecord(ctx context.Context, key prkey.Key) (*pullrequestModel.Record, error) {
	if key == "" {
		return nil, pullrequestModel.ErrEmptyKey
	}

	pair, err := s.repo.GetPair(ctx, key)
	if err != nil {
		return nil, err
	}
	if pair.Record == nil {
		return &pullrequestModel.Record{}, nil
	}
	return pair.Record, nil
}

// SaveRecord stores page-reported metadata for key.
func (s *service) SaveRecord(ctx context.Context, key prkey.Key, record *pullrequestModel.Record) error {
	if key == "" {
		return pullrequestModel.ErrEmptyKey
	}
	if record.IsUnknown() {
		s.logger.Warnw("refusing record with unknown project or repository",
			"key", key, "project", record.Project, "repo", record.Repo)
		return pullrequestModel.ErrUnknownProject
	}

	pair, err := s.repo.GetPair(ctx, key)
	if err != nil {
		return err
	}

	updated := *record
	if pair.Record != nil {
		updated.ViewCount = max(updated.ViewCount, pair.Record.ViewCount)
	}
	if pair.Stats != nil {
		updated.ViewCount = max(updated.ViewCount, pair.Stats.ReviewCount)
	}
	if updated.LastVisited == 0 {
		updated.LastVisited = pullrequestModel.Millis(s.now())
	}

	if err := s.repo.SavePair(ctx, key, repository.Pair{Record: &updated}); err != nil {
		return fmt.Errorf("failed to save record %s: %w", key, err)
	}

	s.logger.Debugw("record saved", "key", key, "viewCount", updated.ViewCount)
	s.notifier.Notify(key)
	return nil
}

// UpsertVisit applies one visit to the counters and record of key.
// The read and the write are separate storage calls; concurrent visits may lose an increment.
func (s *service) UpsertVisit(
	ctx context.Context,
	key prkey.Key,
	in pullrequestModel.VisitInput,
) (*pullrequestModel.Stats, error) {
	if key == "" {
		return nil, pullrequestModel.ErrEmptyKey
	}

	pair, err := s.repo.GetPair(ctx, key)
	if err != nil {
		return nil, err
	}
	if pair.Record != nil && pair.Record.IsUnknown() {
		s.logger.Infow("ignoring visit to record with unknown project or repository", "key", key)
		return nil, pullrequestModel.ErrIgnoredUnknown
	}

	stats := pullrequestModel.Stats{}
	if pair.Stats != nil {
		stats = *pair.Stats
	}
	if pair.Record != nil {
		stats.ReviewCount = max(stats.ReviewCount, pair.Record.ViewCount)
	}

	if in.ShouldIncrementView {
		stats.ReviewCount++
	}
	if in.IsApproval {
		stats.ApprovalCount++
	}
	now := pullrequestModel.Millis(s.now())
	stats.LastReviewed = now
	if stats.InternalID == "" && in.InternalID != "" {
		stats.InternalID = in.InternalID
	}

	// the record is written even when savePRInfo has not run yet
	record := pullrequestModel.Record{}
	if pair.Record != nil {
		record = *pair.Record
	}
	record.LastVisited = now
	record.ViewCount = stats.ReviewCount
	record.IsApprovedByMe = in.IsApproval || record.IsApprovedByMe
	update := repository.Pair{Stats: &stats, Record: &record}

	if err := s.repo.SavePair(ctx, key, update); err != nil {
		return nil, fmt.Errorf("failed to save visit %s: %w", key, err)
	}

	s.logger.Debugw("visit recorded",
		"key", key,
		"reviewCount", stats.ReviewCount,
		"approvalCount", stats.ApprovalCount,
		"incremented", in.ShouldIncrementView,
	)
	s.notifier.Notify(key)
	return &stats, nil
}

// ListAll returns every tracked pull request merged with its counters.
func (s *service) ListAll(ctx context.Context) (map[string]pullrequestModel.MergedView, error) {
	pairs, err := s.repo.ListPairs(ctx)
	if err != nil {
		return nil, err
	}

	now := pullrequestModel.Millis(s.now())
	views := make(map[string]pullrequestModel.MergedView, len(pairs))
	for k, pair := range pairs {
		views[k] = merge(prkey.Key(k), pair, now)
	}
	return views, nil
}

// Remove deletes the record and counters of key.
func (s *service) Remove(ctx context.Context, key prkey.Key) error {
	if key == "" {
		return pullrequestModel.ErrEmptyKey
	}

	if err := s.repo.RemovePair(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}

	s.logger.Infow("pull request removed", "key", key)
	s.notifier.Notify(key)
	return nil
}

// RefreshCache rebuilds pr_data_cache from ListAll.
func (s *service) RefreshCache(ctx context.Context) (*pullrequestModel.CacheEntry, error) {
	views, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	entry := &pullrequestModel.CacheEntry{
		Timestamp: pullrequestModel.Millis(s.now()),
		Data:      views,
	}
	if err := s.repo.SaveCache(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to refresh cache: %w", err)
	}

	s.logger.Debugw("cache refreshed", "count", len(views))
	return entry, nil
}

// Cached returns pr_data_cache.
func (s *service) Cached(ctx context.Context) (*pullrequestModel.CacheEntry, error) {
	return s.repo.GetCache(ctx)
}

func merge(key prkey.Key, pair repository.Pair, now int64) pullrequestModel.MergedView {
	view := pullrequestModel.MergedView{
		Record:   *pair.Record,
		PRNumber: key.Number(),
	}

	lastReviewed := int64(0)
	if pair.Stats != nil {
		view.ViewCount = max(view.ViewCount, pair.Stats.ReviewCount)
		view.ApprovalCount = pair.Stats.ApprovalCount
		lastReviewed = pair.Stats.LastReviewed
	}

	switch {
	case lastReviewed != 0:
		view.LastReviewed = lastReviewed
	case view.LastVisited != 0:
		view.LastReviewed = view.LastVisited
	default:
		view.LastReviewed = now
	}
	return view
}
