package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/prkey"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

// Notifier is told about keys removed by a purge.
type Notifier interface {
	Notify(key prkey.Key)
}

// Report summarizes one reconciliation run.
type Report struct {
	Moved   int    `json:"moved"`
	Deleted int    `json:"deleted"`
	Purged  int    `json:"purged"`
	Skipped []Skip `json:"skipped"`
}

// Runner applies reconciliation plans to a storage area.
type Runner struct {
	area     storageRepository.Repository
	notifier Notifier
	logger   *zap.SugaredLogger
}

// NewRunner creates a runner over area. notifier may be nil.
func NewRunner(area storageRepository.Repository, notifier Notifier, logger *zap.SugaredLogger) *Runner {
	return &Runner{area: area, notifier: notifier, logger: logger}
}

// Run normalizes every key and then purges unknown records.
// Failures are logged and collected; a failed step does not stop later ones,
// except that deletes are skipped when their writes failed.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{Skipped: []Skip{}}

	snapshot, err := r.area.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to snapshot storage: %w", err)
	}

	plan := NewPlan(snapshot)
	report.Skipped = plan.Skipped
	for _, s := range plan.Skipped {
		r.logger.Warnw("skipping entry during reconciliation", "key", s.Key, "reason", s.Reason)
	}

	var errs []error
	if err := r.area.Set(ctx, plan.Writes); err != nil {
		r.logger.Errorw("failed to write normalized entries", "count", len(plan.Writes), "error", err)
		errs = append(errs, err)
	} else {
		report.Moved = len(plan.Writes)
		if err := r.area.Remove(ctx, plan.Deletes...); err != nil {
			r.logger.Errorw("failed to remove superseded entries", "count", len(plan.Deletes), "error", err)
			errs = append(errs, err)
		} else {
			report.Deleted = len(plan.Deletes)
		}
	}

	purged, err := r.PurgeUnknown(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.Purged = purged

	r.logger.Infow("reconciliation finished",
		"moved", report.Moved,
		"deleted", report.Deleted,
		"purged", report.Purged,
		"skipped", len(report.Skipped),
	)
	return report, errors.Join(errs...)
}

// PurgeUnknown removes records with an unknown project or repository and their stats.
// It returns the number of storage keys removed.
func (r *Runner) PurgeUnknown(ctx context.Context) (int, error) {
	snapshot, err := r.area.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot storage: %w", err)
	}

	keys := UnknownKeys(snapshot)
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.area.Remove(ctx, keys...); err != nil {
		r.logger.Errorw("failed to purge unknown records", "count", len(keys), "error", err)
		return 0, fmt.Errorf("failed to purge unknown records: %w", err)
	}

	r.logger.Infow("purged records with unknown project or repository", "count", len(keys))
	if r.notifier != nil {
		for _, k := range keys {
			if prkey.IsInfoKey(k) {
				r.notifier.Notify(prkey.Key(prkey.StatsKeyFromInfoKey(k)))
			}
		}
	}
	return len(keys), nil
}
