// Package scheduler runs named alarms on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is the body of one alarm tick.
type Job func(ctx context.Context)

// Scheduler re-arms alarms until their context is cancelled.
// Each tick runs in its own goroutine, so a slow tick may overlap the next one.
type Scheduler struct {
	wg     sync.WaitGroup
	logger *zap.SugaredLogger
}

// New creates a new scheduler instance.
func New(logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Every fires job every interval until ctx is done. A non-positive interval disables the alarm.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, job Job) {
	if interval <= 0 {
		s.logger.Infow("alarm disabled", "alarm", name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Debugw("alarm armed", "alarm", name, "interval", interval)
		for {
			select {
			case <-ctx.Done():
				s.logger.Debugw("alarm stopped", "alarm", name)
				return
			case <-ticker.C:
				s.fire(ctx, name, job)
			}
		}
	}()
}

func (s *Scheduler) fire(ctx context.Context, name string, job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorw("alarm panicked", "alarm", name, "panic", r)
			}
		}()
		job(ctx)
	}()
}

// Wait blocks until every alarm loop and running tick has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
