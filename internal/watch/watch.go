// Package watch turns timers, file rewrites and service events into one stream of
// "something relevant changed" signals, decoupled from whoever handles them.
package watch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Change is one relevant-change signal.
type Change struct {
	// Source names the backend that fired.
	Source string
	At     time.Time
}

// Source emits changes until ctx is done, then closes the channel.
type Source interface {
	Events(ctx context.Context) <-chan Change
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) <-chan Change

// Events calls f.
func (f SourceFunc) Events(ctx context.Context) <-chan Change {
	return f(ctx)
}

func emit(ctx context.Context, out chan<- Change, c Change) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Merge fans several sources into one. The merged channel closes once every source has.
func Merge(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) <-chan Change {
		out := make(chan Change)
		g, gctx := errgroup.WithContext(ctx)
		for _, src := range sources {
			g.Go(func() error {
				for c := range src.Events(gctx) {
					if !emit(gctx, out, c) {
						return nil
					}
				}
				return nil
			})
		}
		go func() {
			_ = g.Wait()
			close(out)
		}()
		return out
	})
}

// Debounce coalesces bursts: a change is forwarded once src has been quiet for d.
// A burst still pending when src closes is flushed.
func Debounce(src Source, d time.Duration) Source {
	return SourceFunc(func(ctx context.Context) <-chan Change {
		out := make(chan Change)
		in := src.Events(ctx)
		go func() {
			defer close(out)

			var (
				pending *Change
				timer   *time.Timer
				fire    <-chan time.Time
			)
			defer func() {
				if timer != nil {
					timer.Stop()
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return
				case c, ok := <-in:
					if !ok {
						if pending != nil {
							emit(ctx, out, *pending)
						}
						return
					}
					pending = &c
					if timer == nil {
						timer = time.NewTimer(d)
					} else {
						timer.Reset(d)
					}
					fire = timer.C
				case <-fire:
					fire = nil
					if pending != nil {
						if !emit(ctx, out, *pending) {
							return
						}
						pending = nil
					}
				}
			}
		}()
		return out
	})
}

// Run calls handle for every change until src closes or handle fails.
func Run(ctx context.Context, src Source, handle func(ctx context.Context, c Change) error) error {
	for c := range src.Events(ctx) {
		if err := handle(ctx, c); err != nil {
			return err
		}
	}
	return ctx.Err()
}
