package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_Every(t *testing.T) {
	t.Run("fires until cancelled", func(t *testing.T) {
		s := New(zap.NewNop().Sugar())
		ctx, cancel := context.WithCancel(context.Background())

		var ticks atomic.Int32
		s.Every(ctx, "keepAlive", 10*time.Millisecond, func(context.Context) {
			ticks.Add(1)
		})

		assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		s.Wait()

		stopped := ticks.Load()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, stopped, ticks.Load())
	})

	t.Run("slow ticks overlap", func(t *testing.T) {
		s := New(zap.NewNop().Sugar())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var running, peak atomic.Int32
		release := make(chan struct{})
		s.Every(ctx, "refresh", 5*time.Millisecond, func(context.Context) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
		})

		assert.Eventually(t, func() bool { return peak.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		close(release)
		s.Wait()
	})

	t.Run("panicking tick keeps the alarm armed", func(t *testing.T) {
		s := New(zap.NewNop().Sugar())
		ctx, cancel := context.WithCancel(context.Background())

		var ticks atomic.Int32
		s.Every(ctx, "reconcile", 5*time.Millisecond, func(context.Context) {
			ticks.Add(1)
			panic("boom")
		})

		assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		s.Wait()
	})

	t.Run("non-positive interval disables", func(t *testing.T) {
		s := New(zap.NewNop().Sugar())
		var ticks atomic.Int32
		s.Every(context.Background(), "reconcile", 0, func(context.Context) {
			ticks.Add(1)
		})
		s.Wait()
		assert.Zero(t, ticks.Load())
	})
}
