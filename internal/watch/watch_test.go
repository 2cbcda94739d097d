package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ch <-chan Change, n int, within time.Duration) []Change {
	t.Helper()
	var out []Change
	deadline := time.After(within)
	for len(out) < n {
		select {
		case c, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, c)
		case <-deadline:
			return out
		}
	}
	return out
}

func TestInitial(t *testing.T) {
	got := collect(t, Initial().Events(context.Background()), 2, time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, SourceInitial, got[0].Source)
}

func TestTimer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Timer(5 * time.Millisecond).Events(ctx)

	got := collect(t, ch, 3, 2*time.Second)
	assert.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, SourceTimer, c.Source)
	}

	cancel()
	for range ch {
	}
}

func TestFilePoller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := FilePoller{Path: path, Interval: 5 * time.Millisecond}.Events(ctx)

	assert.Empty(t, collect(t, ch, 1, 50*time.Millisecond))

	require.NoError(t, os.WriteFile(path, []byte("<html><body>approved</body></html>"), 0o600))
	got := collect(t, ch, 1, 2*time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, SourceFile, got[0].Source)
}

func TestChannel(t *testing.T) {
	in := make(chan string, 3)
	in <- "pr-1"
	in <- "pr-2"
	in <- "pr-1"
	close(in)

	src := Channel(in, func(key string) (Change, bool) {
		return Change{}, key == "pr-1"
	})
	got := collect(t, src.Events(context.Background()), 3, time.Second)
	require.Len(t, got, 2)
	assert.Equal(t, SourceChannel, got[0].Source)
	assert.False(t, got[0].At.IsZero())
}

func TestMerge(t *testing.T) {
	a := make(chan int, 1)
	b := make(chan int, 1)
	a <- 1
	b <- 2
	close(a)
	close(b)

	conv := func(name string) func(int) (Change, bool) {
		return func(int) (Change, bool) { return Change{Source: name}, true }
	}
	merged := Merge(Channel(a, conv("a")), Channel(b, conv("b")), Initial()).Events(context.Background())

	var sources []string
	for c := range merged {
		sources = append(sources, c.Source)
	}
	assert.ElementsMatch(t, []string{"a", "b", SourceInitial}, sources)
}

func TestDebounce(t *testing.T) {
	t.Run("burst collapses to one change", func(t *testing.T) {
		in := make(chan int)
		src := Debounce(Channel(in, func(int) (Change, bool) { return Change{}, true }), 30*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		out := src.Events(ctx)

		for i := range 5 {
			in <- i
		}
		got := collect(t, out, 2, 300*time.Millisecond)
		assert.Len(t, got, 1)
	})

	t.Run("pending change flushed on close", func(t *testing.T) {
		in := make(chan int, 1)
		in <- 1
		close(in)
		src := Debounce(Channel(in, func(int) (Change, bool) { return Change{}, true }), time.Hour)

		got := collect(t, src.Events(context.Background()), 2, time.Second)
		assert.Len(t, got, 1)
	})
}

func TestRun(t *testing.T) {
	t.Run("stops on handler error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		boom := errors.New("boom")
		calls := 0
		err := Run(ctx, Timer(time.Millisecond), func(context.Context, Change) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("returns when the source closes", func(t *testing.T) {
		calls := 0
		err := Run(context.Background(), Initial(), func(context.Context, Change) error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
