package watch

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// Backend names.
const (
	SourceTimer   = "timer"
	SourceFile    = "file"
	SourceChannel = "channel"
	SourceInitial = "initial"
)

// Initial fires once, immediately.
func Initial() Source {
	return SourceFunc(func(ctx context.Context) <-chan Change {
		out := make(chan Change, 1)
		out <- Change{Source: SourceInitial, At: time.Now()}
		close(out)
		return out
	})
}

// Timer fires every interval.
func Timer(interval time.Duration) Source {
	return SourceFunc(func(ctx context.Context) <-chan Change {
		out := make(chan Change)
		go func() {
			defer close(out)
			if interval <= 0 {
				return
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-ticker.C:
					if !emit(ctx, out, Change{Source: SourceTimer, At: t}) {
						return
					}
				}
			}
		}()
		return out
	})
}

// FilePoller fires when the file at path is rewritten, judged by size and modification time.
type FilePoller struct {
	Path     string
	Interval time.Duration
	Logger   *zap.SugaredLogger
}

type fileState struct {
	size    int64
	modTime time.Time
	exists  bool
}

func (s fileState) same(o fileState) bool {
	return s.exists == o.exists && s.size == o.size && s.modTime.Equal(o.modTime)
}

func (p FilePoller) stat() fileState {
	info, err := os.Stat(p.Path)
	if err != nil {
		return fileState{}
	}
	return fileState{size: info.Size(), modTime: info.ModTime(), exists: true}
}

// Events polls the file until ctx is done.
func (p FilePoller) Events(ctx context.Context) <-chan Change {
	out := make(chan Change)
	go func() {
		defer close(out)
		if p.Interval <= 0 {
			return
		}

		last := p.stat()
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				cur := p.stat()
				if cur.same(last) {
					continue
				}
				last = cur
				if !cur.exists {
					if p.Logger != nil {
						p.Logger.Debugw("watched file disappeared", "path", p.Path)
					}
					continue
				}
				if !emit(ctx, out, Change{Source: SourceFile, At: t}) {
					return
				}
			}
		}
	}()
	return out
}

// Channel forwards whatever in delivers, converted by fn. fn returning false drops the value.
func Channel[T any](in <-chan T, fn func(T) (Change, bool)) Source {
	return SourceFunc(func(ctx context.Context) <-chan Change {
		out := make(chan Change)
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-in:
					if !ok {
						return
					}
					c, keep := fn(v)
					if !keep {
						continue
					}
					if c.Source == "" {
						c.Source = SourceChannel
					}
					if c.At.IsZero() {
						c.At = time.Now()
					}
					if !emit(ctx, out, c) {
						return
					}
				}
			}
		}()
		return out
	})
}
