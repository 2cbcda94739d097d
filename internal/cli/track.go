package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/festy23/prtracker/internal/badge"
	"github.com/festy23/prtracker/internal/broadcast"
	"github.com/festy23/prtracker/internal/identity"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/page"
	"github.com/festy23/prtracker/internal/platform"
	"github.com/festy23/prtracker/internal/prkey"
	"github.com/festy23/prtracker/internal/watch"
)

// Page refresh defaults.
const (
	DefaultRefreshInterval = time.Minute
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultDebounce        = 500 * time.Millisecond
)

// pageSource is a captured page: HTML from a file or stdin, its URL and injected globals.
type pageSource struct {
	url         string
	globalsPath string
}

func (s *pageSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.url, "url", "", "URL the page was captured at")
	cmd.Flags().StringVar(&s.globalsPath, "globals", "", "JSON file with the page globals (__initial_state__, __app_data__, BITBUCKET)")
	_ = cmd.MarkFlagRequired("url")
}

// load reads path, or stdin when path is empty or "-".
func (s *pageSource) load(stdin io.Reader, path string) (*identity.Page, error) {
	var globals []byte
	if s.globalsPath != "" {
		raw, err := os.ReadFile(s.globalsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read globals: %w", err)
		}
		globals = raw
	}

	html := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		defer f.Close()
		html = f
	}

	return identity.NewPage(s.url, html, globals)
}

// TrackCmd returns the track command
func TrackCmd(opts *Options) *cobra.Command {
	var src pageSource

	cmd := &cobra.Command{
		Use:   "track [file]",
		Short: "Report one visit to a captured pull request page",
		Long: `Extract the pull request shown on a captured page and report the visit.

The page HTML is read from file, or from stdin when file is omitted or "-".
Every invocation is a fresh navigation and counts as a view.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := src.load(cmd.InOrStdin(), firstArg(args))
			if err != nil {
				return err
			}

			return opts.withRuntime(cmd.Context(), func(rt platform.Runtime) error {
				ctrl := page.NewController(rt, 0, opts.log())
				defer ctrl.Leave()

				res, err := ctrl.Track(cmd.Context(), p)
				return printResult(cmd.OutOrStdout(), res, err)
			})
		},
	}
	src.bind(cmd)

	return cmd
}

// WatchCmd returns the watch command
func WatchCmd(opts *Options) *cobra.Command {
	var (
		src      pageSource
		interval time.Duration
		poll     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Keep reporting a captured page while it changes",
		Long: `Re-read the captured page whenever the file is rewritten or the refresh
interval elapses, and redraw the badge when the service reports a change to
the tracked pull request. Stops on interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" {
				return fmt.Errorf("watch needs a page file, stdin cannot be re-read")
			}

			return opts.withRuntime(cmd.Context(), func(rt platform.Runtime) error {
				w := &watcher{
					src:  src,
					path: args[0],
					rt:   rt,
					ctrl: page.NewController(rt, opts.Client.MinUpdateInterval, opts.log()),
					out:  cmd.OutOrStdout(),
					opts: opts,
				}
				defer w.ctrl.Leave()

				err := w.run(cmd.Context(), interval, poll)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			})
		},
	}
	src.bind(cmd)
	cmd.Flags().DurationVar(&interval, "interval", DefaultRefreshInterval, "Refresh interval, 0 disables")
	cmd.Flags().DurationVar(&poll, "poll", DefaultPollInterval, "How often to check the page file for changes")

	return cmd
}

type watcher struct {
	src  pageSource
	path string
	rt   platform.Runtime
	ctrl *page.Controller
	out  io.Writer
	opts *Options

	mu  sync.Mutex
	key prkey.Key
}

func (w *watcher) run(ctx context.Context, interval, poll time.Duration) error {
	events, err := w.rt.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen for changes: %w", err)
	}

	changes := watch.Merge(
		watch.Initial(),
		watch.Debounce(watch.Merge(
			watch.FilePoller{Path: w.path, Interval: poll, Logger: w.opts.log()},
			watch.Timer(interval),
		), DefaultDebounce),
		watch.Channel(events, w.relevant),
	)

	return watch.Run(ctx, changes, w.handle)
}

// relevant keeps change events about the pull request on the page.
func (w *watcher) relevant(ev broadcast.Event) (watch.Change, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.key == "" || ev.CanonicalKey != w.key {
		return watch.Change{}, false
	}
	return watch.Change{Source: watch.SourceChannel, At: time.Now()}, true
}

func (w *watcher) handle(ctx context.Context, c watch.Change) error {
	lg := w.opts.log()
	if c.Source == watch.SourceChannel {
		w.refreshBadge(ctx)
		return nil
	}

	p, err := w.src.load(nil, w.path)
	if err != nil {
		lg.Warnw("failed to read page", "path", w.path, "error", err)
		return nil
	}

	res, err := w.ctrl.Track(ctx, p)
	switch {
	case errors.Is(err, page.ErrThrottled), errors.Is(err, page.ErrSessionEnded):
		lg.Debugw("page update skipped", "source", c.Source, "reason", err)
		return nil
	case errors.Is(err, context.Canceled):
		return err
	}
	if res != nil {
		w.mu.Lock()
		w.key = res.Key
		w.mu.Unlock()
	}
	if err := printResult(w.out, res, err); err != nil {
		lg.Warnw("page update failed", "source", c.Source, "error", err)
	}
	return nil
}

// refreshBadge redraws the badge from the stored counters.
func (w *watcher) refreshBadge(ctx context.Context) {
	w.mu.Lock()
	key := w.key
	w.mu.Unlock()

	resp, err := w.rt.Send(ctx, &messageModel.Request{Action: messageModel.ActionGetPRStats, PrID: key.String()})
	if err != nil || !resp.Success || resp.Info == nil || resp.Stats == nil {
		w.opts.log().Debugw("badge refresh failed", "key", key, "error", err)
		return
	}

	info := resp.Info
	b := badge.New(info.Status, info.IsApprovedByMe, max(info.ViewCount, resp.Stats.ReviewCount), info.TotalApprovals)
	fmt.Fprintf(w.out, "%s %s %s\n", okMark, key, b.Render())
}

func printResult(out io.Writer, res *page.Result, err error) error {
	switch {
	case errors.Is(err, page.ErrNotPullRequest):
		return fmt.Errorf("no pull request found on the page\nHint: pass the URL the page was captured at with --url")
	case errors.Is(err, page.ErrRejected) && res != nil:
		fmt.Fprintf(out, "%s %s update rejected: %v\n", failMark, res.Key, err)
		return err
	case err != nil:
		return err
	case res.Ignored:
		fmt.Fprintf(out, "%s %s ignored: unknown project or repository\n", warnMark, res.Key)
		return nil
	}

	visit := "refreshed"
	if res.FirstVisit {
		visit = "visit counted"
	}
	fmt.Fprintf(out, "%s %s %s (%s)\n", okMark, res.Key, res.Badge.Render(), visit)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
