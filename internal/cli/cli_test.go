package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/app"
	"github.com/festy23/prtracker/internal/config"
	"github.com/festy23/prtracker/internal/platform"
	"github.com/festy23/prtracker/internal/popup"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

const (
	prURL    = "https://bitbucket.org/acme/api/pull-requests/7"
	pageHTML = `<html><head><title>Add retries</title></head><body></body></html>`
)

type recordingOpener struct {
	mu     sync.Mutex
	opened []string
}

func (o *recordingOpener) Open(_ context.Context, rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, rawURL)
	return nil
}

func clientConfig(serverURL string) config.ClientConfig {
	return config.ClientConfig{
		ServerURL:   serverURL,
		Timeout:     2 * time.Second,
		PingTimeout: time.Second,
		LoadTimeout: time.Second,
	}
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func trackedSeed() storageModel.Items {
	return storageModel.Items{
		"pr-info-pr-1": raw(`{"project":"acme","repo":"api","id":"1","title":"Add retries",
			"url":"https://bitbucket.org/acme/api/pull-requests/1","status":"open","lastVisited":1700000000000}`),
		"pr-1": raw(`{"reviewCount":2,"approvalCount":0}`),
		"pr-info-pr-2": raw(`{"project":"acme","repo":"web","id":"2","title":"Fix login",
			"url":"https://bitbucket.org/acme/web/pull-requests/2","status":"open","isApprovedByMe":true}`),
		"pr-2": raw(`{"reviewCount":1,"approvalCount":1}`),
	}
}

// localOptions runs every command against one in-process background context.
func localOptions(t *testing.T, seed storageModel.Items) (*Options, *app.App, *recordingOpener) {
	t.Helper()
	a := app.NewWithArea(storageRepository.NewMemory(seed), nil, zap.NewNop().Sugar())
	t.Cleanup(func() { _ = a.Close() })

	opener := &recordingOpener{}
	opts := &Options{
		Client: clientConfig("http://127.0.0.1:8080"),
		NewRuntime: func(_ context.Context, logger *zap.SugaredLogger) (platform.Runtime, error) {
			return platform.NewLocal(a.Area, a.Messages, a.Broadcaster, opener, logger), nil
		},
	}
	return opts, a, opener
}

func execute(ctx context.Context, opts *Options, stdin string, args ...string) (string, error) {
	cmd := RootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	root := RootCmd(DefaultOptions())

	want := []string{"track", "watch", "list", "remove", "cleanup", "open", "ping", "reconcile", "stats"}
	var got []string
	for _, sub := range root.Commands() {
		got = append(got, sub.Name())
		assert.NotEmpty(t, sub.Short, "%s should have a Short description", sub.Name())
	}
	assert.Subset(t, got, want)

	for _, name := range []string{"server", "timeout", "local", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestRootCmd_InvalidServerURL(t *testing.T) {
	opts, _, _ := localOptions(t, nil)

	_, err := execute(context.Background(), opts, "", "ping", "--server", "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRTRACKER_SERVER_URL")
}

func TestPingCmd(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		opts, _, _ := localOptions(t, nil)

		out, err := execute(context.Background(), opts, "", "ping")
		require.NoError(t, err)
		assert.Contains(t, out, "Background service is running")
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		opts := &Options{Client: clientConfig(url)}
		opts.Client.PingTimeout = 300 * time.Millisecond

		out, err := execute(context.Background(), opts, "", "ping")
		require.ErrorIs(t, err, popup.ErrCannotConnect)
		assert.Contains(t, err.Error(), "Hint:")
		assert.Contains(t, out, "Cannot connect to the background service")
	})
}

func TestTrackCmd(t *testing.T) {
	ctx := context.Background()

	t.Run("page from stdin counts a visit", func(t *testing.T) {
		opts, a, _ := localOptions(t, nil)

		out, err := execute(ctx, opts, pageHTML, "track", "--url", prURL)
		require.NoError(t, err)
		assert.Contains(t, out, "pr-7")
		assert.Contains(t, out, "visit counted")

		stats, err := a.PullRequests.GetStats(ctx, "pr-7")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ReviewCount)

		record, err := a.PullRequests.GetRecord(ctx, "pr-7")
		require.NoError(t, err)
		assert.Equal(t, "acme", record.Project)
		assert.Equal(t, prURL, record.URL)
	})

	t.Run("page file with globals", func(t *testing.T) {
		opts, a, _ := localOptions(t, nil)
		dir := t.TempDir()
		pagePath := filepath.Join(dir, "page.html")
		globalsPath := filepath.Join(dir, "globals.json")
		require.NoError(t, os.WriteFile(pagePath, []byte(pageHTML), 0o600))
		require.NoError(t, os.WriteFile(globalsPath, []byte(`{}`), 0o600))

		_, err := execute(ctx, opts, "", "track", pagePath, "--url", prURL, "--globals", globalsPath)
		require.NoError(t, err)

		_, err = execute(ctx, opts, "", "track", pagePath, "--url", prURL)
		require.NoError(t, err)

		stats, err := a.PullRequests.GetStats(ctx, "pr-7")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.ReviewCount)
	})

	t.Run("page without a pull request", func(t *testing.T) {
		opts, _, _ := localOptions(t, nil)

		_, err := execute(ctx, opts, pageHTML, "track", "--url", "https://bitbucket.org/acme/api/src/main")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no pull request found")
	})

	t.Run("url is required", func(t *testing.T) {
		opts, _, _ := localOptions(t, nil)

		_, err := execute(ctx, opts, pageHTML, "track")
		require.Error(t, err)
	})

	t.Run("missing page file", func(t *testing.T) {
		opts, _, _ := localOptions(t, nil)

		_, err := execute(ctx, opts, "", "track", filepath.Join(t.TempDir(), "missing.html"), "--url", prURL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open page")
	})
}

func TestWatchCmd(t *testing.T) {
	t.Run("reports the page until interrupted", func(t *testing.T) {
		opts, a, _ := localOptions(t, nil)
		pagePath := filepath.Join(t.TempDir(), "page.html")
		require.NoError(t, os.WriteFile(pagePath, []byte(pageHTML), 0o600))

		ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
		defer cancel()

		out, err := execute(ctx, opts, "", "watch", pagePath, "--url", prURL, "--interval", "0", "--poll", "50ms")
		require.NoError(t, err)
		assert.Contains(t, out, "pr-7")
		assert.Contains(t, out, "visit counted")

		stats, err := a.PullRequests.GetStats(context.Background(), "pr-7")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ReviewCount)
	})

	t.Run("stdin is rejected", func(t *testing.T) {
		opts, _, _ := localOptions(t, nil)

		_, err := execute(context.Background(), opts, pageHTML, "watch", "-", "--url", prURL)
		require.Error(t, err)
	})
}

func TestListCmd(t *testing.T) {
	ctx := context.Background()

	t.Run("everything", func(t *testing.T) {
		opts, _, _ := localOptions(t, trackedSeed())

		out, err := execute(ctx, opts, "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Add retries")
		assert.Contains(t, out, "Fix login")
		assert.Contains(t, out, "Showing 2 of 2 PRs")
		assert.Less(t, strings.Index(out, "Add retries"), strings.Index(out, "Fix login"))
	})

	t.Run("pending only", func(t *testing.T) {
		opts, _, _ := localOptions(t, trackedSeed())

		out, err := execute(ctx, opts, "", "list", "--approved=false")
		require.NoError(t, err)
		assert.Contains(t, out, "Add retries")
		assert.NotContains(t, out, "Fix login")
		assert.Contains(t, out, "Showing 1 of 2 PRs")
	})

	t.Run("text filter without matches", func(t *testing.T) {
		opts, _, _ := localOptions(t, trackedSeed())

		out, err := execute(ctx, opts, "", "list", "--filter", "nothing-matches")
		require.NoError(t, err)
		assert.Contains(t, out, "No PRs match your filters")
	})

	t.Run("nothing tracked", func(t *testing.T) {
		opts, _, _ := localOptions(t, nil)

		out, err := execute(ctx, opts, "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "No PRs tracked yet")
	})

	t.Run("cached listing", func(t *testing.T) {
		opts, a, _ := localOptions(t, trackedSeed())
		_, err := a.PullRequests.RefreshCache(ctx)
		require.NoError(t, err)

		out, err := execute(ctx, opts, "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Showing 2 of 2 PRs")
		assert.Contains(t, out, "(cached")
	})
}

func TestRemoveCmd(t *testing.T) {
	ctx := context.Background()
	opts, a, _ := localOptions(t, trackedSeed())

	out, err := execute(ctx, opts, "", "remove", "pr-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed pr-1")

	items, err := a.Area.Get(ctx, "pr-1", "pr-info-pr-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = execute(ctx, opts, "", "remove", "not-a-key")
	require.Error(t, err)
}

func TestCleanupCmd(t *testing.T) {
	ctx := context.Background()
	seed := trackedSeed()
	seed["pr-info-pr-3"] = raw(`{"project":"unknown-project","repo":"api","title":"Ghost"}`)
	seed["pr-3"] = raw(`{"reviewCount":1,"approvalCount":0}`)
	opts, a, _ := localOptions(t, seed)

	out, err := execute(ctx, opts, "", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned up")

	views, err := a.PullRequests.ListAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, views, "pr-3")
	assert.Contains(t, views, "pr-1")
}

func TestOpenCmd(t *testing.T) {
	ctx := context.Background()

	t.Run("tracked", func(t *testing.T) {
		opts, _, opener := localOptions(t, trackedSeed())

		out, err := execute(ctx, opts, "", "open", "pr-2")
		require.NoError(t, err)
		assert.Contains(t, out, "Opened pr-2")
		assert.Equal(t, []string{"https://bitbucket.org/acme/web/pull-requests/2"}, opener.opened)
	})

	t.Run("not tracked", func(t *testing.T) {
		opts, _, opener := localOptions(t, trackedSeed())

		_, err := execute(ctx, opts, "", "open", "pr-404")
		require.ErrorIs(t, err, popup.ErrNotFound)
		assert.Empty(t, opener.opened)
	})
}

func TestReconcileCmd(t *testing.T) {
	ctx := context.Background()
	opts, a, _ := localOptions(t, storageModel.Items{
		"pr-info-99": raw(`{"project":"A","repo":"B","url":"https://bitbucket.org/A/B/pull-requests/99"}`),
		"99":         raw(`{"reviewCount":3,"approvalCount":0}`),
	})

	out, err := execute(ctx, opts, "", "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 2, deleted 2, purged 0")

	stats, err := a.PullRequests.GetStats(ctx, "pr-99")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ReviewCount)

	out, err = execute(ctx, opts, "", "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 0, deleted 0, purged 0")
}

func TestStatsCmd(t *testing.T) {
	ctx := context.Background()

	t.Run("summary", func(t *testing.T) {
		opts, _, _ := localOptions(t, trackedSeed())

		out, err := execute(ctx, opts, "", "stats")
		require.NoError(t, err)
		assert.Contains(t, out, "Tracked:   2 (2 open")
		assert.Contains(t, out, "Approved by me: 1")
		assert.Contains(t, out, "Pending reviews: 1")
	})

	t.Run("by repository", func(t *testing.T) {
		opts, _, _ := localOptions(t, trackedSeed())

		out, err := execute(ctx, opts, "", "stats", "--by-repo")
		require.NoError(t, err)
		assert.Contains(t, out, "PROJECT")
		assert.Contains(t, out, "acme")
		assert.Contains(t, out, "web")
	})
}

func TestRemoteRuntime(t *testing.T) {
	ctx := context.Background()
	a := app.NewWithArea(storageRepository.NewMemory(trackedSeed()), nil, zap.NewNop().Sugar())
	defer func() { _ = a.Close() }()

	srv := httptest.NewServer(a.Router(gin.TestMode))
	defer srv.Close()

	opts := &Options{Client: clientConfig(srv.URL)}

	out, err := execute(ctx, opts, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 2 PRs")

	out, err = execute(ctx, opts, pageHTML, "track", "--url", prURL)
	require.NoError(t, err)
	assert.Contains(t, out, "pr-7")

	stats, err := a.PullRequests.GetStats(ctx, "pr-7")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReviewCount)
}
