package page

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/badge"
	"github.com/festy23/prtracker/internal/identity"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	messageService "github.com/festy23/prtracker/internal/message/service"
	"github.com/festy23/prtracker/internal/prkey"
	pullrequestRepository "github.com/festy23/prtracker/internal/pullrequest/repository"
	pullrequestService "github.com/festy23/prtracker/internal/pullrequest/service"
	"github.com/festy23/prtracker/internal/reconcile"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

const (
	prURL        = "https://bitbucket.org/acme/api/pull-requests/7"
	approvedHTML = `<button aria-pressed="true" aria-label="Unapprove this pull request">Unapprove</button>`
)

type nopNotifier struct{}

func (nopNotifier) Notify(prkey.Key) {}

// recordingSender dispatches to a real message service and keeps every request.
type recordingSender struct {
	svc      messageService.Service
	requests []*messageModel.Request
	before   func(req *messageModel.Request)
}

func (s *recordingSender) Send(ctx context.Context, req *messageModel.Request) (*messageModel.Response, error) {
	if s.before != nil {
		s.before(req)
	}
	s.requests = append(s.requests, req)
	return s.svc.Handle(ctx, req), nil
}

func (s *recordingSender) last() *messageModel.Request {
	return s.requests[len(s.requests)-1]
}

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupController(t *testing.T) (*Controller, *recordingSender, *clock, pullrequestService.Service) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	area := storageRepository.NewMemory(nil)
	prs := pullrequestService.New(pullrequestRepository.New(area, logger), nopNotifier{}, logger)

	sender := &recordingSender{svc: messageService.New(prs, reconcile.NewRunner(area, nil, logger), logger)}
	clk := &clock{t: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
	return NewControllerWithClock(sender, time.Second, logger, clk.Now), sender, clk, prs
}

func newPage(t *testing.T, rawURL, html string) *identity.Page {
	t.Helper()
	p, err := identity.NewPage(rawURL, strings.NewReader(html), nil)
	require.NoError(t, err)
	return p
}

func TestController_Track(t *testing.T) {
	ctx := context.Background()

	t.Run("first visit saves metadata then counts a view", func(t *testing.T) {
		c, sender, _, prs := setupController(t)

		res, err := c.Track(ctx, newPage(t, prURL, approvedHTML))
		require.NoError(t, err)

		require.Len(t, sender.requests, 2)
		save, visit := sender.requests[0], sender.requests[1]
		assert.Equal(t, messageModel.ActionSavePRInfo, save.Action)
		assert.Equal(t, "pr-7", save.PrID)
		require.NotNil(t, save.Info)
		assert.Equal(t, "acme", save.Info.Project)
		assert.Equal(t, "api", save.Info.Repo)
		assert.Equal(t, "7", save.Info.ID)
		assert.Equal(t, "acme/api/7", save.Info.InternalID)
		assert.Equal(t, prURL, save.Info.URL)
		assert.Equal(t, identity.TabOverview, save.Info.CurrentTab)
		assert.True(t, save.Info.IsApprovedByMe)

		assert.Equal(t, messageModel.ActionUpdatePRStats, visit.Action)
		assert.True(t, visit.ShouldIncrementView)
		assert.True(t, visit.IsApproval)
		assert.Equal(t, "acme/api/7", visit.PrInternalID)

		assert.True(t, res.FirstVisit)
		assert.Equal(t, prkey.Key("pr-7"), res.Key)
		require.NotNil(t, res.Stats)
		assert.Equal(t, 1, res.Stats.ReviewCount)
		assert.Equal(t, 1, res.Stats.ApprovalCount)
		assert.Equal(t, badge.ClassOpen, res.Badge.Class)
		assert.Equal(t, 1, res.Badge.Views)

		views, err := prs.ListAll(ctx)
		require.NoError(t, err)
		require.Contains(t, views, "pr-7")
		assert.Equal(t, 1, views["pr-7"].ViewCount)
	})

	t.Run("updates inside the minimum interval are throttled", func(t *testing.T) {
		c, sender, clk, _ := setupController(t)

		_, err := c.Track(ctx, newPage(t, prURL, ""))
		require.NoError(t, err)

		clk.Advance(500 * time.Millisecond)
		_, err = c.Track(ctx, newPage(t, prURL, ""))
		assert.ErrorIs(t, err, ErrThrottled)
		assert.Len(t, sender.requests, 2)
	})

	t.Run("later updates count only a fresh approval", func(t *testing.T) {
		c, sender, clk, _ := setupController(t)

		_, err := c.Track(ctx, newPage(t, prURL, ""))
		require.NoError(t, err)
		assert.False(t, sender.last().IsApproval)

		clk.Advance(2 * time.Second)
		res, err := c.Track(ctx, newPage(t, prURL, approvedHTML))
		require.NoError(t, err)
		assert.False(t, res.FirstVisit)
		assert.False(t, sender.last().ShouldIncrementView)
		assert.True(t, sender.last().IsApproval)
		assert.Equal(t, 1, res.Stats.ReviewCount)
		assert.Equal(t, 1, res.Stats.ApprovalCount)

		clk.Advance(2 * time.Second)
		res, err = c.Track(ctx, newPage(t, prURL, approvedHTML))
		require.NoError(t, err)
		assert.False(t, sender.last().IsApproval)
		assert.Equal(t, 1, res.Stats.ApprovalCount)
	})

	t.Run("navigation starts a new session", func(t *testing.T) {
		c, _, clk, _ := setupController(t)

		first, err := c.Track(ctx, newPage(t, prURL, ""))
		require.NoError(t, err)

		clk.Advance(10 * time.Millisecond)
		second, err := c.Track(ctx, newPage(t, prURL+"/diff", ""))
		require.NoError(t, err)

		assert.NotEqual(t, first.Session.ID, second.Session.ID)
		assert.False(t, first.Session.Alive())
		assert.True(t, second.FirstVisit)
		assert.Equal(t, "Diff", second.Record.CurrentTab)
		assert.Equal(t, 2, second.Stats.ReviewCount)
	})

	t.Run("page without a pull request", func(t *testing.T) {
		c, sender, _, _ := setupController(t)

		_, err := c.Track(ctx, newPage(t, "https://bitbucket.org/acme/api/src/main", ""))
		assert.ErrorIs(t, err, ErrNotPullRequest)
		assert.Empty(t, sender.requests)
	})

	t.Run("leaving mid-update stops reporting", func(t *testing.T) {
		c, sender, _, _ := setupController(t)
		sender.before = func(req *messageModel.Request) {
			if req.Action == messageModel.ActionSavePRInfo {
				c.Leave()
			}
		}

		_, err := c.Track(ctx, newPage(t, prURL, ""))
		assert.ErrorIs(t, err, ErrSessionEnded)
		require.Len(t, sender.requests, 1)
		assert.Nil(t, c.Session())
	})
}

type stubSender struct {
	resp *messageModel.Response
	err  error
}

func (s stubSender) Send(context.Context, *messageModel.Request) (*messageModel.Response, error) {
	return s.resp, s.err
}

func TestController_TrackResponses(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	t.Run("ignored visit", func(t *testing.T) {
		c := NewController(stubSender{resp: &messageModel.Response{Ignored: true}}, time.Second, logger)

		res, err := c.Track(ctx, newPage(t, prURL, ""))
		require.NoError(t, err)
		assert.True(t, res.Ignored)
	})

	t.Run("rejected visit", func(t *testing.T) {
		c := NewController(stubSender{resp: messageModel.Failure(messageModel.ErrorStorageFailure)}, time.Second, logger)

		res, err := c.Track(ctx, newPage(t, prURL, ""))
		assert.ErrorIs(t, err, ErrRejected)
		require.NotNil(t, res)
		assert.Equal(t, prkey.Key("pr-7"), res.Key)
	})

	t.Run("delivery failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		c := NewController(stubSender{err: boom}, time.Second, logger)

		_, err := c.Track(ctx, newPage(t, prURL, ""))
		assert.ErrorIs(t, err, boom)
		assert.False(t, c.Session().Processed)
	})
}

func TestController_Navigate(t *testing.T) {
	c := NewController(stubSender{}, time.Second, zap.NewNop().Sugar())

	s1 := c.Navigate(prURL)
	assert.Same(t, s1, c.Navigate(prURL))

	s2 := c.Navigate(prURL + "/commits")
	assert.NotSame(t, s1, s2)
	assert.False(t, s1.Alive())
	assert.True(t, s2.Alive())

	c.Leave()
	assert.False(t, s2.Alive())
	assert.Nil(t, c.Session())
}
