package page

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/badge"
	"github.com/festy23/prtracker/internal/identity"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

// Sender delivers protocol messages to the background service.
type Sender interface {
	Send(ctx context.Context, req *messageModel.Request) (*messageModel.Response, error)
}

// Result is the outcome of one tracked update.
type Result struct {
	Session  *Session
	Key      prkey.Key
	Identity *identity.Identity
	Record   *pullrequestModel.Record
	Stats    *pullrequestModel.Stats
	Badge    badge.Badge
	// FirstVisit is set when the update counted as a view.
	FirstVisit bool
	// Ignored is set when the service refused the visit for an unknown project.
	Ignored bool
}

// Controller owns the current session of one tab.
type Controller struct {
	sender      Sender
	minInterval time.Duration
	now         func() time.Time
	logger      *zap.SugaredLogger

	// track serializes Track; mu guards session only, so Leave never waits on the network.
	track   sync.Mutex
	mu      sync.Mutex
	session *Session
}

// NewController creates a controller that throttles updates to one per minInterval.
func NewController(sender Sender, minInterval time.Duration, logger *zap.SugaredLogger) *Controller {
	return NewControllerWithClock(sender, minInterval, logger, time.Now)
}

// NewControllerWithClock is NewController with an injectable clock.
func NewControllerWithClock(
	sender Sender,
	minInterval time.Duration,
	logger *zap.SugaredLogger,
	now func() time.Time,
) *Controller {
	return &Controller{
		sender:      sender,
		minInterval: minInterval,
		now:         now,
		logger:      logger,
	}
}

// Session returns the current session, or nil before the first navigation.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Navigate moves the tab to rawURL. Staying on the same URL keeps the session.
func (c *Controller) Navigate(rawURL string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.URL == rawURL && c.session.Alive() {
		return c.session
	}
	if c.session != nil {
		c.session.End()
		c.logger.Debugw("session ended", "session", c.session.ID, "url", c.session.URL)
	}
	c.session = NewSession(rawURL, c.now())
	c.logger.Debugw("session started", "session", c.session.ID, "url", rawURL)
	return c.session
}

// Leave ends the current session.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.End()
		c.session = nil
	}
}

// Track reports the page snapshot to the service. The first update of a session counts
// as a view; later updates refresh metadata and count an approval only when the viewer
// has just approved.
func (c *Controller) Track(ctx context.Context, p *identity.Page) (*Result, error) {
	c.track.Lock()
	defer c.track.Unlock()

	s := c.Navigate(p.URL.String())
	now := c.now()
	if s.throttled(now, c.minInterval) {
		return nil, ErrThrottled
	}

	id, ok := identity.Extract(p)
	if !ok {
		c.logger.Debugw("no pull request identity on page", "url", s.URL, "sources", sources(id))
		return nil, ErrNotPullRequest
	}

	key := prkey.FromIdentity(id)
	details := identity.ExtractDetails(p)
	record := buildRecord(id, details, s.URL, now)

	first := !s.Processed || s.Key != key
	visit := &messageModel.Request{
		Action:       messageModel.ActionUpdatePRStats,
		PrID:         key.String(),
		PrInternalID: id.InternalID(),
	}
	if first {
		visit.ShouldIncrementView = true
		visit.IsApproval = id.IsApproved()
	} else {
		visit.IsApproval = id.IsApproved() && !s.Approved
	}

	if !s.Alive() {
		return nil, ErrSessionEnded
	}
	if err := c.send(ctx, &messageModel.Request{
		Action: messageModel.ActionSavePRInfo,
		PrID:   key.String(),
		Info:   record,
	}); err != nil {
		return nil, err
	}

	if !s.Alive() {
		return nil, ErrSessionEnded
	}
	resp, err := c.sender.Send(ctx, visit)
	if err != nil {
		return nil, fmt.Errorf("failed to report visit: %w", err)
	}

	s.Key = key
	s.Processed = true
	s.Approved = id.IsApproved()
	s.LastUpdate = now

	result := &Result{
		Session:    s,
		Key:        key,
		Identity:   id,
		Record:     record,
		Stats:      resp.Stats,
		FirstVisit: first,
		Ignored:    resp.Ignored,
	}
	if !resp.Success && !resp.Ignored {
		return result, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}

	views := record.ViewCount
	if resp.Stats != nil && resp.Stats.ReviewCount > views {
		views = resp.Stats.ReviewCount
	}
	result.Badge = badge.New(record.Status, id.IsApproved(), views, record.TotalApprovals)

	c.logger.Infow("pull request tracked",
		"key", key,
		"session", s.ID,
		"firstVisit", first,
		"approved", id.IsApproved(),
		"sources", id.ExtractionSources,
	)
	return result, nil
}

func (c *Controller) send(ctx context.Context, req *messageModel.Request) error {
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to report %s: %w", req.Action, err)
	}
	if !resp.Success {
		c.logger.Warnw("service rejected page update", "action", req.Action, "prId", req.PrID, "error", resp.Error)
	}
	return nil
}

func buildRecord(id *identity.Identity, d identity.Details, rawURL string, now time.Time) *pullrequestModel.Record {
	return &pullrequestModel.Record{
		Project:        id.Workspace,
		Repo:           id.Repository,
		ID:             id.PullRequestNumber,
		InternalID:     id.InternalID(),
		URL:            rawURL,
		Title:          d.Title,
		CurrentTab:     d.CurrentTab,
		IsApprovedByMe: id.IsApproved(),
		Status:         id.Status,
		LastVisited:    pullrequestModel.Millis(now),
		CommentCount:   d.CommentCount,
		TotalApprovals: d.TotalApprovals,
	}
}

func sources(id *identity.Identity) []string {
	if id == nil {
		return nil
	}
	return id.ExtractionSources
}
