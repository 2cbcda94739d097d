package popup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/platform"
	pullrequestRepository "github.com/festy23/prtracker/internal/pullrequest/repository"
)

// Default timeouts.
const (
	PingTimeout = 3 * time.Second
	LoadTimeout = 5 * time.Second
)

// Listing is a loaded set of items.
type Listing struct {
	Items []Item
	// FromCache is set when the items came from pr_data_cache.
	FromCache bool
	// CachedAt is the cache timestamp in epoch milliseconds.
	CachedAt int64
}

// Popup runs popup actions against a runtime.
type Popup struct {
	rt          platform.Runtime
	cache       pullrequestRepository.Repository
	pingTimeout time.Duration
	loadTimeout time.Duration
	logger      *zap.SugaredLogger
}

// New creates a popup over rt. Zero timeouts use the defaults.
func New(rt platform.Runtime, pingTimeout, loadTimeout time.Duration, logger *zap.SugaredLogger) *Popup {
	if pingTimeout <= 0 {
		pingTimeout = PingTimeout
	}
	if loadTimeout <= 0 {
		loadTimeout = LoadTimeout
	}
	return &Popup{
		rt:          rt,
		cache:       pullrequestRepository.New(rt.Storage(), logger),
		pingTimeout: pingTimeout,
		loadTimeout: loadTimeout,
		logger:      logger,
	}
}

// Connect checks that the background service is running.
func (p *Popup) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.pingTimeout)
	defer cancel()

	if err := p.rt.Ping(ctx); err != nil {
		p.logger.Debugw("ping failed", "error", err)
		return fmt.Errorf("%w: %w", ErrCannotConnect, err)
	}
	return nil
}

// Load returns the cached listing when it has displayable items, otherwise asks the
// service within the load timeout. A failed request falls back to the cache once more.
func (p *Popup) Load(ctx context.Context) (*Listing, error) {
	if l := p.fromCache(ctx); l != nil {
		return l, nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	resp, err := p.rt.Send(loadCtx, &messageModel.Request{Action: messageModel.ActionGetAllPRStats})
	if err == nil && resp.Success {
		return &Listing{Items: ItemsFromViews(resp.PRs)}, nil
	}

	if l := p.fromCache(ctx); l != nil {
		return l, nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(loadCtx.Err(), context.DeadlineExceeded):
		return &Listing{Items: []Item{}}, ErrLoadTimeout
	case err != nil:
		return &Listing{Items: []Item{}}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	default:
		return &Listing{Items: []Item{}}, fmt.Errorf("%w: %s", ErrLoadFailed, resp.Error)
	}
}

func (p *Popup) fromCache(ctx context.Context) *Listing {
	entry, err := p.cache.GetCache(ctx)
	if err != nil {
		p.logger.Debugw("cache unavailable", "error", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	items := make([]Item, 0, len(entry.Data))
	for _, it := range ItemsFromViews(entry.Data) {
		if it.TitleText() != "" {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return &Listing{Items: items, FromCache: true, CachedAt: entry.Timestamp}
}

// Remove stops tracking the pull request under key.
func (p *Popup) Remove(ctx context.Context, key string) error {
	return p.send(ctx, &messageModel.Request{Action: messageModel.ActionRemovePR, PrID: key})
}

// CleanupUnknown purges records saved before the project could be recognized.
func (p *Popup) CleanupUnknown(ctx context.Context) error {
	return p.send(ctx, &messageModel.Request{Action: messageModel.ActionCleanupUnknown})
}

// Open opens the pull request under key in the browser.
func (p *Popup) Open(ctx context.Context, key string) error {
	listing, err := p.Load(ctx)
	if err != nil {
		return err
	}
	for _, it := range listing.Items {
		if it.Key == key {
			return p.rt.OpenTab(ctx, it.URL)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

func (p *Popup) send(ctx context.Context, req *messageModel.Request) error {
	resp, err := p.rt.Send(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return &messageModel.ResponseError{Action: req.Action, Response: resp}
	}
	return nil
}
