package platform

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/broadcast"
	messageClient "github.com/festy23/prtracker/internal/message/client"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/scheduler"
	storageClient "github.com/festy23/prtracker/internal/storage/client"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

// Remote reaches a running service over HTTP.
type Remote struct {
	client    *messageClient.Client
	area      storageRepository.Repository
	scheduler *scheduler.Scheduler
	opener    Opener
	closed    atomic.Bool
	logger    *zap.SugaredLogger
}

var _ Runtime = (*Remote)(nil)

// NewRemote creates a runtime talking to the service at baseURL.
func NewRemote(baseURL string, timeout time.Duration, opener Opener, logger *zap.SugaredLogger) *Remote {
	client := messageClient.New(baseURL, timeout, logger)
	return &Remote{
		client:    client,
		area:      storageClient.New(client.BaseURL(), client.HTTPClient(), logger),
		scheduler: scheduler.New(logger),
		opener:    opener,
		logger:    logger,
	}
}

// Storage returns the service's storage area.
func (r *Remote) Storage() storageRepository.Repository {
	return r.area
}

// Send posts req to the service.
func (r *Remote) Send(ctx context.Context, req *messageModel.Request) (*messageModel.Response, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return r.client.Send(ctx, req)
}

// Listen opens the service's event stream.
func (r *Remote) Listen(ctx context.Context) (<-chan broadcast.Event, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return r.client.Listen(ctx)
}

// Ping checks that the service answers within ctx.
func (r *Remote) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// OpenTab opens rawURL with the configured opener.
func (r *Remote) OpenTab(ctx context.Context, rawURL string) error {
	return openTab(ctx, r.opener, rawURL)
}

// Schedule fires job every interval until ctx is done.
func (r *Remote) Schedule(ctx context.Context, name string, interval time.Duration, job scheduler.Job) {
	r.scheduler.Every(ctx, name, interval, job)
}

// Close waits for scheduled jobs. Callers cancel the schedule context first.
func (r *Remote) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.scheduler.Wait()
	return nil
}
