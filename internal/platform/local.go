package platform

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/broadcast"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	messageService "github.com/festy23/prtracker/internal/message/service"
	"github.com/festy23/prtracker/internal/scheduler"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

// Local runs every context inside one process: messages go straight to the dispatcher
// and events come from the in-process broadcaster.
type Local struct {
	area        storageRepository.Repository
	messages    messageService.Service
	broadcaster *broadcast.Broadcaster
	scheduler   *scheduler.Scheduler
	opener      Opener
	closed      atomic.Bool
	logger      *zap.SugaredLogger
}

var _ Runtime = (*Local)(nil)

// NewLocal creates an in-process runtime.
func NewLocal(
	area storageRepository.Repository,
	messages messageService.Service,
	broadcaster *broadcast.Broadcaster,
	opener Opener,
	logger *zap.SugaredLogger,
) *Local {
	return &Local{
		area:        area,
		messages:    messages,
		broadcaster: broadcaster,
		scheduler:   scheduler.New(logger),
		opener:      opener,
		logger:      logger,
	}
}

// Storage returns the shared key-value area.
func (l *Local) Storage() storageRepository.Repository {
	return l.area
}

// Send dispatches req in-process.
func (l *Local) Send(ctx context.Context, req *messageModel.Request) (*messageModel.Response, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	return l.messages.Handle(ctx, req), nil
}

// Ping asks the dispatcher for a pong.
func (l *Local) Ping(ctx context.Context) error {
	resp, err := l.Send(ctx, &messageModel.Request{Action: messageModel.ActionPing})
	if err != nil {
		return err
	}
	if !resp.Success {
		return &messageModel.ResponseError{Action: messageModel.ActionPing, Response: resp}
	}
	return nil
}

// Listen subscribes to the broadcaster until ctx is done.
func (l *Local) Listen(ctx context.Context) (<-chan broadcast.Event, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	events, unsubscribe := l.broadcaster.Subscribe()
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return events, nil
}

// OpenTab opens rawURL with the configured opener.
func (l *Local) OpenTab(ctx context.Context, rawURL string) error {
	return openTab(ctx, l.opener, rawURL)
}

// Schedule fires job every interval until ctx is done.
func (l *Local) Schedule(ctx context.Context, name string, interval time.Duration, job scheduler.Job) {
	l.scheduler.Every(ctx, name, interval, job)
}

// Close waits for scheduled jobs. Callers cancel the schedule context first.
func (l *Local) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.scheduler.Wait()
	return nil
}
