// Package platform is the capability set page and popup contexts run against.
// Business logic talks to Runtime and never asks which adapter it got.
package platform

import (
	"context"
	"time"

	"github.com/festy23/prtracker/internal/broadcast"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/scheduler"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

// Runtime describes the host services available to a context.
type Runtime interface {
	// Storage returns the shared key-value area.
	Storage() storageRepository.Repository

	// Send delivers a protocol message to the background service.
	Send(ctx context.Context, req *messageModel.Request) (*messageModel.Response, error)

	// Ping checks that the background service answers within ctx.
	Ping(ctx context.Context) error

	// Listen streams change events until ctx is done. The channel is closed afterwards.
	Listen(ctx context.Context) (<-chan broadcast.Event, error)

	// OpenTab opens rawURL in the user's browser.
	OpenTab(ctx context.Context, rawURL string) error

	// Schedule fires job every interval until ctx is done.
	Schedule(ctx context.Context, name string, interval time.Duration, job scheduler.Job)

	// Close releases the runtime. Scheduled jobs are waited for.
	Close() error
}

// Opener opens a URL outside the process.
type Opener interface {
	Open(ctx context.Context, rawURL string) error
}
