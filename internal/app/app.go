// Package app assembles the background service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prtracker/internal/broadcast"
	"github.com/festy23/prtracker/internal/config"
	dbConfig "github.com/festy23/prtracker/internal/database/config"
	"github.com/festy23/prtracker/internal/database/database"
	"github.com/festy23/prtracker/internal/database/migrate"
	"github.com/festy23/prtracker/internal/health"
	messageRouter "github.com/festy23/prtracker/internal/message/router"
	messageService "github.com/festy23/prtracker/internal/message/service"
	"github.com/festy23/prtracker/internal/middleware"
	"github.com/festy23/prtracker/internal/platform"
	pullrequestRepository "github.com/festy23/prtracker/internal/pullrequest/repository"
	pullrequestRouter "github.com/festy23/prtracker/internal/pullrequest/router"
	pullrequestService "github.com/festy23/prtracker/internal/pullrequest/service"
	"github.com/festy23/prtracker/internal/reconcile"
	"github.com/festy23/prtracker/internal/scheduler"
	statisticsRouter "github.com/festy23/prtracker/internal/statistics/router"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
	storageRouter "github.com/festy23/prtracker/internal/storage/router"
)

// Alarm names.
const (
	AlarmKeepAlive = "keepAlive"
	AlarmReconcile = "reconcile"
)

// App is the background context: storage, record store, reconciliation and change fan-out.
type App struct {
	DB           *gorm.DB
	Area         storageRepository.Repository
	Broadcaster  *broadcast.Broadcaster
	PullRequests pullrequestService.Service
	Reconciler   *reconcile.Runner
	Messages     messageService.Service

	scheduler *scheduler.Scheduler
	logger    *zap.SugaredLogger
	mu        sync.Mutex
	stop      context.CancelFunc
	closeOnce sync.Once
}

// New opens the configured storage and wires the background context over it.
func New(ctx context.Context, cfg dbConfig.Config, logger *zap.SugaredLogger) (*App, error) {
	if cfg.IsMemory() {
		logger.Infow("using in-memory storage area")
		return NewWithArea(storageRepository.NewMemory(nil), nil, logger), nil
	}

	db, err := database.NewWithConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewWithArea(storageRepository.New(db, logger), db, logger), nil
}

// NewWithArea wires the background context over area. db may be nil.
func NewWithArea(area storageRepository.Repository, db *gorm.DB, logger *zap.SugaredLogger) *App {
	b := broadcast.New(logger)
	prs := pullrequestService.New(pullrequestRepository.New(area, logger), b, logger)
	runner := reconcile.NewRunner(area, b, logger)

	return &App{
		DB:           db,
		Area:         area,
		Broadcaster:  b,
		PullRequests: prs,
		Reconciler:   runner,
		Messages:     messageService.New(prs, runner, logger),
		scheduler:    scheduler.New(logger),
		logger:       logger,
	}
}

// Router returns the HTTP surface of the background context.
func (a *App) Router(mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.Recovery(a.logger))

	health.RegisterRoutes(r, health.New(a.Area, a.DB, a.logger))
	messageRouter.RegisterRoutes(r, a.Messages, a.logger)
	storageRouter.RegisterRoutes(r, a.Area, a.logger)
	pullrequestRouter.RegisterRoutes(r, a.PullRequests, a.logger)
	statisticsRouter.RegisterRoutes(r, a.PullRequests, a.logger)
	broadcast.RegisterRoutes(r, a.Broadcaster)

	return r
}

// Start runs startup reconciliation and arms the periodic alarms.
// Alarms stop when ctx is cancelled or the app is closed.
func (a *App) Start(ctx context.Context, cfg config.SchedulerConfig) {
	ctx, stop := context.WithCancel(ctx)
	a.mu.Lock()
	prev := a.stop
	a.stop = stop
	a.mu.Unlock()
	if prev != nil {
		prev()
	}

	if cfg.ReconcileOnStart {
		a.reconcile(ctx)
	}
	a.refreshCache(ctx)

	a.scheduler.Every(ctx, AlarmKeepAlive, cfg.CacheRefreshInterval, a.refreshCache)
	a.scheduler.Every(ctx, AlarmReconcile, cfg.ReconcileInterval, a.reconcile)
}

// Runtime returns an in-process runtime over the background context.
func (a *App) Runtime(opener platform.Opener) platform.Runtime {
	return &localRuntime{
		Local: platform.NewLocal(a.Area, a.Messages, a.Broadcaster, opener, a.logger),
		app:   a,
	}
}

// Close stops the alarms and listeners, waits for running ticks and closes the database.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		if a.stop != nil {
			a.stop()
		}
		a.mu.Unlock()

		a.Broadcaster.Close()
		a.scheduler.Wait()
		if a.DB != nil {
			err = database.Close(a.DB)
		}
	})
	return err
}

func (a *App) refreshCache(ctx context.Context) {
	entry, err := a.PullRequests.RefreshCache(ctx)
	if err != nil {
		a.logger.Errorw("failed to refresh cache", "error", err)
		return
	}
	a.logger.Debugw("cache refreshed", "count", len(entry.Data))
}

func (a *App) reconcile(ctx context.Context) {
	if _, err := a.Reconciler.Run(ctx); err != nil {
		a.logger.Warnw("reconciliation finished with errors", "error", err)
	}
}

// localRuntime closes the whole background context with the runtime.
type localRuntime struct {
	*platform.Local
	app *App
}

func (r *localRuntime) Close() error {
	return errors.Join(r.Local.Close(), r.app.Close())
}
