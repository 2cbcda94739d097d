// Package main provides the entry point for the background HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/festy23/prtracker/internal/app"
	"github.com/festy23/prtracker/internal/config"
	dbConfig "github.com/festy23/prtracker/internal/database/config"
	"github.com/festy23/prtracker/pkg/logger"
)

func main() {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lg, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, dbConfig.LoadConfigFromEnv(), lg); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

func run(cfg config.Config, dbCfg dbConfig.Config, lg *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, dbCfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Errorw("failed to close storage", "error", err)
		}
	}()

	a.Start(ctx, cfg.Scheduler)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      a.Router(cfg.GinMode),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Infow("server listening", "addr", srv.Addr, "driver", dbCfg.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Infow("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		// event streams never finish on their own
		a.Broadcaster.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
