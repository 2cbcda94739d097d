// Package cli implements the prtracker commands.
package cli

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/app"
	"github.com/festy23/prtracker/internal/config"
	dbConfig "github.com/festy23/prtracker/internal/database/config"
	"github.com/festy23/prtracker/internal/platform"
	"github.com/festy23/prtracker/pkg/logger"
)

// Options holds settings shared by every command.
type Options struct {
	Client  config.ClientConfig
	Local   bool
	Verbose bool

	// NewRuntime replaces runtime construction when set.
	NewRuntime func(ctx context.Context, logger *zap.SugaredLogger) (platform.Runtime, error)

	logger *zap.SugaredLogger
}

// DefaultOptions loads client settings from the environment.
func DefaultOptions() *Options {
	return &Options{Client: config.LoadClientConfigFromEnv()}
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	failMark = color.New(color.FgRed).Sprint("✗")
)

// RootCmd returns the prtracker command tree.
func RootCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prtracker",
		Short: "Track Bitbucket pull request reviews",
		Long: `prtracker records which Bitbucket pull requests you reviewed and approved.

track and watch report captured pull request pages; list, remove, cleanup,
open and ping work on the tracked set. Commands talk to the background
server unless --local runs everything in-process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = logger.NewCLI(opts.Verbose)
			return opts.Client.Validate()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Client.ServerURL, "server", opts.Client.ServerURL, "Background server URL")
	flags.DurationVar(&opts.Client.Timeout, "timeout", opts.Client.Timeout, "Request timeout")
	flags.BoolVar(&opts.Local, "local", false, "Run the background service in-process over DB_* storage")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(TrackCmd(opts))
	cmd.AddCommand(WatchCmd(opts))
	cmd.AddCommand(ListCmd(opts))
	cmd.AddCommand(RemoveCmd(opts))
	cmd.AddCommand(CleanupCmd(opts))
	cmd.AddCommand(OpenCmd(opts))
	cmd.AddCommand(PingCmd(opts))
	cmd.AddCommand(ReconcileCmd(opts))
	cmd.AddCommand(StatsCmd(opts))

	return cmd
}

func (o *Options) log() *zap.SugaredLogger {
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	return o.logger
}

// runtime connects to the background service, or starts one in-process with --local.
func (o *Options) runtime(ctx context.Context) (platform.Runtime, error) {
	lg := o.log()
	if o.NewRuntime != nil {
		return o.NewRuntime(ctx, lg)
	}

	opener := platform.NewSystemOpener(lg)
	if !o.Local {
		return platform.NewRemote(o.Client.ServerURL, o.Client.Timeout, opener, lg), nil
	}

	a, err := app.New(ctx, dbConfig.LoadConfigFromEnv(), lg)
	if err != nil {
		return nil, err
	}
	// one cache refresh so the listing never starts stale; alarms stay disarmed
	a.Start(ctx, config.SchedulerConfig{})
	return a.Runtime(opener), nil
}

// withRuntime runs fn with a runtime that is closed afterwards.
func (o *Options) withRuntime(ctx context.Context, fn func(rt platform.Runtime) error) error {
	rt, err := o.runtime(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			o.log().Warnw("failed to close runtime", "error", err)
		}
	}()
	return fn(rt)
}
