package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/festy23/prtracker/internal/platform"
	"github.com/festy23/prtracker/internal/popup"
)

func newPopup(opts *Options, rt platform.Runtime) *popup.Popup {
	return popup.New(rt, opts.Client.PingTimeout, opts.Client.LoadTimeout, opts.log())
}

// connect checks the background service before any popup action.
func connect(ctx context.Context, p *popup.Popup) error {
	if err := p.Connect(ctx); err != nil {
		return fmt.Errorf("%w\nHint: start the background server and try again, or pass --local", err)
	}
	return nil
}

// ListCmd returns the list command
func ListCmd(opts *Options) *cobra.Command {
	filter := popup.DefaultFilter()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked pull requests",
		Long: `List tracked pull requests: open ones you have not approved first, then by
last visit. Closed pull requests sort last.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withRuntime(ctx, func(rt platform.Runtime) error {
				p := newPopup(opts, rt)
				if err := connect(ctx, p); err != nil {
					return err
				}

				listing, err := p.Load(ctx)
				if errors.Is(err, popup.ErrLoadTimeout) {
					return fmt.Errorf("%w\nHint: the server did not answer within %s", err, opts.Client.LoadTimeout)
				}
				if err != nil {
					return err
				}

				now := time.Now()
				shown := filter.Apply(listing.Items)
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, popup.Render(shown, len(listing.Items), now))
				if listing.FromCache {
					fmt.Fprintf(out, "(cached %s)\n", popup.TimeAgo(listing.CachedAt, now))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Text, "filter", "f", "", "Match title, project, repository or number")
	cmd.Flags().BoolVar(&filter.ShowApproved, "approved", true, "Show pull requests you approved")
	cmd.Flags().BoolVar(&filter.ShowPending, "pending", true, "Show pull requests you have not approved")

	return cmd
}

// RemoveCmd returns the remove command
func RemoveCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>...",
		Short: "Stop tracking pull requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withRuntime(ctx, func(rt platform.Runtime) error {
				p := newPopup(opts, rt)
				if err := connect(ctx, p); err != nil {
					return err
				}

				for _, key := range args {
					if err := p.Remove(ctx, key); err != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", failMark, key)
						return fmt.Errorf("failed to remove %s: %w", key, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", okMark, key)
				}
				return nil
			})
		},
	}
}

// CleanupCmd returns the cleanup command
func CleanupCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove records saved before their project was recognized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withRuntime(ctx, func(rt platform.Runtime) error {
				p := newPopup(opts, rt)
				if err := connect(ctx, p); err != nil {
					return err
				}
				if err := p.CleanupUnknown(ctx); err != nil {
					return fmt.Errorf("failed to clean up: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Cleaned up unknown records\n", okMark)
				return nil
			})
		},
	}
}

// OpenCmd returns the open command
func OpenCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <key>",
		Short: "Open a tracked pull request in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withRuntime(ctx, func(rt platform.Runtime) error {
				p := newPopup(opts, rt)
				if err := connect(ctx, p); err != nil {
					return err
				}
				if err := p.Open(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Opened %s\n", okMark, args[0])
				return nil
			})
		},
	}
}

// PingCmd returns the ping command
func PingCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the background service is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withRuntime(ctx, func(rt platform.Runtime) error {
				if err := connect(ctx, newPopup(opts, rt)); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s Cannot connect to the background service. Please try reloading.\n", failMark)
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Background service is running\n", okMark)
				return nil
			})
		},
	}
}
