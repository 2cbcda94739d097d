package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/platform"
	"github.com/festy23/prtracker/internal/reconcile"
	"github.com/festy23/prtracker/internal/statistics/model"
	statisticsService "github.com/festy23/prtracker/internal/statistics/service"
)

// ReconcileCmd returns the reconcile command
func ReconcileCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Normalize stored keys and purge unknown records",
		Long: `Rewrite records stored under legacy keys to their canonical pr-<number> keys,
then purge records whose project or repository was never recognized.
Running it twice changes nothing the second time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt platform.Runtime) error {
				req := &messageModel.Request{Action: messageModel.ActionReconcile}
				resp, err := rt.Send(cmd.Context(), req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if resp.Report != nil {
					printReport(out, resp.Report)
				}
				if !resp.Success {
					fmt.Fprintf(out, "%s Reconciliation incomplete, see the server log\n", warnMark)
					return &messageModel.ResponseError{Action: req.Action, Response: resp}
				}
				return nil
			})
		},
	}
}

func printReport(out io.Writer, r *reconcile.Report) {
	fmt.Fprintf(out, "%s Moved %d, deleted %d, purged %d\n", okMark, r.Moved, r.Deleted, r.Purged)
	for _, s := range r.Skipped {
		fmt.Fprintf(out, "  %s skipped %s: %s\n", warnMark, s.Key, s.Reason)
	}
}

// StatsCmd returns the stats command
func StatsCmd(opts *Options) *cobra.Command {
	var byRepo bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize tracked pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt platform.Runtime) error {
				req := &messageModel.Request{Action: messageModel.ActionGetAllPRStats}
				resp, err := rt.Send(cmd.Context(), req)
				if err != nil {
					return err
				}
				if !resp.Success {
					return &messageModel.ResponseError{Action: req.Action, Response: resp}
				}

				out := cmd.OutOrStdout()
				if byRepo {
					return printRepositories(out, statisticsService.SummarizeRepositories(resp.PRs))
				}
				printStatistics(out, statisticsService.Summarize(resp.PRs))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&byRepo, "by-repo", false, "Break the summary down per repository")

	return cmd
}

func printStatistics(out io.Writer, s model.PullRequestStatistics) {
	fmt.Fprintf(out, "Tracked:   %d (%d open, %d approved, %d merged, %d declined)\n",
		s.TotalPRs, s.OpenPRs, s.ApprovedPRs, s.MergedPRs, s.DeclinedPRs)
	fmt.Fprintf(out, "Approved by me: %d\n", s.ApprovedByMe)
	fmt.Fprintf(out, "Pending reviews: %d\n", s.PendingReviews)
	fmt.Fprintf(out, "Views:     %d (%.1f per PR)\n", s.TotalViews, s.AverageViewsPerPR)
	fmt.Fprintf(out, "Approvals: %d\n", s.TotalApprovals)
}

func printRepositories(out io.Writer, repos []model.RepositoryStatistics) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tREPO\tPRS\tVIEWS\tAPPROVALS\tPENDING")
	for _, r := range repos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
			r.Project, r.Repo, r.PRCount, r.ViewCount, r.ApprovalCount, r.PendingReviews)
	}
	return w.Flush()
}
