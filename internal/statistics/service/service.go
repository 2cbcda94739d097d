// Package service provides business logic layer for statistics module.
package service

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	"github.com/festy23/prtracker/internal/statistics/model"
)

// Lister returns every tracked pull request merged with its counters.
type Lister interface {
	ListAll(ctx context.Context) (map[string]pullrequestModel.MergedView, error)
}

// Service defines the interface for statistics business logic operations.
type Service interface {
	// GetRepositoriesStatistics returns per-repository statistics.
	GetRepositoriesStatistics(ctx context.Context) (*model.RepositoriesStatisticsResponse, error)

	// GetPullRequestStatistics returns statistics for tracked pull requests.
	GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatisticsResponse, error)
}

type service struct {
	prs    Lister
	logger *zap.SugaredLogger
}

// New creates a new statistics service instance.
func New(prs Lister, logger *zap.SugaredLogger) Service {
	return &service{
		prs:    prs,
		logger: logger,
	}
}

// GetRepositoriesStatistics returns per-repository statistics.
func (s *service) GetRepositoriesStatistics(ctx context.Context) (*model.RepositoriesStatisticsResponse, error) {
	s.logger.Debugw("GetRepositoriesStatistics called")

	views, err := s.prs.ListAll(ctx)
	if err != nil {
		s.logger.Errorw("GetRepositoriesStatistics failed", "error", err)
		return nil, err
	}

	repos := SummarizeRepositories(views)
	s.logger.Infow("GetRepositoriesStatistics completed", "count", len(repos))
	return &model.RepositoriesStatisticsResponse{
		Repositories: repos,
		Total:        len(repos),
	}, nil
}

// GetPullRequestStatistics returns statistics for tracked pull requests.
func (s *service) GetPullRequestStatistics(ctx context.Context) (*model.PullRequestStatisticsResponse, error) {
	s.logger.Debugw("GetPullRequestStatistics called")

	views, err := s.prs.ListAll(ctx)
	if err != nil {
		s.logger.Errorw("GetPullRequestStatistics failed", "error", err)
		return nil, err
	}

	stats := Summarize(views)
	s.logger.Infow("GetPullRequestStatistics completed", "total_prs", stats.TotalPRs)
	return &model.PullRequestStatisticsResponse{
		Statistics: stats,
	}, nil
}

// Summarize totals views. A pull request without a status counts as open.
func Summarize(views map[string]pullrequestModel.MergedView) model.PullRequestStatistics {
	var stats model.PullRequestStatistics
	for _, v := range views {
		stats.TotalPRs++
		switch v.Status {
		case pullrequestModel.StatusApproved:
			stats.ApprovedPRs++
		case pullrequestModel.StatusMerged:
			stats.MergedPRs++
		case pullrequestModel.StatusDeclined:
			stats.DeclinedPRs++
		default:
			stats.OpenPRs++
		}
		if v.IsApprovedByMe {
			stats.ApprovedByMe++
		}
		if pending(v) {
			stats.PendingReviews++
		}
		stats.TotalViews += v.ViewCount
		stats.TotalApprovals += v.ApprovalCount
	}
	if stats.TotalPRs > 0 {
		stats.AverageViewsPerPR = float64(stats.TotalViews) / float64(stats.TotalPRs)
	}
	return stats
}

// SummarizeRepositories groups views by project and repository, ordered by name.
func SummarizeRepositories(views map[string]pullrequestModel.MergedView) []model.RepositoryStatistics {
	type repoKey struct{ project, repo string }

	byRepo := make(map[repoKey]*model.RepositoryStatistics)
	for _, v := range views {
		k := repoKey{v.Project, v.Repo}
		r, ok := byRepo[k]
		if !ok {
			r = &model.RepositoryStatistics{Project: v.Project, Repo: v.Repo}
			byRepo[k] = r
		}
		r.PRCount++
		r.ViewCount += v.ViewCount
		r.ApprovalCount += v.ApprovalCount
		if pending(v) {
			r.PendingReviews++
		}
	}

	repos := make([]model.RepositoryStatistics, 0, len(byRepo))
	for _, r := range byRepo {
		repos = append(repos, *r)
	}
	slices.SortFunc(repos, func(a, b model.RepositoryStatistics) int {
		return cmp.Or(cmp.Compare(a.Project, b.Project), cmp.Compare(a.Repo, b.Repo))
	})
	return repos
}

// pending reports an open pull request the user has not approved yet.
func pending(v pullrequestModel.MergedView) bool {
	return !v.IsApprovedByMe && !v.Status.IsClosed()
}
