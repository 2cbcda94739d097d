// Package model provides data transfer objects for statistics module.
package model

// RepositoryStatistics summarizes the tracked pull requests of one repository.
type RepositoryStatistics struct {
	Project        string `json:"project"`
	Repo           string `json:"repo"`
	PRCount        int    `json:"pr_count"`
	ViewCount      int    `json:"view_count"`
	ApprovalCount  int    `json:"approval_count"`
	PendingReviews int    `json:"pending_reviews"`
}

// RepositoriesStatisticsResponse represents response for repositories statistics.
type RepositoriesStatisticsResponse struct {
	Repositories []RepositoryStatistics `json:"repositories"`
	Total        int                    `json:"total"`
}

// PullRequestStatistics represents statistics for tracked pull requests.
type PullRequestStatistics struct {
	TotalPRs          int     `json:"total_prs"`
	OpenPRs           int     `json:"open_prs"`
	ApprovedPRs       int     `json:"approved_prs"`
	MergedPRs         int     `json:"merged_prs"`
	DeclinedPRs       int     `json:"declined_prs"`
	ApprovedByMe      int     `json:"approved_by_me"`
	PendingReviews    int     `json:"pending_reviews"`
	TotalViews        int     `json:"total_views"`
	TotalApprovals    int     `json:"total_approvals"`
	AverageViewsPerPR float64 `json:"average_views_per_pr"`
}

// PullRequestStatisticsResponse represents response for pull request statistics.
type PullRequestStatisticsResponse struct {
	Statistics PullRequestStatistics `json:"statistics"`
}
