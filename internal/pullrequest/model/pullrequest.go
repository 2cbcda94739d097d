// Package model defines the persisted pull request record and counters.
package model

import (
	"time"

	"github.com/festy23/prtracker/internal/prkey"
)

// Status is the review state shown on the badge and in the popup.
type Status string

// Pull request statuses.
const (
	StatusOpen     Status = "open"
	StatusApproved Status = "approved"
	StatusMerged   Status = "merged"
	StatusDeclined Status = "declined"
)

// IsClosed reports whether the pull request no longer accepts reviews.
func (s Status) IsClosed() bool {
	return s == StatusMerged || s == StatusDeclined
}

// Record is the descriptive metadata stored under the pr-info- key.
// Every field is optional on read.
type Record struct {
	Project        string  `json:"project,omitempty"`
	Repo           string  `json:"repo,omitempty"`
	ID             string  `json:"id,omitempty"`
	InternalID     string  `json:"internalId,omitempty"`
	URL            string  `json:"url,omitempty"`
	Title          *string `json:"title,omitempty"`
	CurrentTab     string  `json:"currentTab,omitempty"`
	IsApprovedByMe bool    `json:"isApprovedByMe,omitempty"`
	Status         Status  `json:"status,omitempty"`
	LastVisited    int64   `json:"lastVisited,omitempty"`
	ViewCount      int     `json:"viewCount,omitempty"`
	CommentCount   int     `json:"commentCount,omitempty"`
	TotalApprovals int     `json:"totalApprovals,omitempty"`
}

// IsUnknown reports whether project or repo holds an extraction-failure sentinel.
func (r Record) IsUnknown() bool {
	return prkey.IsUnknownProject(r.Project) || prkey.IsUnknownRepo(r.Repo)
}

// TitleText returns the title or an empty string.
func (r Record) TitleText() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// Stats holds the counters stored under the bare canonical key.
type Stats struct {
	ReviewCount   int    `json:"reviewCount"`
	ApprovalCount int    `json:"approvalCount"`
	LastReviewed  int64  `json:"lastReviewed,omitempty"`
	InternalID    string `json:"internalId,omitempty"`
}

// MergedView is a record joined with its counters, as listed by the popup.
type MergedView struct {
	Record
	ApprovalCount int    `json:"approvalCount"`
	LastReviewed  int64  `json:"lastReviewed"`
	PRNumber      string `json:"prNumber"`
}

// CacheEntry is the value of pr_data_cache.
type CacheEntry struct {
	Timestamp int64                 `json:"timestamp"`
	Data      map[string]MergedView `json:"data"`
}

// VisitInput describes one visit reported by a page.
type VisitInput struct {
	IsApproval          bool
	ShouldIncrementView bool
	InternalID          string
}

// Millis converts t to the epoch-millisecond timestamps used on disk.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts an on-disk timestamp back to time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
