// Package popup lists tracked pull requests: loading, filtering, sorting and rendering.
package popup

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

// Item is one listed pull request.
type Item struct {
	Key string
	pullrequestModel.MergedView
}

// Number returns the pull request number shown as #N.
func (i Item) Number() string {
	if i.PRNumber != "" {
		return i.PRNumber
	}
	return prkey.Key(i.Key).Number()
}

// ItemsFromViews converts a keyed listing into items sorted for display.
func ItemsFromViews(views map[string]pullrequestModel.MergedView) []Item {
	items := make([]Item, 0, len(views))
	for key, v := range views {
		items = append(items, Item{Key: key, MergedView: v})
	}
	Sort(items)
	return items
}

// Filter selects items by free text and approval state.
type Filter struct {
	Text         string
	ShowApproved bool
	ShowPending  bool
}

// DefaultFilter shows everything.
func DefaultFilter() Filter {
	return Filter{ShowApproved: true, ShowPending: true}
}

// Apply returns the matching items in their original order. The result is never nil.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	text := strings.ToLower(strings.TrimSpace(f.Text))
	for _, it := range items {
		if !f.matchesText(it, text) {
			continue
		}
		if (it.IsApprovedByMe && !f.ShowApproved) || (!it.IsApprovedByMe && !f.ShowPending) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (f Filter) matchesText(it Item, text string) bool {
	if text == "" {
		return true
	}
	for _, field := range []string{it.TitleText(), it.Project, it.Repo, it.Number()} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}

// Sort orders items closed last, then pending before approved, then most recently visited first.
func Sort(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if ac, bc := a.Status.IsClosed(), b.Status.IsClosed(); ac != bc {
			if ac {
				return 1
			}
			return -1
		}
		if a.IsApprovedByMe != b.IsApprovedByMe {
			if a.IsApprovedByMe {
				return 1
			}
			return -1
		}
		switch {
		case a.LastVisited > b.LastVisited:
			return -1
		case a.LastVisited < b.LastVisited:
			return 1
		default:
			return strings.Compare(a.Key, b.Key)
		}
	})
}

// TimeAgo renders an epoch-millisecond timestamp relative to now.
func TimeAgo(ms int64, now time.Time) string {
	if ms == 0 {
		return "Never"
	}
	diff := now.Sub(pullrequestModel.FromMillis(ms))
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	default:
		return pullrequestModel.FromMillis(ms).In(now.Location()).Format("Jan 2")
	}
}
