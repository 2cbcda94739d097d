package popup

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/festy23/prtracker/internal/badge"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

const nameLimit = 20

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b778c"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b778c")).
			MarginTop(1)
)

// Render draws the filtered items followed by the count line. total is the unfiltered count.
func Render(items []Item, total int, now time.Time) string {
	var b strings.Builder
	for _, it := range items {
		if it.TitleText() == "" {
			continue
		}
		b.WriteString(renderItem(it, now))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(Summary(len(items), total)))
	return b.String()
}

// Summary is the count line under the list.
func Summary(shown, total int) string {
	switch {
	case total == 0:
		return "No PRs tracked yet"
	case shown == 0:
		return "No PRs match your filters"
	default:
		return fmt.Sprintf("Showing %d of %d PRs", shown, total)
	}
}

func renderItem(it Item, now time.Time) string {
	meta := []string{
		truncate(orUnknown(it.Project)) + "/" + truncate(orUnknown(it.Repo)),
		"#" + it.Number(),
	}
	if it.Status != "" && it.Status != pullrequestModel.StatusOpen {
		meta = append(meta, lipgloss.NewStyle().
			Foreground(badge.ClassFor(it.Status, it.IsApprovedByMe).Color()).
			Render(string(it.Status)))
	}
	meta = append(meta, TimeAgo(it.LastVisited, now))

	state := "pending"
	if it.IsApprovedByMe {
		state = "approved"
	}
	stats := fmt.Sprintf("views %d  approvals %d  %s", it.ViewCount, it.ApprovalCount, state)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(it.TitleText())+"  "+mutedStyle.Render(it.Key),
		mutedStyle.Render(strings.Join(meta, "  "))+"  "+stats,
	)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > nameLimit {
		return string(r[:nameLimit-2]) + "..."
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
