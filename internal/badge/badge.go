// Package badge computes and renders the per-page status badge.
package badge

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

// Class is the badge colour class.
type Class string

// Badge classes.
const (
	ClassNone     Class = ""
	ClassOpen     Class = "open"
	ClassApproved Class = "approved"
	ClassMerged   Class = "merged"
	ClassDeclined Class = "declined"
)

// Badge colours.
const (
	ColorOpen     lipgloss.Color = "#0c66e4"
	ColorApproved lipgloss.Color = "#1f845a"
	ColorDeclined lipgloss.Color = "#c9372c"
	ColorText     lipgloss.Color = "#ffffff"
)

var baseStyle = lipgloss.NewStyle().
	Foreground(ColorText).
	Bold(true).
	Padding(0, 1)

// Badge is what the page overlay shows for one pull request.
type Badge struct {
	Class     Class
	Views     int
	Approvals int
	Approved  bool
	Label     string
}

// New builds the badge for a pull request in status, viewed views times.
// approvals is the page's total approval count.
func New(status pullrequestModel.Status, approved bool, views, approvals int) Badge {
	return Badge{
		Class:     ClassFor(status, approved),
		Views:     views,
		Approvals: approvals,
		Approved:  approved,
		Label:     label(status, approved),
	}
}

// ClassFor picks the class by priority merged > declined > open > approved.
func ClassFor(status pullrequestModel.Status, approved bool) Class {
	switch {
	case status == pullrequestModel.StatusMerged:
		return ClassMerged
	case status == pullrequestModel.StatusDeclined:
		return ClassDeclined
	case status == pullrequestModel.StatusOpen:
		return ClassOpen
	case approved:
		return ClassApproved
	default:
		return ClassNone
	}
}

func label(status pullrequestModel.Status, approved bool) string {
	switch {
	case approved:
		return "Approved"
	case status == pullrequestModel.StatusMerged:
		return "Merged"
	case status == pullrequestModel.StatusDeclined:
		return "Declined"
	default:
		return ""
	}
}

// Color returns the background colour of class.
func (c Class) Color() lipgloss.Color {
	switch c {
	case ClassApproved, ClassMerged:
		return ColorApproved
	case ClassDeclined:
		return ColorDeclined
	default:
		return ColorOpen
	}
}

// Text is the uncoloured badge content.
func (b Badge) Text() string {
	parts := []string{
		fmt.Sprintf("views %d", b.Views),
		fmt.Sprintf("approvals %d", b.Approvals),
	}
	if b.Approved {
		parts = append(parts, "✓")
	}
	if b.Label != "" {
		parts = append(parts, b.Label)
	}
	return strings.Join(parts, " · ")
}

// Render returns the badge styled for a terminal.
func (b Badge) Render() string {
	return baseStyle.Background(b.Class.Color()).Render(b.Text())
}
