package identity

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var moreInfoAbout = regexp.MustCompile(`More information about (.*)`)

// approvalCheck answers approved or not approved, or defers with ok=false.
type approvalCheck func(page *Page, user User) (approved, ok bool)

var approvalChecks = []approvalCheck{
	participantApproval,
	reviewStatusApproval,
	toggleButtonApproval,
	participantItemApproval,
}

func approvalStatus(page *Page, user User) ApprovalStatus {
	for _, check := range approvalChecks {
		approved, ok := runApprovalCheck(check, page, user)
		if !ok {
			continue
		}
		if approved {
			return ApprovalApproved
		}
		return ApprovalNotApproved
	}
	return ApprovalNotApproved
}

func runApprovalCheck(check approvalCheck, page *Page, user User) (approved, ok bool) {
	defer func() {
		if recover() != nil {
			approved, ok = false, false
		}
	}()
	return check(page, user)
}

// participantApproval looks the viewer up in the react context participant list.
func participantApproval(page *Page, user User) (bool, bool) {
	pr := page.Globals.reactContext().pullRequest()
	if pr == nil || user.Username == "" {
		return false, false
	}
	for _, p := range pr.Participants {
		if p.User != nil && p.User.Username == user.Username {
			return p.Approved, true
		}
	}
	return false, false
}

// reviewStatusApproval matches the viewer's display name in the review status region.
func reviewStatusApproval(page *Page, user User) (bool, bool) {
	if user.DisplayName == "" {
		return false, false
	}

	var approved, found bool
	page.Doc.Find(`section[aria-label="Review status"] div[tabindex="0"]`).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		trigger := item.Find(`span[data-testid="profileCardTrigger"][aria-label*="More information about"]`).First()
		icon := item.Find(`span[data-testid="reviewer-status-icon"]`).First()
		if trigger.Length() == 0 || icon.Length() == 0 {
			return true
		}

		m := moreInfoAbout.FindStringSubmatch(trigger.AttrOr("aria-label", ""))
		if m == nil || strings.TrimSpace(m[1]) != user.DisplayName {
			return true
		}
		found = true
		approved = icon.AttrOr("aria-label", "") == "Approved"
		return false
	})
	return approved, found
}

// toggleButtonApproval detects an approve toggle showing its Unapprove state.
func toggleButtonApproval(page *Page, _ User) (bool, bool) {
	if page.Doc.Find(`button[aria-pressed='true'][aria-label*='Unapprove']`).Length() > 0 {
		return true, true
	}
	if strings.Contains(page.Doc.Find(`button[data-testid="approval-button"]`).First().AttrOr("aria-label", ""), "Unapprove") {
		return true, true
	}
	btn := page.Doc.Find(`button[class*='approved']`).First()
	if btn.Length() > 0 && strings.Contains(strings.ToLower(btn.Text()), "unapprove") {
		return true, true
	}
	return false, false
}

// participantItemApproval looks for approval text next to the current-user marker.
func participantItemApproval(page *Page, _ User) (bool, bool) {
	found := false
	page.Doc.Find(`[data-testid="approval-active"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.Contains(strings.ToLower(s.Text()), "approved")
		return !found
	})
	if found {
		return true, true
	}

	page.Doc.Find(`[data-testid="current-user"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		parent := s.Closest(`[data-testid="approval-participant"]`)
		found = parent.Length() > 0 && strings.Contains(strings.ToLower(parent.Text()), "approve")
		return !found
	})
	if found {
		return true, true
	}
	return false, false
}
