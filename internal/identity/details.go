package identity

import (
	"regexp"
	"strconv"
	"strings"
)

// Details is descriptive page metadata that is not part of the identity.
type Details struct {
	Title          *string
	CommentCount   int
	TotalApprovals int
	CurrentTab     string
}

var firstNumber = regexp.MustCompile(`\d+`)

var tabs = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`/diff($|\?)`), "Diff"},
	{regexp.MustCompile(`/commits($|\?)`), "Commits"},
	{regexp.MustCompile(`/activity($|\?)`), "Activity"},
	{regexp.MustCompile(`/requests-changes($|\?)`), "Changes Requested"},
	{regexp.MustCompile(`/reviews($|\?)`), "Approve/Request Changes"},
}

// TabOverview is reported when the URL names no known tab.
const TabOverview = "Overview"

// ExtractDetails reads title, counters and current tab from page.
func ExtractDetails(page *Page) Details {
	d := Details{CurrentTab: TabName(page.URL.String())}

	title := page.Doc.Find(`h1[data-qa="pr-header-title"], [data-test-id="pull-request-title"]`).First()
	if title.Length() > 0 {
		t := strings.TrimSpace(title.Text())
		d.Title = &t
	}

	d.CommentCount = leadingCount(page.Doc.Find(`[data-test-id="comment-count"]`).First().Text())
	d.TotalApprovals = totalApprovals(page)
	return d
}

// TabName names the pull request tab shown at rawURL.
func TabName(rawURL string) string {
	for _, t := range tabs {
		if t.pattern.MatchString(rawURL) {
			return t.name
		}
	}
	return TabOverview
}

func totalApprovals(page *Page) int {
	if counter := page.Doc.Find(`[data-test-id="approve-count"]`).First(); counter.Length() > 0 {
		return leadingCount(counter.Text())
	}
	if n := page.Doc.Find(`.approved, [data-test-id="approved-badge"]`).Length(); n > 0 {
		return n
	}
	return page.Doc.Find(`[data-testid="approvers-avatar-list"] img`).Length()
}

func leadingCount(text string) int {
	n, err := strconv.Atoi(firstNumber.FindString(text))
	if err != nil {
		return 0
	}
	return n
}
