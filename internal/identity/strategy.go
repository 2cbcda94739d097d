package identity

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Partial is what a single strategy learned. Any field may be empty.
type Partial struct {
	Workspace         string
	Repository        string
	PullRequestNumber string
}

func (p Partial) empty() bool {
	return p.Workspace == "" && p.Repository == "" && p.PullRequestNumber == ""
}

func (p Partial) complete() bool {
	return p.Workspace != "" && p.Repository != "" && p.PullRequestNumber != ""
}

// merge fills the empty fields of p from q.
func (p Partial) merge(q Partial) Partial {
	if p.Workspace == "" {
		p.Workspace = q.Workspace
	}
	if p.Repository == "" {
		p.Repository = q.Repository
	}
	if p.PullRequestNumber == "" {
		p.PullRequestNumber = q.PullRequestNumber
	}
	return p
}

// Strategy is one named way of reading identity off a page.
type Strategy struct {
	Name    string
	Extract func(*Page) Partial
}

// run calls the strategy, treating a panic as no result.
func (s Strategy) run(page *Page) (p Partial) {
	defer func() {
		if recover() != nil {
			p = Partial{}
		}
	}()
	return s.Extract(page)
}

// Strategies is the default precedence order. Earlier strategies win per field.
var Strategies = []Strategy{
	{Name: "initial_state", Extract: fromInitialState},
	{Name: "app_data", Extract: fromAppData},
	{Name: "url_path", Extract: fromURLPath},
	{Name: "page_title", Extract: fromPageTitle},
	{Name: "header_text", Extract: fromHeaderText},
	{Name: "breadcrumbs", Extract: fromBreadcrumbs},
	{Name: "sidebar", Extract: fromSidebar},
}

var (
	digitsOnly = regexp.MustCompile(`^\d+$`)
	hashNumber = regexp.MustCompile(`#(\d+)`)
	titleShape = regexp.MustCompile(`^([^/]+)\s*/\s*(\S+)\s+Pull Request\s+#(\d+)`)

	urlShapes = []*regexp.Regexp{
		regexp.MustCompile(`^/projects/([^/]+)/repos/([^/]+)/pull-requests/(\d+)`),
		regexp.MustCompile(`^/([^/]+)/([^/]+)/pull-requests/(\d+)`),
		regexp.MustCompile(`^/([^/]+)/([^/]+)/-/pull/(\d+)`),
	}
)

func fromInitialState(page *Page) Partial {
	st := page.Globals.InitialState
	if st == nil || st.Global.Path == "" {
		return Partial{}
	}

	parts := strings.Split(st.Global.Path, "/")
	if len(parts) < 5 || parts[3] != "pull-requests" || !digitsOnly.MatchString(parts[4]) {
		return Partial{}
	}
	return Partial{Workspace: parts[1], Repository: parts[2], PullRequestNumber: parts[4]}
}

func fromAppData(page *Page) Partial {
	ad := page.Globals.AppData
	if ad == nil {
		return Partial{}
	}

	var p Partial
	if ad.InitialContext.Workspace != nil {
		p.Workspace = ad.InitialContext.Workspace.Slug
	}
	if ad.InitialContext.Repository != nil {
		p.Repository = ad.InitialContext.Repository.Slug
	}
	return p
}

func fromURLPath(page *Page) Partial {
	path := strings.TrimRight(page.URL.Path, "/")
	for _, re := range urlShapes {
		m := re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		return Partial{
			Workspace:         stripBraces(m[1]),
			Repository:        stripBraces(m[2]),
			PullRequestNumber: m[3],
		}
	}
	return Partial{}
}

func stripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}

func fromPageTitle(page *Page) Partial {
	m := titleShape.FindStringSubmatch(page.Title())
	if m == nil {
		return Partial{}
	}
	return Partial{
		Workspace:         strings.TrimSpace(m[1]),
		Repository:        strings.TrimSpace(m[2]),
		PullRequestNumber: m[3],
	}
}

func fromHeaderText(page *Page) Partial {
	var number string
	page.Doc.Find(`[data-testid="pr-header"]`).Find("span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "• Created") || !strings.Contains(text, "#") {
			return true
		}
		if m := hashNumber.FindStringSubmatch(text); m != nil {
			number = m[1]
			return false
		}
		return true
	})

	if number == "" {
		text := page.Doc.Find(`[data-qa="pr-header-id"], [data-test-id="pull-request-id"]`).First().Text()
		if m := hashNumber.FindStringSubmatch(text); m != nil {
			number = m[1]
		}
	}
	return Partial{PullRequestNumber: number}
}

func fromBreadcrumbs(page *Page) Partial {
	links := page.Doc.Find(`nav[aria-label="Breadcrumbs"] ol li a`)
	if links.Length() == 0 {
		return Partial{}
	}

	var p Partial
	if href, ok := links.First().Attr("href"); ok {
		if u, ok := page.resolve(href); ok && u.Host == page.URL.Host {
			if segs := pathSegments(u.Path); len(segs) == 1 {
				p.Workspace = segs[0]
			}
		}
	}
	if links.Length() < 2 {
		return p
	}

	for i := range links.Length() {
		link := links.Eq(i)
		href, _ := link.Attr("href")

		if strings.Contains(href, "/src") && !strings.HasSuffix(href, "/src") {
			u, ok := page.resolve(href)
			if !ok {
				continue
			}
			segs := pathSegments(u.Path)
			idx := indexOf(segs, "src")
			if idx >= 1 {
				p.Repository = segs[idx-1]
				if p.Workspace == "" && idx >= 2 {
					p.Workspace = segs[idx-2]
				}
				return p
			}
		}

		if i+1 < links.Length() && strings.EqualFold(strings.TrimSpace(links.Eq(i+1).Text()), "pull requests") {
			p.Repository = strings.TrimSpace(link.Text())
			if p.Workspace == "" && href != "" {
				if u, ok := page.resolve(href); ok {
					if segs := pathSegments(u.Path); len(segs) >= 2 {
						p.Workspace = segs[0]
					}
				}
			}
			return p
		}
	}
	return p
}

func fromSidebar(page *Page) Partial {
	link := page.Doc.Find(`div[data-navheader="true"] a[href*="/src"]`).First()
	name := link.Find(`h2[data-item-title="true"]`).First()
	if name.Length() == 0 {
		return Partial{}
	}

	p := Partial{Repository: strings.TrimSpace(name.Text())}
	if href, ok := link.Attr("href"); ok {
		if u, ok := page.resolve(href); ok {
			if segs := pathSegments(u.Path); len(segs) >= 2 {
				p.Workspace = segs[0]
			}
		}
	}
	return p
}

func indexOf(items []string, want string) int {
	for i, s := range items {
		if s == want {
			return i
		}
	}
	return -1
}
