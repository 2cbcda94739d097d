package identity

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a captured host page: its address, document and injected globals.
type Page struct {
	URL     *url.URL
	Doc     *goquery.Document
	Globals Globals
}

// NewPage parses html and globals captured at rawURL.
// A nil or empty globals payload leaves every global unset.
func NewPage(rawURL string, html io.Reader, globals []byte) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}

	g, err := ParseGlobals(globals)
	if err != nil {
		return nil, err
	}

	return &Page{URL: u, Doc: doc, Globals: g}, nil
}

// Title returns the trimmed text of the document title.
func (p *Page) Title() string {
	return strings.TrimSpace(p.Doc.Find("title").First().Text())
}

// resolve returns href made absolute against the page URL.
func (p *Page) resolve(href string) (*url.URL, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return p.URL.ResolveReference(ref), true
}

func pathSegments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
