package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

func newTestPage(t *testing.T, rawURL, html, globals string) *Page {
	t.Helper()

	page, err := NewPage(rawURL, strings.NewReader(html), []byte(globals))
	require.NoError(t, err)
	return page
}

func TestExtract(t *testing.T) {
	t.Run("url alone is enough", func(t *testing.T) {
		page := newTestPage(t, "https://bitbucket.org/acme/api/pull-requests/42/diff", "<html></html>", "")

		id, ok := Extract(page)
		require.True(t, ok)
		assert.Equal(t, "acme", id.Workspace)
		assert.Equal(t, "api", id.Repository)
		assert.Equal(t, "42", id.PullRequestNumber)
		assert.Equal(t, []string{"url_path"}, id.ExtractionSources)
		assert.Equal(t, ApprovalNotApproved, id.ApprovalStatus)
		assert.Equal(t, pullrequestModel.StatusOpen, id.Status)
		assert.Equal(t, "acme/api/42", id.InternalID())
	})

	t.Run("earlier strategy wins per field", func(t *testing.T) {
		globals := `{
			"__initial_state__": {"global": {"path": "/state-ws/state-repo/pull-requests/7/overview"}},
			"__app_data__": {"initialContext": {"workspace": {"slug": "app-ws"}}}
		}`
		page := newTestPage(t, "https://bitbucket.org/url-ws/url-repo/pull-requests/9", "<html></html>", globals)

		id, ok := Extract(page)
		require.True(t, ok)
		assert.Equal(t, "state-ws", id.Workspace)
		assert.Equal(t, "state-repo", id.Repository)
		assert.Equal(t, "7", id.PullRequestNumber)
		assert.Equal(t, []string{"initial_state"}, id.ExtractionSources)
	})

	t.Run("fields combine across strategies", func(t *testing.T) {
		globals := `{"__app_data__": {"initialContext": {"workspace": {"slug": "acme"}, "repository": {"slug": "api"}}}}`
		html := `<html><head><title>other / thing Pull Request #15: Fix</title></head></html>`
		page := newTestPage(t, "https://bitbucket.org/dashboard", html, globals)

		id, ok := Extract(page)
		require.True(t, ok)
		assert.Equal(t, "acme", id.Workspace)
		assert.Equal(t, "api", id.Repository)
		assert.Equal(t, "15", id.PullRequestNumber)
		assert.Equal(t, []string{"app_data", "page_title"}, id.ExtractionSources)
	})

	t.Run("not a pull request page", func(t *testing.T) {
		page := newTestPage(t, "https://bitbucket.org/acme/api/src/main", "<html><title>Source</title></html>", "")

		id, ok := Extract(page)
		assert.False(t, ok)
		require.NotNil(t, id)
		assert.Empty(t, id.ExtractionSources)
	})

	t.Run("partial identity is not usable", func(t *testing.T) {
		html := `<div data-testid="pr-header"><span>#31 • Created 2 days ago</span></div>`
		page := newTestPage(t, "https://bitbucket.org/", html, "")

		id, ok := Extract(page)
		assert.False(t, ok)
		assert.Equal(t, "31", id.PullRequestNumber)
	})

	t.Run("panicking strategy is skipped", func(t *testing.T) {
		page := newTestPage(t, "https://bitbucket.org/acme/api/pull-requests/3", "<html></html>", "")
		strategies := append([]Strategy{{
			Name:    "broken",
			Extract: func(*Page) Partial { panic("selector exploded") },
		}}, Strategies...)

		id, ok := ExtractWith(page, strategies)
		require.True(t, ok)
		assert.NotContains(t, id.ExtractionSources, "broken")
	})

	t.Run("nil page", func(t *testing.T) {
		id, ok := Extract(nil)
		assert.False(t, ok)
		assert.Nil(t, id)
	})

	t.Run("same number different repositories share a key", func(t *testing.T) {
		a, ok := Extract(newTestPage(t, "https://bitbucket.org/acme/api/pull-requests/7", "", ""))
		require.True(t, ok)
		b, ok := Extract(newTestPage(t, "https://bitbucket.org/other/web/pull-requests/7", "", ""))
		require.True(t, ok)

		assert.Equal(t, prkey.FromIdentity(a), prkey.FromIdentity(b))
	})

	t.Run("workspace is cleaned to first line", func(t *testing.T) {
		html := `<nav aria-label="Breadcrumbs"><ol>
			<li><a href="/acme/">acme</a></li>
			<li><a href="/acme/api">api
			  extra</a></li>
			<li><a href="/acme/api/pull-requests">Pull requests</a></li>
		</ol></nav>`
		page := newTestPage(t, "https://bitbucket.org/x", html, "")
		id, _ := Extract(page)

		assert.Equal(t, "api", id.Repository)
	})
}

func TestParseGlobals(t *testing.T) {
	t.Run("malformed object is ignored", func(t *testing.T) {
		g, err := ParseGlobals([]byte(`{"__app_data__": "nope", "BITBUCKET": {"reactContext": {}}}`))
		require.NoError(t, err)
		assert.Nil(t, g.AppData)
		require.NotNil(t, g.Bitbucket)
	})

	t.Run("non-object payload", func(t *testing.T) {
		_, err := ParseGlobals([]byte(`[1,2]`))
		assert.Error(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		g, err := ParseGlobals(nil)
		require.NoError(t, err)
		assert.Nil(t, g.InitialState)
	})
}
