package identity

import (
	"encoding/json"
	"strings"

	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

func currentUser(page *Page) User {
	u := User{Username: page.Globals.reactContext().username()}

	if raw, ok := page.Doc.Find(`#bb-bootstrap[data-current-user]`).First().Attr("data-current-user"); ok {
		var meta struct {
			DisplayName string `json:"displayName"`
			UUID        string `json:"uuid"`
		}
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			u.DisplayName = meta.DisplayName
			u.UUID = meta.UUID
			return u
		}
	}

	ad := page.Globals.AppData
	if ad == nil || ad.User == nil {
		return u
	}
	u.UUID = ad.User.UUID
	switch {
	case ad.User.DisplayName != "":
		u.DisplayName = ad.User.DisplayName
	case ad.InitialContext.User != nil && ad.InitialContext.User.DisplayName != "":
		u.DisplayName = ad.InitialContext.User.DisplayName
	case page.Globals.InitialState != nil && page.Globals.InitialState.Global.CurrentUser != nil:
		u.DisplayName = page.Globals.InitialState.Global.CurrentUser.DisplayName
	}
	return u
}

// status reads the pull request state. A status lozenge overrides the react context.
func status(page *Page) pullrequestModel.Status {
	s := pullrequestModel.StatusOpen
	if pr := page.Globals.reactContext().pullRequest(); pr != nil {
		switch pr.State {
		case "MERGED":
			s = pullrequestModel.StatusMerged
		case "DECLINED":
			s = pullrequestModel.StatusDeclined
		case "APPROVED":
			s = pullrequestModel.StatusApproved
		}
	}

	lozenges := page.Doc.Find(`span.css-1r98t, [data-test-id="pull-request-state"]`)
	for i := range lozenges.Length() {
		switch strings.ToLower(strings.TrimSpace(lozenges.Eq(i).Text())) {
		case "declined":
			return pullrequestModel.StatusDeclined
		case "merged":
			return pullrequestModel.StatusMerged
		case "open":
			return pullrequestModel.StatusOpen
		}
	}
	return s
}
