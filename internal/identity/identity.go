// Package identity extracts pull request identity and review state from a captured host page.
//
// Extraction never fails loudly: a page that exposes none of the known selectors or
// globals simply yields no usable identity.
package identity

import (
	"strings"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
)

// ApprovalStatus is the review state of the current viewer.
type ApprovalStatus string

// Approval states. Extract never reports ApprovalUnknown; missing evidence reads as not approved.
const (
	ApprovalUnknown     ApprovalStatus = "unknown"
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalNotApproved ApprovalStatus = "notApproved"
)

// User is the viewer as exposed by the host page.
type User struct {
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	UUID        string `json:"uuid,omitempty"`
}

// Identity is the best-effort description of the pull request on a page.
type Identity struct {
	Workspace         string                  `json:"workspace"`
	Repository        string                  `json:"repository"`
	PullRequestNumber string                  `json:"pullRequestId"`
	ApprovalStatus    ApprovalStatus          `json:"approvalStatus"`
	Status            pullrequestModel.Status `json:"status"`
	ExtractionSources []string                `json:"extractionSources"`
	CurrentUser       User                    `json:"currentUser"`
}

var _ prkey.Identity = (*Identity)(nil)

// PullRequestID returns the pull request number.
func (id *Identity) PullRequestID() string {
	return id.PullRequestNumber
}

// Usable reports whether workspace, repository and number are all known.
func (id *Identity) Usable() bool {
	return id != nil && id.Workspace != "" && id.Repository != "" && id.PullRequestNumber != ""
}

// IsApproved reports whether the viewer approved the pull request.
func (id *Identity) IsApproved() bool {
	return id.ApprovalStatus == ApprovalApproved
}

// InternalID returns the lowercase workspace/repository/number composite.
func (id *Identity) InternalID() string {
	return prkey.InternalID(id.Workspace, id.Repository, id.PullRequestNumber)
}

// Extract runs the default strategies over page.
// The identity is returned whenever extraction ran, even when it is not usable; ok is Usable().
func Extract(page *Page) (*Identity, bool) {
	return ExtractWith(page, Strategies)
}

// ExtractWith runs strategies over page in order.
func ExtractWith(page *Page, strategies []Strategy) (id *Identity, ok bool) {
	if page == nil || page.URL == nil || page.Doc == nil {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			id, ok = nil, false
		}
	}()

	id = &Identity{ExtractionSources: []string{}}
	var acc Partial
	for _, s := range strategies {
		if acc.complete() {
			break
		}
		p := s.run(page)
		if p.empty() {
			continue
		}
		acc = acc.merge(p)
		id.ExtractionSources = append(id.ExtractionSources, s.Name)
	}

	id.Workspace = firstLine(acc.Workspace)
	id.Repository = firstLine(acc.Repository)
	id.PullRequestNumber = acc.PullRequestNumber
	id.CurrentUser = currentUser(page)
	id.ApprovalStatus = approvalStatus(page, id.CurrentUser)
	id.Status = status(page)

	return id, id.Usable()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
