// Package model defines the request/response protocol spoken between contexts.
package model

import (
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	"github.com/festy23/prtracker/internal/reconcile"
)

// Action names a protocol request.
type Action string

// Protocol actions.
const (
	ActionPing             Action = "ping"
	ActionGetPRStats       Action = "getPRStats"
	ActionUpdatePRStats    Action = "updatePRStats"
	ActionGetAllPRStats    Action = "getAllPRStats"
	ActionRemovePR         Action = "removePR"
	ActionCleanupUnknown   Action = "cleanupUnknown"
	ActionOpenPopup        Action = "openPopup"
	ActionSavePRInfo       Action = "savePRInfo"
	ActionGetCachedPRStats Action = "getCachedPRStats"
	ActionReconcile        Action = "reconcile"
)

// Request is one protocol message. Fields beyond Action depend on the action.
type Request struct {
	Action              Action                   `json:"action"`
	PrID                string                   `json:"prId,omitempty"`
	PrInternalID        string                   `json:"prInternalId,omitempty"`
	IsApproval          bool                     `json:"isApproval,omitempty"`
	ShouldIncrementView bool                     `json:"shouldIncrementView,omitempty"`
	Info                *pullrequestModel.Record `json:"info,omitempty"`
}

// Response answers a Request. Domain failures are reported with Success=false.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Ignored bool   `json:"ignored,omitempty"`

	Stats  *pullrequestModel.Stats                `json:"stats,omitzero"`
	Info   *pullrequestModel.Record               `json:"info,omitzero"`
	PRs    map[string]pullrequestModel.MergedView `json:"prs,omitzero"`
	Cache  *pullrequestModel.CacheEntry           `json:"cache,omitzero"`
	Report *reconcile.Report                      `json:"report,omitzero"`
}

// Protocol messages returned to callers.
const (
	MessagePong          = "Background script is running!"
	ErrorUnknownAction   = "Unknown action"
	ErrorInvalidPRID     = "Invalid PR ID"
	ErrorInvalidPRInfo   = "Invalid PR info"
	ErrorUnknownProject  = "Unknown project or repository"
	ErrorStorageFailure  = "Storage unavailable"
	ErrorReconcileFailed = "Reconciliation incomplete"
)

// Failure returns an unsuccessful response carrying msg.
func Failure(msg string) *Response {
	return &Response{Success: false, Error: msg}
}
