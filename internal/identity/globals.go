package identity

import (
	"encoding/json"
	"fmt"
)

// Globals holds the objects the host page injects into its window.
// Each object decodes independently; a malformed one is left nil.
type Globals struct {
	InitialState *InitialState
	AppData      *AppData
	Bitbucket    *Bitbucket
}

// Slug is a named entity exposed by the host framework.
type Slug struct {
	Slug string `json:"slug"`
}

// InitialState is window.__initial_state__.
type InitialState struct {
	Global struct {
		Path        string `json:"path"`
		CurrentUser *struct {
			DisplayName string `json:"display_name"`
		} `json:"currentUser"`
	} `json:"global"`
}

// AppData is window.__app_data__.
type AppData struct {
	InitialContext struct {
		Workspace  *Slug `json:"workspace"`
		Repository *Slug `json:"repository"`
		User       *struct {
			DisplayName string `json:"display_name"`
		} `json:"user"`
	} `json:"initialContext"`
	User *struct {
		UUID        string `json:"uuid"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

// Bitbucket is window.BITBUCKET.
type Bitbucket struct {
	ReactContext *ReactContext `json:"reactContext"`
}

// ReactContext carries the pull request as rendered by the host application.
type ReactContext struct {
	CurrentUser *struct {
		Username string `json:"username"`
	} `json:"current_user"`
	Workspace  *Slug `json:"workspace"`
	Repository *Slug `json:"repository"`

	PullRequest       *ReactPullRequest `json:"pull_request"`
	LegacyPullRequest *ReactPullRequest `json:"pullrequest"`
}

// ReactPullRequest is the pull request object of the react context.
type ReactPullRequest struct {
	ID           json.Number        `json:"id"`
	State        string             `json:"state"`
	Participants []ReactParticipant `json:"participants"`
}

// ReactParticipant is one reviewer or participant of a pull request.
type ReactParticipant struct {
	User *struct {
		Username string `json:"username"`
	} `json:"user"`
	Approved bool `json:"approved"`
}

// pullRequest returns the current or legacy pull request object.
func (r *ReactContext) pullRequest() *ReactPullRequest {
	if r == nil {
		return nil
	}
	if r.PullRequest != nil {
		return r.PullRequest
	}
	return r.LegacyPullRequest
}

func (r *ReactContext) username() string {
	if r == nil || r.CurrentUser == nil {
		return ""
	}
	return r.CurrentUser.Username
}

// ParseGlobals decodes a JSON object keyed by the injected global names.
// Unrecognised keys are ignored. An input that is not an object is an error.
func ParseGlobals(raw []byte) (Globals, error) {
	var g Globals
	if len(raw) == 0 {
		return g, nil
	}

	var objects map[string]json.RawMessage
	if err := json.Unmarshal(raw, &objects); err != nil {
		return g, fmt.Errorf("failed to decode page globals: %w", err)
	}

	g.InitialState = decodeGlobal[InitialState](objects["__initial_state__"])
	g.AppData = decodeGlobal[AppData](objects["__app_data__"])
	g.Bitbucket = decodeGlobal[Bitbucket](objects["BITBUCKET"])
	return g, nil
}

func decodeGlobal[T any](raw json.RawMessage) *T {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func (g Globals) reactContext() *ReactContext {
	if g.Bitbucket == nil {
		return nil
	}
	return g.Bitbucket.ReactContext
}
