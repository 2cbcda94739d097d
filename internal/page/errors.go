package page

import "errors"

var (
	// ErrNotPullRequest is returned when the page yields no usable identity.
	ErrNotPullRequest = errors.New("page does not show a pull request")
	// ErrThrottled is returned when an update arrives sooner than the minimum interval.
	ErrThrottled = errors.New("update throttled")
	// ErrSessionEnded is returned when the session ended before the update was reported.
	ErrSessionEnded = errors.New("session ended")
	// ErrRejected is returned when the service answered an update with success=false.
	ErrRejected = errors.New("update rejected")
)
