package platform

import "errors"

var (
	// ErrInvalidURL is returned when a tab is requested for something that is not an http(s) URL.
	ErrInvalidURL = errors.New("invalid tab url")
	// ErrClosed is returned by a runtime after Close.
	ErrClosed = errors.New("runtime closed")
)
