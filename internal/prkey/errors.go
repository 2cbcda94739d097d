package prkey

import "errors"

var (
	// ErrNoPullRequestNumber indicates a URL without a /pull-requests/<n> segment.
	ErrNoPullRequestNumber = errors.New("url has no pull request number")
	// ErrInvalidKey indicates a key that is not of the form pr-<digits>.
	ErrInvalidKey = errors.New("invalid pull request key")
)
