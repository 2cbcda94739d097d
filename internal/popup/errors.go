package popup

import "errors"

var (
	// ErrCannotConnect is returned when the background service does not answer the ping.
	ErrCannotConnect = errors.New("cannot connect to the background service")
	// ErrLoadTimeout is returned when the listing did not arrive in time and no cache was usable.
	ErrLoadTimeout = errors.New("connection timed out")
	// ErrLoadFailed is returned when the listing failed and no cache was usable.
	ErrLoadFailed = errors.New("failed to load pull requests")
	// ErrNotFound is returned when an item key is not in the listing.
	ErrNotFound = errors.New("pull request not tracked")
)
