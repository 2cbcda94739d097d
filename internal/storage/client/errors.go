package client

import "errors"

// ErrUnexpectedStatus is returned when the service answers with a non-success status.
var ErrUnexpectedStatus = errors.New("unexpected storage status")
