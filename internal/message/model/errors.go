package model

import "errors"

var (
	// ErrUnsuccessful indicates a response with success=false.
	ErrUnsuccessful = errors.New("request was not successful")
	// ErrUnexpectedStatus indicates a transport-level failure reported by the service.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// ResponseError wraps an unsuccessful response.
type ResponseError struct {
	Action   Action
	Response *Response
}

func (e *ResponseError) Error() string {
	if e.Response.Error != "" {
		return string(e.Action) + ": " + e.Response.Error
	}
	return string(e.Action) + ": " + ErrUnsuccessful.Error()
}

func (e *ResponseError) Unwrap() error {
	return ErrUnsuccessful
}
