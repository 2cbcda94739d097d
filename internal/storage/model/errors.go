package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey indicates a write with an empty storage key.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidValue indicates a value that is not valid JSON.
	ErrInvalidValue = errors.New("storage value is not valid JSON")
)

// InvalidValueError names the key whose value failed validation.
type InvalidValueError struct {
	Key string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidValue, e.Key)
}

// Unwrap allows errors.Is(err, ErrInvalidValue).
func (e *InvalidValueError) Unwrap() error {
	return ErrInvalidValue
}
