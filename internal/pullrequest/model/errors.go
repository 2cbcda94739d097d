package model

import "errors"

var (
	// ErrIgnoredUnknown indicates a visit to a record whose project or repository is unknown.
	ErrIgnoredUnknown = errors.New("pull request record has unknown project or repository")
	// ErrUnknownProject indicates an attempt to save a record carrying an unknown sentinel.
	ErrUnknownProject = errors.New("refusing to save record with unknown project or repository")
	// ErrEmptyKey indicates an operation without a pull request key.
	ErrEmptyKey = errors.New("pull request key must not be empty")
)
