package repository

import "errors"

var (
	// ErrNotFound is returned when no document matches the requested key.
	ErrNotFound = errors.New("document not found")
	// ErrConditionNotMet is returned by conditional updates when the document
	// exists but is no longer in the expected state.
	ErrConditionNotMet = errors.New("document not in expected state")
)
