package resources

import "errors"

var (
	// ErrResourceMissing is returned when a resource file does not exist.
	ErrResourceMissing = errors.New("resource missing")
	// ErrResourceMalformed is returned when a resource file cannot be parsed.
	ErrResourceMalformed = errors.New("resource malformed")
)
