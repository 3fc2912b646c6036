package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrPageUnreachable is returned by the fetch step when neither the
	// primary nor the fallback origin could be fetched.
	ErrPageUnreachable = errors.New("page unreachable")

	// ErrNotArray is returned when the domain list is not a JSON array.
	ErrNotArray = errors.New("domain list must be a JSON array of strings")
)

// FatalInputError reports a domain list that cannot be read or parsed.
// It is the only error that aborts a crawl run.
type FatalInputError struct {
	// Path is the domain list location.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *FatalInputError) Error() string {
	return fmt.Sprintf("failed to load domain list %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FatalInputError) Unwrap() error {
	return e.Err
}
