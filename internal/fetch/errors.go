package fetch

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by TransportError.
var (
	// ErrUnexpectedStatus is returned when the response status is outside
	// the accepted range for the request kind.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrTooManyRedirects is returned when a response redirects more often
	// than the request kind allows.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrMissingLocation is returned for a redirect without a Location header.
	ErrMissingLocation = errors.New("redirect without Location header")

	// ErrBodyTooLarge is returned when an asset body exceeds the size limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

// TransportError describes a failed request: DNS failure, refused or timed
// out connection, a redirect that could not be followed, or a status outside
// the accepted range.
type TransportError struct {
	// Method is the HTTP method of the failed request.
	Method string

	// URL is the requested URL.
	URL string

	// StatusCode is the response status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}
