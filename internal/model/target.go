package model

import (
	"errors"
	"net/url"
	"strings"
)

// Target errors.
var (
	// ErrEmptyDomain is returned when the domain input is empty or blank.
	ErrEmptyDomain = errors.New("domain cannot be empty")
	// ErrInvalidDomain is returned when the domain input cannot form a URL with a host.
	ErrInvalidDomain = errors.New("invalid domain")
)

const (
	// defaultScheme is prepended to bare domain inputs.
	defaultScheme = "https://"
	// wwwPrefix is the host prefix used for the fallback origin.
	wwwPrefix = "www."
)

// Target is an immutable value object describing where to fetch a domain from.
// It is derived from a single entry of the input list.
type Target struct {
	raw      string
	primary  *url.URL
	fallback *url.URL
}

// ParseTarget builds a Target from a domain input.
//
// A bare hostname such as "example.com" yields the primary origin
// https://example.com and the fallback origin https://www.example.com.
// An input that already carries a scheme is used as the primary origin as-is;
// its fallback inserts "www." into the host unless the host already starts
// with it, in which case the target has no fallback.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, ErrEmptyDomain
	}

	candidate := trimmed
	if !hasScheme(trimmed) {
		candidate = defaultScheme + trimmed
	}

	primary, err := url.Parse(candidate)
	if err != nil || primary.Host == "" {
		return Target{}, ErrInvalidDomain
	}

	t := Target{raw: raw, primary: primary}
	if !strings.HasPrefix(strings.ToLower(primary.Hostname()), wwwPrefix) {
		fallback := *primary
		fallback.Host = wwwPrefix + primary.Host
		t.fallback = &fallback
	}
	return t, nil
}

// hasScheme reports whether the input starts with an http or https scheme.
func hasScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Raw returns the domain exactly as it appeared in the input list.
func (t Target) Raw() string {
	return t.raw
}

// PrimaryURL returns the first origin to fetch.
func (t Target) PrimaryURL() string {
	if t.primary == nil {
		return ""
	}
	return t.primary.String()
}

// FallbackURL returns the www. origin tried after a failed primary fetch.
// It returns an empty string when the target has no fallback.
func (t Target) FallbackURL() string {
	if t.fallback == nil {
		return ""
	}
	return t.fallback.String()
}

// HasFallback reports whether a www. fallback origin exists.
func (t Target) HasFallback() bool {
	return t.fallback != nil
}

// Hostname returns the host of the primary origin without port.
func (t Target) Hostname() string {
	if t.primary == nil {
		return ""
	}
	return t.primary.Hostname()
}

// Key returns the name used for files derived from this domain, such as the
// saved icon. Bare inputs are used verbatim; inputs with a scheme use the host.
func (t Target) Key() string {
	trimmed := strings.TrimSpace(t.raw)
	if !hasScheme(trimmed) {
		return trimmed
	}
	return t.primary.Host
}
