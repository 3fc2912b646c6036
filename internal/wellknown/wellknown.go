// Package wellknown reads a site's passkey endpoints document,
// https://<host>/.well-known/passkey-endpoints.
package wellknown

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/model"
)

// Path is the well-known location of the passkey endpoints document.
const Path = "/.well-known/passkey-endpoints"

// Fetcher fetches the endpoints document. *fetch.Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Resolver looks up passkey endpoints.
type Resolver struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver creates a Resolver. A nil logger uses slog.Default().
func NewResolver(fetcher Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// URL returns the endpoints document URL for hostname.
func URL(hostname string) string {
	return "https://" + hostname + Path
}

// Resolve fetches the endpoints document of hostname. It never fails: an
// unreachable document, invalid JSON, or a missing or non-string field
// leaves the corresponding endpoint empty.
func (r *Resolver) Resolve(ctx context.Context, hostname string) model.EndpointSet {
	var endpoints model.EndpointSet
	if hostname == "" {
		return endpoints
	}

	target := URL(hostname)
	res, err := r.fetcher.FetchPage(ctx, target)
	if err != nil {
		r.logger.Debug("passkey endpoints unavailable", "url", target, "error", err)
		return endpoints
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(res.Body, &doc); err != nil {
		r.logger.Debug("invalid passkey endpoints document", "url", target, "error", err)
		return endpoints
	}

	endpoints.Enroll = stringField(doc, "enroll")
	endpoints.Manage = stringField(doc, "manage")
	return endpoints
}

// stringField returns doc[key] if it is a JSON string, else "".
func stringField(doc map[string]json.RawMessage, key string) string {
	raw, ok := doc[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
