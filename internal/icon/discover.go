package icon

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/model"
	"github.com/nao1215/passkeydir/internal/parser"
)

// faviconPath is the conventional icon location checked for every site.
const faviconPath = "/favicon.ico"

// Fetcher is the HTTP surface the icon code depends on.
// *fetch.Client implements it.
type Fetcher interface {
	FetchAsset(ctx context.Context, rawURL string) (*fetch.Result, error)
	Probe(ctx context.Context, rawURL string) error
}

// Resolver discovers and ranks icon candidates.
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

// Discover returns the icon candidates of a page in discovery order:
//  1. /favicon.ico resolved against baseURL
//  2. the first <link rel="apple-touch-icon">
//  3. the first <link rel="shortcut icon">
//  4. every icon declared by the first <link rel="manifest">
//  5. every <link> whose rel starts with "icon"
//
// Relative hrefs are resolved against baseURL, and manifest icon srcs against
// the manifest URL. A manifest that cannot be fetched or parsed contributes
// nothing. Hrefs that do not resolve to an http(s) URL are dropped.
// Duplicates are kept; Resolve evaluates each URL only once.
func (r *Resolver) Discover(ctx context.Context, doc *parser.Document, baseURL string) []model.IconCandidate {
	candidates := make([]model.IconCandidate, 0)

	base, err := url.Parse(baseURL)
	if err != nil {
		r.logger.Debug("invalid base URL for icon discovery", "url", baseURL, "error", err)
		return candidates
	}

	add := func(ref *url.URL, href string, source model.IconSource) {
		if resolved, ok := resolveHref(ref, href); ok {
			candidates = append(candidates, model.IconCandidate{URL: resolved, Source: source})
		}
	}

	add(base, faviconPath, model.IconSourceFavicon)
	if doc == nil {
		return candidates
	}

	if href, ok := doc.AppleTouchIcon(); ok {
		add(base, href, model.IconSourceAppleTouch)
	}
	if href, ok := doc.ShortcutIcon(); ok {
		add(base, href, model.IconSourceShortcut)
	}
	if href, ok := doc.Manifest(); ok {
		if manifestURL, ok := resolveHref(base, href); ok {
			ref, _ := url.Parse(manifestURL) //nolint:errcheck // Produced by resolveHref
			for _, src := range r.manifestIcons(ctx, manifestURL) {
				add(ref, src, model.IconSourceManifest)
			}
		}
	}
	for _, href := range doc.IconLinks() {
		add(base, href, model.IconSourceLink)
	}

	return candidates
}

// manifestIcons fetches a web app manifest and returns its icon srcs.
func (r *Resolver) manifestIcons(ctx context.Context, manifestURL string) []string {
	res, err := r.fetcher.FetchAsset(ctx, manifestURL)
	if err != nil {
		r.logger.Debug("failed to fetch manifest", "url", manifestURL, "error", err)
		return nil
	}

	manifest, err := parser.ParseManifest(res.Body)
	if err != nil {
		r.logger.Debug("failed to parse manifest", "url", manifestURL, "error", err)
		return nil
	}
	return manifest.IconSources()
}

// resolveHref resolves href against base and keeps only http(s) results.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}
