package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/icon"
	"github.com/nao1215/passkeydir/internal/model"
	"github.com/nao1215/passkeydir/internal/parser"
	"github.com/nao1215/passkeydir/internal/wellknown"
)

// Step names.
const (
	StepFetchPage        = "fetch_page"
	StepParsePage        = "parse_page"
	StepResolveIcon      = "resolve_icon"
	StepResolveEndpoints = "resolve_endpoints"
)

// PageFetcher fetches a landing page. *fetch.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// FetchPageStep fetches the domain's landing page from the primary origin,
// falling back once to the www. origin.
type FetchPageStep struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewFetchPageStep creates a FetchPageStep.
func NewFetchPageStep(fetcher PageFetcher, logger *slog.Logger) *FetchPageStep {
	return &FetchPageStep{fetcher: fetcher, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *FetchPageStep) Name() string {
	return StepFetchPage
}

// Do fetches the page. Failure of both origins is critical.
func (s *FetchPageStep) Do(ctx context.Context, e *model.Enrichment) error {
	primary := e.Target.PrimaryURL()
	res, err := s.fetcher.FetchPage(ctx, primary)
	if err != nil {
		if !e.Target.HasFallback() {
			return fmt.Errorf("%w: %w", ErrPageUnreachable, err)
		}

		fallback := e.Target.FallbackURL()
		s.logger.Debug("primary origin failed, trying fallback",
			"domain", e.Target.Raw(),
			"primary", primary,
			"fallback", fallback,
			"error", err,
		)

		var ferr error
		res, ferr = s.fetcher.FetchPage(ctx, fallback)
		if ferr != nil {
			return fmt.Errorf("%w: %w; fallback: %w", ErrPageUnreachable, err, ferr)
		}
	}

	e.EffectiveURL = res.EffectiveURL
	e.Body = res.Body
	e.ContentType = res.ContentType
	return nil
}

// ParsePageStep extracts title, description, and links from the page.
type ParsePageStep struct {
	logger *slog.Logger
}

// NewParsePageStep creates a ParsePageStep.
func NewParsePageStep(logger *slog.Logger) *ParsePageStep {
	return &ParsePageStep{logger: orDefault(logger)}
}

// Name returns the step name.
func (s *ParsePageStep) Name() string {
	return StepParsePage
}

// Do parses the fetched body. A parse failure leaves name and description empty.
func (s *ParsePageStep) Do(_ context.Context, e *model.Enrichment) error {
	doc, err := parser.Parse(e.Body, e.ContentType)
	if err != nil {
		s.logger.Debug("failed to parse page", "domain", e.Target.Raw(), "error", err)
		return nil
	}

	e.Document = doc
	e.Title = doc.Title
	e.Description = doc.Description
	return nil
}

// ResolveIconStep discovers, ranks, and saves the domain's icon.
type ResolveIconStep struct {
	resolver *icon.Resolver
	store    *icon.Store
	skip     bool
	logger   *slog.Logger
}

// NewResolveIconStep creates a ResolveIconStep. With skip set the step does
// nothing and the record keeps an empty icon.
func NewResolveIconStep(resolver *icon.Resolver, store *icon.Store, skip bool, logger *slog.Logger) *ResolveIconStep {
	return &ResolveIconStep{
		resolver: resolver,
		store:    store,
		skip:     skip,
		logger:   orDefault(logger),
	}
}

// Name returns the step name.
func (s *ResolveIconStep) Name() string {
	return StepResolveIcon
}

// Do resolves the icon. Every failure only leaves the icon field empty.
func (s *ResolveIconStep) Do(ctx context.Context, e *model.Enrichment) error {
	if s.skip {
		s.logger.Debug("icon resolution disabled for site", "domain", e.Target.Raw())
		return nil
	}

	e.Candidates = s.resolver.Discover(ctx, e.Document, e.EffectiveURL)

	best, err := s.resolver.Resolve(ctx, e.Candidates)
	if err != nil {
		s.logger.Debug("no icon selected",
			"domain", e.Target.Raw(),
			"candidates", len(e.Candidates),
			"error", err,
		)
		return nil
	}
	e.Icon = best

	path, err := s.store.Save(e.Target.Key(), best)
	if err != nil {
		s.logger.Warn("failed to save icon", "domain", e.Target.Raw(), "url", best.URL, "error", err)
		return nil
	}
	e.IconPath = path
	return nil
}

// ResolveEndpointsStep reads the passkey well-known document.
type ResolveEndpointsStep struct {
	resolver *wellknown.Resolver
}

// NewResolveEndpointsStep creates a ResolveEndpointsStep.
func NewResolveEndpointsStep(resolver *wellknown.Resolver) *ResolveEndpointsStep {
	return &ResolveEndpointsStep{resolver: resolver}
}

// Name returns the step name.
func (s *ResolveEndpointsStep) Name() string {
	return StepResolveEndpoints
}

// Do looks up endpoints on the host the page was finally served from.
func (s *ResolveEndpointsStep) Do(ctx context.Context, e *model.Enrichment) error {
	e.Endpoints = s.resolver.Resolve(ctx, effectiveHostname(e))
	return nil
}

// effectiveHostname returns the host of the effective URL, or of the
// primary origin when no page was fetched.
func effectiveHostname(e *model.Enrichment) string {
	if u, err := url.Parse(e.EffectiveURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return e.Target.Hostname()
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
