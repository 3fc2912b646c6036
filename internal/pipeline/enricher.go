package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/passkeydir/internal/config"
	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/icon"
	"github.com/nao1215/passkeydir/internal/model"
	"github.com/nao1215/passkeydir/internal/wellknown"
)

// DomainEnricher produces the record of a single domain.
type DomainEnricher interface {
	Enrich(ctx context.Context, domain string) model.DomainRecord
}

// Enricher builds and runs the per-domain pipeline.
type Enricher struct {
	client *fetch.Client
	store  *icon.Store
	sites  *config.File
	logger *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithSites applies per-site request overrides from a config file.
func WithSites(sites *config.File) EnricherOption {
	return func(en *Enricher) {
		en.sites = sites
	}
}

// WithEnricherLogger sets the logger passed to every step.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(en *Enricher) {
		en.logger = logger
	}
}

// NewEnricher creates an Enricher that fetches with client and saves icons
// into store.
func NewEnricher(client *fetch.Client, store *icon.Store, opts ...EnricherOption) *Enricher {
	en := &Enricher{
		client: client,
		store:  store,
	}
	for _, opt := range opts {
		opt(en)
	}
	if en.logger == nil {
		en.logger = slog.Default()
	}
	return en
}

// Pipeline builds the step sequence for one domain, applying its site
// overrides.
func (en *Enricher) Pipeline(site config.SiteConfig) *Pipeline {
	client := en.client.WithSite(site.Cookie, site.Headers)

	p := New(WithLogger(en.logger))
	p.AddSteps(
		NewFetchPageStep(client, en.logger),
		NewParsePageStep(en.logger),
		NewResolveIconStep(icon.NewResolver(client, en.logger), en.store, site.SkipIcon, en.logger),
		NewResolveEndpointsStep(wellknown.NewResolver(client, en.logger)),
	)
	return p
}

// Enrich produces the record for domain. It never fails: an invalid domain,
// an unreachable page, or a panic inside a step yields the all-defaults
// record.
func (en *Enricher) Enrich(ctx context.Context, domain string) (record model.DomainRecord) {
	defer func() {
		if r := recover(); r != nil {
			en.logger.Error("recovered panic while enriching domain",
				"domain", domain,
				"panic", r,
			)
			record = model.DefaultRecord(domain)
		}
	}()

	target, err := model.ParseTarget(domain)
	if err != nil {
		en.logger.Warn("invalid domain", "domain", domain, "error", err)
		return model.DefaultRecord(domain)
	}

	e := model.NewEnrichment(target)
	if err := en.Pipeline(en.sites.GetSiteConfig(domain)).Execute(ctx, e); err != nil {
		return model.DefaultRecord(domain)
	}

	en.logger.Debug("domain enriched",
		"domain", domain,
		"effective_url", e.EffectiveURL,
		"steps", e.PerformedSteps,
		"icon", e.IconPath,
	)
	return e.Record()
}
