package model

import "github.com/nao1215/passkeydir/internal/parser"

// Enrichment is the working state for one domain as it moves through the
// enrichment pipeline. Steps fill in fields; Record turns it into the final
// immutable DomainRecord.
type Enrichment struct {
	// Target is the parsed domain input.
	Target Target

	// EffectiveURL is the URL the page was finally fetched from, after at most
	// one redirect and at most one www. fallback.
	EffectiveURL string

	// Body is the raw page body.
	Body []byte

	// ContentType is the declared Content-Type of the page response.
	ContentType string

	// Document is the parsed page, or nil when parsing failed.
	Document *parser.Document

	// Title and Description are extracted from the page markup.
	Title       string
	Description string

	// Candidates are the icon URLs discovered on the page, in discovery order.
	Candidates []IconCandidate

	// Icon is the best icon found, or nil.
	Icon *ResolvedIcon

	// IconPath is the saved icon path relative to the public directory.
	IconPath string

	// Endpoints are the passkey well-known endpoints.
	Endpoints EndpointSet

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string
}

// NewEnrichment creates the working state for a target.
func NewEnrichment(target Target) *Enrichment {
	return &Enrichment{
		Target:         target,
		Candidates:     make([]IconCandidate, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Record builds the DomainRecord for this enrichment.
func (e *Enrichment) Record() DomainRecord {
	return DomainRecord{
		Domain:      e.Target.Raw(),
		Name:        e.Title,
		Description: e.Description,
		Icon:        e.IconPath,
		Endpoints:   e.Endpoints,
	}
}
