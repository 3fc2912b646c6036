package icon

import (
	"context"
	"fmt"

	"github.com/nao1215/passkeydir/internal/model"
)

// Resolve evaluates candidates sequentially in order and returns the one
// with the largest decoded pixel area. A candidate replaces the current best
// only when its area is strictly greater. Candidates that fail to probe,
// download, or decode are skipped.
func (r *Resolver) Resolve(ctx context.Context, candidates []model.IconCandidate) (*model.ResolvedIcon, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	var best *model.ResolvedIcon
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true

		icon, err := r.evaluate(ctx, c)
		if err != nil {
			r.logger.Debug("skipping icon candidate", "url", c.URL, "source", c.Source, "error", err)
			continue
		}

		r.logger.Debug("icon candidate",
			"url", c.URL,
			"source", c.Source,
			"width", icon.Width,
			"height", icon.Height,
		)
		if icon.Area() > best.Area() {
			best = icon
		}
	}

	if best == nil {
		return nil, ErrNoUsableIcon
	}
	return best, nil
}

// evaluate probes a candidate, downloads it, and decodes its size.
func (r *Resolver) evaluate(ctx context.Context, c model.IconCandidate) (*model.ResolvedIcon, error) {
	if err := r.fetcher.Probe(ctx, c.URL); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	res, err := r.fetcher.FetchAsset(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	size, err := DecodeSize(res.Body)
	if err != nil {
		return nil, err
	}

	return &model.ResolvedIcon{
		URL:    c.URL,
		Width:  size.Width,
		Height: size.Height,
		Format: size.Format,
		Data:   res.Body,
	}, nil
}
