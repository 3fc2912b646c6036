package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/passkeydir/internal/model"
)

// BatchProcessor runs a DomainEnricher over a list of domains.
type BatchProcessor struct {
	enricher DomainEnricher

	// concurrency is the maximum number of domains processed at once.
	concurrency int

	// progress, when set, is called after each domain completes.
	progress func(index int, record model.DomainRecord)

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of domains processed at once.
// Values below 1 are ignored. The default of 1 processes domains strictly
// one at a time in input order.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress registers a callback invoked after each domain completes,
// with the domain's index in the input. With concurrency above 1 the
// callback may be called from several goroutines at once.
func WithProgress(fn func(index int, record model.DomainRecord)) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(enricher DomainEnricher, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		enricher:    enricher,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Process enriches every domain and returns one record per input, in input
// order. When ctx is cancelled no further domains are started; domains that
// never ran keep the all-defaults record.
func (bp *BatchProcessor) Process(ctx context.Context, domains []string) []model.DomainRecord {
	bp.logger.Info("starting batch processing",
		"total_domains", len(domains),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]model.DomainRecord, len(domains))
	for i, domain := range domains {
		results[i] = model.DefaultRecord(domain)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, domain := range domains {
		if ctx.Err() != nil {
			bp.logger.Warn("batch cancelled, remaining domains keep defaults",
				"processed", i,
				"total", len(domains),
				"reason", ctx.Err(),
			)
			break
		}

		g.Go(func() error {
			record := bp.processOne(ctx, i, domain, len(domains))

			mu.Lock()
			results[i] = record
			mu.Unlock()

			if bp.progress != nil {
				bp.progress(i, record)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Workers never return errors

	bp.logger.Info("batch processing complete",
		"total_domains", len(domains),
		"elapsed", time.Since(startTime),
	)

	return results
}

// processOne enriches one domain. A panic escaping the enricher becomes a
// placeholder record so the batch always completes.
func (bp *BatchProcessor) processOne(ctx context.Context, index int, domain string, total int) (record model.DomainRecord) {
	defer func() {
		if r := recover(); r != nil {
			bp.logger.Error("recovered panic in batch worker",
				"domain", domain,
				"panic", r,
			)
			record = model.DefaultRecord(domain)
		}
	}()

	bp.logger.Info("processing domain",
		"domain", domain,
		"index", index+1,
		"total", total,
	)

	return bp.enricher.Enrich(ctx, domain)
}
