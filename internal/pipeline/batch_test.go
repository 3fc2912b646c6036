package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/passkeydir/internal/model"
)

// enricherFunc adapts a function to DomainEnricher.
type enricherFunc func(ctx context.Context, domain string) model.DomainRecord

func (f enricherFunc) Enrich(ctx context.Context, domain string) model.DomainRecord {
	return f(ctx, domain)
}

func namedRecord(domain string) model.DomainRecord {
	r := model.DefaultRecord(domain)
	r.Name = "name of " + domain
	return r
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to sequential processing", func(t *testing.T) {
		t.Parallel()

		if bp := NewBatchProcessor(nil); bp.concurrency != 1 {
			t.Errorf("concurrency = %d, want 1", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		if bp := NewBatchProcessor(nil, WithConcurrency(0), WithConcurrency(-3)); bp.concurrency != 1 {
			t.Errorf("concurrency = %d, want 1", bp.concurrency)
		}
		if bp := NewBatchProcessor(nil, WithConcurrency(5)); bp.concurrency != 5 {
			t.Errorf("concurrency = %d, want 5", bp.concurrency)
		}
	})
}

// TestBatchProcessorProcess tests ordering, totality, and containment.
func TestBatchProcessorProcess(t *testing.T) {
	t.Parallel()

	t.Run("sequential in input order", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string
		var active, maxActive atomic.Int32

		enricher := enricherFunc(func(_ context.Context, domain string) model.DomainRecord {
			n := active.Add(1)
			if n > maxActive.Load() {
				maxActive.Store(n)
			}
			defer active.Add(-1)

			mu.Lock()
			order = append(order, domain)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			return namedRecord(domain)
		})

		domains := []string{"c.example", "a.example", "b.example", "a.example"}
		got := NewBatchProcessor(enricher).Process(context.Background(), domains)

		if maxActive.Load() != 1 {
			t.Errorf("max concurrent domains = %d, want 1", maxActive.Load())
		}
		for i, d := range domains {
			if order[i] != d {
				t.Errorf("processing order = %v, want %v", order, domains)
				break
			}
			if got[i] != namedRecord(d) {
				t.Errorf("record %d = %+v, want %+v", i, got[i], namedRecord(d))
			}
		}
	})

	t.Run("concurrent results keep input order", func(t *testing.T) {
		t.Parallel()

		enricher := enricherFunc(func(_ context.Context, domain string) model.DomainRecord {
			// Earlier domains finish later.
			time.Sleep(time.Duration(len(domain)) * time.Millisecond)
			return namedRecord(domain)
		})

		domains := []string{"long-long-long.example", "mid.example", "s.example", "x"}
		got := NewBatchProcessor(enricher, WithConcurrency(4)).Process(context.Background(), domains)

		if len(got) != len(domains) {
			t.Fatalf("len = %d, want %d", len(got), len(domains))
		}
		for i, d := range domains {
			if got[i].Domain != d {
				t.Errorf("record %d domain = %q, want %q", i, got[i].Domain, d)
			}
		}
	})

	t.Run("panicking enricher yields placeholder", func(t *testing.T) {
		t.Parallel()

		enricher := enricherFunc(func(_ context.Context, domain string) model.DomainRecord {
			if domain == "panic.example" {
				panic("boom")
			}
			return namedRecord(domain)
		})

		got := NewBatchProcessor(enricher).Process(context.Background(), []string{"ok.example", "panic.example", "after.example"})
		if got[1] != model.DefaultRecord("panic.example") {
			t.Errorf("record 1 = %+v, want defaults", got[1])
		}
		if got[2] != namedRecord("after.example") {
			t.Errorf("record 2 = %+v, want processing to continue", got[2])
		}
	})

	t.Run("cancelled context keeps defaults", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		enricher := enricherFunc(func(_ context.Context, domain string) model.DomainRecord {
			calls.Add(1)
			return namedRecord(domain)
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		domains := []string{"a.example", "b.example"}
		got := NewBatchProcessor(enricher).Process(ctx, domains)
		if calls.Load() != 0 {
			t.Errorf("enricher called %d times after cancellation", calls.Load())
		}
		for i, d := range domains {
			if got[i] != model.DefaultRecord(d) {
				t.Errorf("record %d = %+v, want defaults", i, got[i])
			}
		}
	})

	t.Run("reports progress", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		seen := make(map[int]string)
		progress := func(index int, record model.DomainRecord) {
			mu.Lock()
			defer mu.Unlock()
			seen[index] = record.Domain
		}

		enricher := enricherFunc(func(_ context.Context, domain string) model.DomainRecord {
			return namedRecord(domain)
		})
		domains := []string{"a.example", "b.example", "c.example"}
		NewBatchProcessor(enricher, WithConcurrency(2), WithProgress(progress)).Process(context.Background(), domains)

		if len(seen) != len(domains) {
			t.Fatalf("progress called for %d domains, want %d", len(seen), len(domains))
		}
		for i, d := range domains {
			if seen[i] != d {
				t.Errorf("progress[%d] = %q, want %q", i, seen[i], d)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		got := NewBatchProcessor(enricherFunc(nil)).Process(context.Background(), []string{})
		if got == nil || len(got) != 0 {
			t.Errorf("Process() = %v, want empty non-nil slice", got)
		}
	})
}
