package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/passkeydir/internal/model"
)

// TextWriter outputs a plain-text crawl summary for terminal display.
type TextWriter struct {
	baseWriter

	// verbose lists every domain, not only those without metadata.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose lists every domain with its extracted fields.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *TextWriter) Write(records []model.DomainRecord) (int, error) {
	var sb strings.Builder
	s := NewSummary(records)

	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Domains:      %d (%d with metadata)\n", s.Total, s.Enriched())
	fmt.Fprintf(&sb, "Names:        %d\n", s.WithName)
	fmt.Fprintf(&sb, "Icons:        %d\n", s.WithIcon)
	fmt.Fprintf(&sb, "Enroll URLs:  %d\n", s.WithEnroll)
	fmt.Fprintf(&sb, "Manage URLs:  %d\n", s.WithManage)

	if w.verbose {
		sb.WriteString("\n")
		for _, r := range records {
			status := "+"
			if r.IsDegraded() {
				status = "x"
			}
			fmt.Fprintf(&sb, "  [%s] %s", status, r.Domain)
			if r.Name != "" {
				fmt.Fprintf(&sb, "  %q", r.Name)
			}
			if r.Icon != "" {
				fmt.Fprintf(&sb, "  %s", r.Icon)
			}
			sb.WriteString("\n")
		}
	} else if len(s.Degraded) > 0 {
		sb.WriteString("\nWithout metadata:\n")
		for _, d := range s.Degraded {
			fmt.Fprintf(&sb, "  [x] %s\n", d)
		}
	}
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}
