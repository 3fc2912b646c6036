package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/passkeydir/internal/model"
)

// MarkdownWriter outputs a crawl summary in Markdown format.
type MarkdownWriter struct {
	baseWriter

	// changes maps a domain to its field changes since the previous run.
	changes map[string][]model.RecordChange
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithChanges adds a section listing field changes per domain.
func WithChanges(changes map[string][]model.RecordChange) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.changes = changes
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(records []model.DomainRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := NewSummary(records)

	w.writeSummary(md, summary)
	w.writeIconChart(md, summary)
	w.writeDomains(md, records)
	w.writeChanges(md, records)
	w.writeDegraded(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *Summary) {
	md.H1("Passkey Directory Crawl")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Domains", strconv.Itoa(s.Total)},
			{"With metadata", strconv.Itoa(s.Enriched())},
			{"With name", strconv.Itoa(s.WithName)},
			{"With description", strconv.Itoa(s.WithDescription)},
			{"With icon", strconv.Itoa(s.WithIcon)},
			{"With enroll endpoint", strconv.Itoa(s.WithEnroll)},
			{"With manage endpoint", strconv.Itoa(s.WithManage)},
		},
	})
	md.PlainText("")

	switch {
	case s.Total == 0:
		md.Note("The domain list is empty.")
	case s.Enriched() == 0:
		md.Cautionf("None of the %d domains yielded any metadata.", s.Total)
	case len(s.Degraded) > 0:
		md.Warningf("%d of %d domains yielded no metadata and carry default values.", len(s.Degraded), s.Total)
	default:
		md.Tip("Every domain yielded metadata.")
	}
	md.PlainText("")
}

// writeIconChart writes a mermaid pie chart of saved icon formats.
func (w *MarkdownWriter) writeIconChart(md *markdown.Markdown, s *Summary) {
	if s.WithIcon == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Icon Formats"),
		piechart.WithShowData(true),
	)
	for _, format := range s.SortedIconFormats() {
		chart.LabelAndIntValue(format, uint64(s.IconFormats[format])) //nolint:gosec // Counts are never negative
	}

	md.H2("Icons")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, records []model.DomainRecord) {
	md.H2("Domains")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No domains.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			"`" + r.Domain + "`",
			orDash(truncateString(r.Name, 40)),
			check(r.Icon != ""),
			check(r.Endpoints.Enroll != ""),
			check(r.Endpoints.Manage != ""),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Name", "Icon", "Enroll", "Manage"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeChanges lists per-domain changes, in record order.
func (w *MarkdownWriter) writeChanges(md *markdown.Markdown, records []model.DomainRecord) {
	if len(w.changes) == 0 {
		return
	}

	md.H2("Changes Since Last Run")
	md.PlainText("")

	rows := make([][]string, 0)
	for _, r := range records {
		for _, c := range w.changes[r.Domain] {
			rows = append(rows, []string{
				"`" + r.Domain + "`",
				c.Field,
				orDash(truncateString(c.Old, 40)),
				orDash(truncateString(c.New, 40)),
			})
		}
	}
	if len(rows) == 0 {
		md.PlainText("No changes.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Field", "Before", "After"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDegraded(md *markdown.Markdown, s *Summary) {
	if len(s.Degraded) == 0 {
		return
	}
	md.H2("Domains Without Metadata")
	md.PlainText("")
	md.PlainText("These domains were unreachable or served a page with nothing to extract.")
	md.PlainText("")
	md.BulletList(s.Degraded...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [passkeydir](https://github.com/nao1215/passkeydir)*")
}

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
