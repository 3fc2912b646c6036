package report

import (
	"path"
	"sort"
	"strings"

	"github.com/nao1215/passkeydir/internal/model"
)

// Summary aggregates a crawl run for the human-facing writers.
type Summary struct {
	// Total is the number of records.
	Total int

	// WithName, WithDescription, and WithIcon count records where the field is set.
	WithName        int
	WithDescription int
	WithIcon        int

	// WithEnroll and WithManage count records exposing each passkey endpoint.
	WithEnroll int
	WithManage int

	// Degraded lists domains whose record carries only defaults, in input order.
	// The page was unreachable or exposed no title, description, icon, or
	// passkey endpoint.
	Degraded []string

	// IconFormats counts saved icons by file extension ("png", "ico", ...).
	// Icons saved without an extension are counted under "other".
	IconFormats map[string]int
}

// NewSummary computes a Summary over records.
func NewSummary(records []model.DomainRecord) *Summary {
	s := &Summary{
		Total:       len(records),
		Degraded:    make([]string, 0),
		IconFormats: make(map[string]int),
	}

	for _, r := range records {
		if r.Name != "" {
			s.WithName++
		}
		if r.Description != "" {
			s.WithDescription++
		}
		if r.Icon != "" {
			s.WithIcon++
			s.IconFormats[iconFormat(r.Icon)]++
		}
		if r.Endpoints.Enroll != "" {
			s.WithEnroll++
		}
		if r.Endpoints.Manage != "" {
			s.WithManage++
		}
		if r.IsDegraded() {
			s.Degraded = append(s.Degraded, r.Domain)
		}
	}

	return s
}

// Enriched returns the number of records that carry any metadata.
func (s *Summary) Enriched() int {
	return s.Total - len(s.Degraded)
}

// SortedIconFormats returns the icon format keys in alphabetical order.
func (s *Summary) SortedIconFormats() []string {
	formats := make([]string, 0, len(s.IconFormats))
	for f := range s.IconFormats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

func iconFormat(iconPath string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(iconPath)), ".")
	// icons/example.com was saved without an extension.
	if !knownIconExt[ext] {
		return "other"
	}
	return ext
}

// knownIconExt lists extensions treated as icon formats in summaries.
var knownIconExt = map[string]bool{
	"png":  true,
	"ico":  true,
	"svg":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
	"cur":  true,
}
