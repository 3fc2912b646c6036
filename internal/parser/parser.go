package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Link rel values the crawler looks for.
const (
	RelAppleTouchIcon = "apple-touch-icon"
	RelShortcutIcon   = "shortcut icon"
	RelManifest       = "manifest"
	relIconPrefix     = "icon"
)

// descriptionSelectors are tried in order; the first selector that matches
// any element supplies the description, even when its content is empty.
var descriptionSelectors = []string{
	`meta[name="description"]`,
	`meta[name="Description"]`,
	`meta[property="og:description"]`,
}

// LinkTag is a <link> element of the page.
type LinkTag struct {
	// Rel is the raw rel attribute.
	Rel string

	// Href is the raw href attribute, unresolved. Empty when absent.
	Href string
}

// Document holds the parts of an HTML page used to build a domain record.
type Document struct {
	// Title is the text of the first <title> element, trimmed.
	Title string

	// Description is the content of the first matching description meta tag.
	Description string

	// Links are all <link> elements carrying a rel attribute, in document order.
	Links []LinkTag
}

// Parse decodes body using the charset declared in contentType (or sniffed
// from the markup) and parses it as HTML. It fails with ErrParse only when
// no tree can be built at all.
func Parse(body []byte, contentType string) (*Document, error) {
	var r io.Reader = bytes.NewReader(body)
	if decoded, err := charset.NewReader(r, contentType); err == nil {
		r = decoded
	} else {
		r = bytes.NewReader(body)
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	sel := goquery.NewDocumentFromNode(root)

	doc := &Document{
		Title: strings.TrimSpace(sel.Find("title").First().Text()),
		Links: make([]LinkTag, 0),
	}

	for _, selector := range descriptionSelectors {
		if meta := sel.Find(selector).First(); meta.Length() > 0 {
			doc.Description = meta.AttrOr("content", "")
			break
		}
	}

	sel.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		doc.Links = append(doc.Links, LinkTag{Rel: rel, Href: href})
	})

	return doc, nil
}

// AppleTouchIcon returns the href of the first <link rel="apple-touch-icon">.
// It reports false when there is no such element or its href is empty.
func (d *Document) AppleTouchIcon() (string, bool) {
	return d.firstHref(RelAppleTouchIcon)
}

// ShortcutIcon returns the href of the first <link rel="shortcut icon">.
func (d *Document) ShortcutIcon() (string, bool) {
	return d.firstHref(RelShortcutIcon)
}

// Manifest returns the href of the first <link rel="manifest">.
func (d *Document) Manifest() (string, bool) {
	return d.firstHref(RelManifest)
}

// IconLinks returns the non-empty hrefs of every <link> whose rel starts
// with "icon", in document order. Rel values compare case-insensitively.
func (d *Document) IconLinks() []string {
	hrefs := make([]string, 0)
	for _, l := range d.Links {
		if strings.HasPrefix(strings.ToLower(l.Rel), relIconPrefix) && l.Href != "" {
			hrefs = append(hrefs, l.Href)
		}
	}
	return hrefs
}

// firstHref looks only at the first element whose rel matches, ignoring
// ASCII case as HTML does for this attribute.
func (d *Document) firstHref(rel string) (string, bool) {
	for _, l := range d.Links {
		if strings.EqualFold(l.Rel, rel) {
			return l.Href, l.Href != ""
		}
	}
	return "", false
}
