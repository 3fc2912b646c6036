package parser

import (
	"encoding/json"
	"fmt"
)

// Manifest is the subset of a web app manifest the crawler reads.
type Manifest struct {
	Name  string         `json:"name"`
	Icons []ManifestIcon `json:"icons"`
}

// ManifestIcon is one entry of a manifest's icons array.
type ManifestIcon struct {
	// Src is the icon URL, relative to the manifest URL.
	Src string `json:"src"`

	// Sizes is the declared sizes string, e.g. "192x192". Informational only.
	Sizes string `json:"sizes"`

	// Type is the declared media type.
	Type string `json:"type"`
}

// ParseManifest decodes a web app manifest.
func ParseManifest(body []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return &m, nil
}

// IconSources returns the non-empty icon srcs in declaration order.
func (m *Manifest) IconSources() []string {
	srcs := make([]string, 0, len(m.Icons))
	for _, icon := range m.Icons {
		if icon.Src != "" {
			srcs = append(srcs, icon.Src)
		}
	}
	return srcs
}
