package model

// IconSource identifies where an icon candidate was discovered.
type IconSource string

// Icon candidate sources in discovery order.
const (
	// IconSourceFavicon is the default /favicon.ico location.
	IconSourceFavicon IconSource = "favicon"
	// IconSourceAppleTouch is a <link rel="apple-touch-icon"> element.
	IconSourceAppleTouch IconSource = "apple-touch-icon"
	// IconSourceShortcut is a <link rel="shortcut icon"> element.
	IconSourceShortcut IconSource = "shortcut-icon"
	// IconSourceManifest is an icon declared by the web app manifest.
	IconSourceManifest IconSource = "manifest"
	// IconSourceLink is any <link> element whose rel starts with "icon".
	IconSourceLink IconSource = "icon-link"
)

// IconCandidate is a URL that may point to a site icon.
type IconCandidate struct {
	// URL is the absolute icon URL.
	URL string

	// Source records which discovery rule produced the candidate.
	Source IconSource
}

// ResolvedIcon is the candidate selected as the best available icon.
type ResolvedIcon struct {
	// URL is the absolute URL of the chosen icon.
	URL string

	// Width and Height are the decoded pixel dimensions.
	Width  int
	Height int

	// Format is the decoded image format, for example "png" or "ico".
	Format string

	// Data holds the bytes downloaded while sizing the icon.
	Data []byte
}

// Area returns the pixel area used to rank icons.
func (r *ResolvedIcon) Area() int {
	if r == nil {
		return 0
	}
	return r.Width * r.Height
}
