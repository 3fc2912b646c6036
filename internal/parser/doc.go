// Package parser extracts the metadata the crawler needs from fetched
// documents: page title, description, and icon-related <link> elements from
// HTML, plus the icon list of a web app manifest.
//
// HTML is decoded from its declared charset and parsed leniently, so
// malformed markup still yields a Document.
package parser
