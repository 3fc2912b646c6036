// Package report writes crawl results.
//
// This package contains writers for different output formats:
//   - JSONWriter: the domains dataset consumed by the website
//   - MarkdownWriter: a crawl summary for pull requests and CI logs
//   - TextWriter: a short human-readable summary for the terminal
//
// Writers implement the Writer interface. WriteFile writes any of them to a
// path atomically, so a failed run never leaves a truncated dataset behind.
package report
