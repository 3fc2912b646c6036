// Package config provides the crawl configuration: defaults, validation,
// XDG directory helpers, and the optional YAML file with per-domain request
// overrides.
package config
