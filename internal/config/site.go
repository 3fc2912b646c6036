package config

import "strings"

// SiteConfig holds overrides for requests to a single domain.
type SiteConfig struct {
	// Cookie is sent with every request to this domain.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request to this domain.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SkipIcon disables icon discovery for this domain. The record keeps an
	// empty icon path.
	SkipIcon bool `yaml:"skipIcon,omitempty"`
}

// File represents the structure of the .passkeydir configuration file.
type File struct {
	// Sites maps domains, as written in the input list, to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every domain unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a domain. It tries the
// exact input first and then the input without an http(s) scheme.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	if site, ok := cf.Sites[domain]; ok {
		return Merge(cf.Defaults, site)
	}

	clean := domain
	for _, prefix := range []string{"http://", "https://"} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	clean = strings.TrimSuffix(clean, "/")
	if site, ok := cf.Sites[clean]; ok {
		return Merge(cf.Defaults, site)
	}

	return cf.Defaults
}

// Merge overlays the non-zero fields of override onto defaults.
// Header maps are merged key by key; the defaults map is never modified.
func Merge(defaults, override SiteConfig) SiteConfig {
	result := defaults

	if override.Cookie != "" {
		result.Cookie = override.Cookie
	}
	if override.SkipIcon {
		result.SkipIcon = true
	}
	if len(override.Headers) > 0 {
		merged := make(map[string]string, len(defaults.Headers)+len(override.Headers))
		for k, v := range defaults.Headers {
			merged[k] = v
		}
		for k, v := range override.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	return result
}
