package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultInputPath is the domain list location used by the website tooling.
	DefaultInputPath = "../resources/compatible-domains.json"

	// DefaultOutputPath is where the dataset consumed by the website is written.
	DefaultOutputPath = "public/domains.json"

	// DefaultPublicDir is the static site root. Icons are written to its
	// icons/ subdirectory and referenced relative to it.
	DefaultPublicDir = "public"

	// DefaultPageTimeout bounds each page and well-known document request.
	DefaultPageTimeout = 8 * time.Second

	// DefaultAssetTimeout bounds each icon probe, icon download, and manifest request.
	// It is shorter than the page timeout because icons are small.
	DefaultAssetTimeout = 2 * time.Second

	// DefaultConcurrency processes domains one at a time in input order.
	DefaultConcurrency = 1

	// DefaultRequestsPerSecond caps the request rate of one crawl run.
	DefaultRequestsPerSecond = 10.0

	// DefaultMaxBodySize limits how much of any response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is a regular desktop browser User-Agent. Many sites
	// serve reduced markup or block unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// AppName is the application name used for XDG directory paths.
	AppName = "passkeydir"
)

// Config holds all options for a crawl run.
// It is populated from CLI flags and passed down explicitly.
type Config struct {
	// InputPath is the JSON file holding the array of domains.
	InputPath string

	// OutputPath is the JSON dataset file. It is overwritten on every run.
	OutputPath string

	// PublicDir is the static site root that receives icons/<domain>.<ext>.
	PublicDir string

	// MarkdownPath optionally receives a Markdown crawl summary.
	// Empty disables the summary.
	MarkdownPath string

	// PageTimeout is the timeout for page and well-known requests.
	PageTimeout time.Duration

	// AssetTimeout is the timeout for icon and manifest requests.
	AssetTimeout time.Duration

	// Concurrency is the number of domains processed at the same time.
	// Icon candidates of one domain are always checked sequentially.
	Concurrency int

	// RequestsPerSecond limits the request rate. Zero disables the limit.
	RequestsPerSecond float64

	// MaxBodySize is the maximum number of body bytes read per response.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Debug enables verbose diagnostics on stderr.
	Debug bool

	// ConfigFilePath is the path of the YAML site configuration file.
	// If empty, .passkeydir is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-domain overrides loaded from the config file.
	SiteConfigs *File

	// SaveHistory stores every run's records in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		InputPath:         DefaultInputPath,
		OutputPath:        DefaultOutputPath,
		PublicDir:         DefaultPublicDir,
		PageTimeout:       DefaultPageTimeout,
		AssetTimeout:      DefaultAssetTimeout,
		Concurrency:       DefaultConcurrency,
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		SaveHistory:       true,
		DBDir:             XDGDataDir(),
	}
}

// IconsDir returns the directory icons are written to.
func (c *Config) IconsDir() string {
	return filepath.Join(c.PublicDir, IconsSubdir)
}

// IconsSubdir is the icons directory name below the public directory, and the
// prefix of icon paths stored in records.
const IconsSubdir = "icons"

// XDGDataDir returns the XDG data directory for passkeydir.
// On Linux: ~/.local/share/passkeydir
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for passkeydir.
// On Linux: ~/.config/passkeydir
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return ErrNoInput
	}
	if c.OutputPath == "" {
		return ErrNoOutput
	}
	if c.PageTimeout <= 0 || c.AssetTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.SaveHistory && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}
