package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultRootURL is the regulator's list of business operators.
	DefaultRootURL = "http://www.sec.or.th/EN/MarketProfessionals/Intermediaries/Pages/ListofBusinessOperators.aspx"

	// DefaultTimeout is the timeout of a single request. The regulator's
	// servers are slow on the company pages.
	DefaultTimeout = 60 * time.Second

	// DefaultRate is the number of requests per second.
	DefaultRate = 1.0

	// DefaultBurst is the number of requests allowed at once.
	DefaultBurst = 1

	// DefaultRetries is how many times a failed request is retried.
	DefaultRetries = 3

	// DefaultMaxBodySize limits the bytes read from a response.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies secregistry in HTTP requests.
	DefaultUserAgent = "secregistry/1.0 (+https://github.com/nao1215/secregistry)"

	// DefaultCacheTTL is how long a cached page is served.
	DefaultCacheTTL = 24 * time.Hour

	// AppName is the application name used for XDG directory paths.
	AppName = "secregistry"
)

// Config holds the options of one scrape run.
// It is populated from environment variables and CLI flags.
type Config struct {
	// RootURL is the category index the walk starts from.
	RootURL string

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// Rate is the number of requests per second. Zero disables the limit.
	Rate float64

	// Burst is the number of requests allowed at once.
	Burst int

	// Retries is how many times a request failing with a server error
	// is retried.
	Retries int

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Proxy is an optional proxy, "host:port" for SOCKS5 or a URL.
	Proxy string

	// ObeyRobots makes the fetcher honour robots.txt.
	ObeyRobots bool

	// UseCache enables the fetched page cache.
	UseCache bool

	// CacheDir is the directory of the page cache database.
	CacheDir string

	// CacheTTL is how long a cached page is served.
	CacheTTL time.Duration

	// Limit stops the run after this many companies. Zero means no limit.
	Limit int

	// Verbose enables debug logs.
	Verbose bool

	// LogJSON writes logs as JSON lines.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .secregistry is searched in the current directory and
	// then in the home directory.
	ConfigFilePath string

	// SiteConfigs holds the settings loaded from the configuration file.
	SiteConfigs *File

	// JSONReport writes records as JSON lines. It is the default format.
	JSONReport bool

	// MarkdownReport writes records as a Markdown document.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output path. Empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RootURL:     DefaultRootURL,
		Timeout:     DefaultTimeout,
		Rate:        DefaultRate,
		Burst:       DefaultBurst,
		Retries:     DefaultRetries,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		ObeyRobots:  true,
		UseCache:    true,
		CacheDir:    XDGCacheDir(),
		CacheTTL:    DefaultCacheTTL,
		SiteConfigs: NewFile(),
	}
}

// XDGCacheDir returns the XDG cache directory for secregistry.
// On Linux: ~/.cache/secregistry
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for secregistry.
// On Linux: ~/.config/secregistry
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RootURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidRootURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Rate < 0 || c.Burst < 0 {
		return ErrInvalidRate
	}

	if c.Retries < 0 {
		return ErrInvalidRetries
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Limit < 0 {
		return ErrInvalidLimit
	}

	if c.UseCache && c.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}

	return nil
}
