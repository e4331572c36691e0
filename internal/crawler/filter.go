package crawler

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nao1215/secregistry/internal/config"
)

// Filter decides which categories and pages the Walker visits.
type Filter struct {
	sites *config.File
}

// NewFilter returns a Filter driven by the configuration file.
// A nil file allows everything.
func NewFilter(file *config.File) *Filter {
	if file == nil {
		file = config.NewFile()
	}
	return &Filter{sites: file}
}

// AllowCategory reports whether a listing with this title is visited.
func (f *Filter) AllowCategory(title string) bool {
	for _, pattern := range f.sites.SkipCategories {
		if matched, err := filepath.Match(pattern, title); err == nil && matched {
			return false
		}
	}
	return true
}

// AllowURL reports whether a page is visited according to the ignore and
// follow patterns configured for its host.
//
//  1. A URL matching any ignore pattern is skipped.
//  2. When follow patterns are set, a URL must match one of them.
//  3. Otherwise the URL is visited.
func (f *Filter) AllowURL(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	site := f.sites.GetSiteConfig(u.Hostname())
	for _, pattern := range site.IgnorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(site.FollowPatterns) == 0 {
		return true
	}
	for _, pattern := range site.FollowPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
//
//   - "/admin/*" matches "/admin/dashboard" and "/admin"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1"
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	// Bare patterns like "*.php" also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
