package config

// SiteConfig holds the request settings of one host. The regulator
// serves the index and the company pages from different hosts.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are URL path globs of pages that are not visited.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path globs of pages that are visited.
	// If specified, pages matching none of them are skipped.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .secregistry configuration file.
type File struct {
	// Sites maps host names (e.g. "capital.sec.or.th") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// SkipCategories are globs of index titles whose listings are
	// not visited (e.g. "Staff or Agent*").
	SkipCategories []string `yaml:"skipCategories,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Sites: make(map[string]SiteConfig)}
}

// GetSiteConfig returns the settings for a host, merging the host's
// entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	return result
}
