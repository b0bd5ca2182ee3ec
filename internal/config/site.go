package config

// SiteConfig holds site-specific overrides for a single host.
// This allows customizing crawl behavior per document portal.
type SiteConfig struct {
	// Headers are custom HTTP headers sent with document fetches to this
	// host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxInteractions overrides the global per-page interaction cap.
	// If zero, the global cap is used.
	MaxInteractions int `yaml:"maxInteractions,omitempty"`

	// IgnorePatterns are URL patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL patterns to follow during crawling.
	// If specified, only URLs matching these patterns are enqueued.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// DocumentExtensions overrides the global document suffix list for
	// this host. Some portals serve PDFs from extensionless handler URLs
	// and instead tag them with a query parameter or content type.
	DocumentExtensions []string `yaml:"documentExtensions,omitempty"`
}

// File represents the structure of the .docharvest configuration file.
type File struct {
	// Sites maps hostnames to their site-specific overrides.
	// Keys are bare hostnames (e.g. "docs.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all hosts unless a
	// site-specific entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.MaxInteractions != 0 {
			result.MaxInteractions = siteConfig.MaxInteractions
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
		if len(siteConfig.DocumentExtensions) > 0 {
			result.DocumentExtensions = siteConfig.DocumentExtensions
		}
	}

	return result
}
