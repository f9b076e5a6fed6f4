package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// minDescriptionLimit leaves room for the "..." suffix and one rune.
const minDescriptionLimit = 4

// changeFreqs is the sitemaps.org changefreq vocabulary.
var changeFreqs = map[string]struct{}{
	"always": {}, "hourly": {}, "daily": {}, "weekly": {},
	"monthly": {}, "yearly": {}, "never": {},
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("site.base_url must be an absolute http(s) URL, got %q", c.Site.BaseURL))
	}

	required := []struct{ key, value string }{
		{"paths.metadata", c.Paths.Metadata},
		{"paths.contents", c.Paths.Contents},
		{"paths.output", c.Paths.Output},
		{"paths.sitemap", c.Paths.Sitemap},
		{"assets.version_file", c.Assets.VersionFile},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.key+" is required")
		}
	}
	if !strings.Contains(c.Metadata.ImagePattern, "%s") {
		problems = append(problems, "metadata.image_pattern must contain %s for the route")
	}

	if c.Metadata.DescriptionLimit < minDescriptionLimit {
		problems = append(problems, fmt.Sprintf("metadata.description_limit must be at least %d, got %d", minDescriptionLimit, c.Metadata.DescriptionLimit))
	}

	if !IsSemver(c.Assets.DefaultVersion) {
		problems = append(problems, fmt.Sprintf("assets.default_version must look like MAJOR.MINOR.PATCH, got %q", c.Assets.DefaultVersion))
	}

	if _, ok := logLevels.Lookup(c.Logging.Level); !ok && c.Logging.Level != "" {
		problems = append(problems, fmt.Sprintf("logging.level must be one of %s, got %q", strings.Join(logLevels.Names(), "|"), c.Logging.Level))
	}
	if _, ok := logFormats.Lookup(c.Logging.Format); !ok && c.Logging.Format != "" {
		problems = append(problems, fmt.Sprintf("logging.format must be one of %s, got %q", strings.Join(logFormats.Names(), "|"), c.Logging.Format))
	}

	seen := make(map[string]struct{}, len(c.Sitemap.StaticPages))
	for i, p := range c.Sitemap.StaticPages {
		if _, dup := seen[p.URL]; dup {
			problems = append(problems, fmt.Sprintf("sitemap.static_pages[%d]: duplicate url %q", i, p.URL))
		}
		seen[p.URL] = struct{}{}
		problems = append(problems, validatePriority(fmt.Sprintf("sitemap.static_pages[%d].priority", i), p.Priority)...)
		problems = append(problems, validateChangeFreq(fmt.Sprintf("sitemap.static_pages[%d].changefreq", i), p.ChangeFreq)...)
	}
	problems = append(problems, validatePriority("sitemap.post_priority", c.Sitemap.PostPriority)...)
	problems = append(problems, validateChangeFreq("sitemap.post_changefreq", c.Sitemap.PostChangeFreq)...)

	if len(problems) == 0 {
		return nil
	}
	return errors.ConfigError("invalid configuration").
		WithContext("problems", strings.Join(problems, "; ")).
		Build()
}

func validatePriority(field, raw string) []string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return []string{fmt.Sprintf("%s must be a number between 0.0 and 1.0, got %q", field, raw)}
	}
	return nil
}

func validateChangeFreq(field, raw string) []string {
	if _, ok := changeFreqs[raw]; !ok {
		return []string{fmt.Sprintf("%s must be one of always|hourly|daily|weekly|monthly|yearly|never, got %q", field, raw)}
	}
	return nil
}

// IsSemver reports whether v is three dot-separated non-negative integers.
func IsSemver(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return false
		}
	}
	return true
}
