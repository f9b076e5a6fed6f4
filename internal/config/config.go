package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file looked up when no -c flag is given.
const DefaultConfigFile = "sitegen.yaml"

// Config represents the sitegen configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Paths    PathsConfig    `yaml:"paths"`
	Assets   AssetsConfig   `yaml:"assets"`
	Sitemap  SitemapConfig  `yaml:"sitemap"`
	Metadata MetadataConfig `yaml:"metadata"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig carries the branding and SEO values rendered into every page.
type SiteConfig struct {
	Name          string `yaml:"name"`
	BaseURL       string `yaml:"base_url"`
	Lang          string `yaml:"lang"`
	Locale        string `yaml:"locale"`
	ColorTheme    string `yaml:"color_theme"`
	DefaultAuthor string `yaml:"default_author"`
	DefaultImage  string `yaml:"default_image"`
	Logo          string `yaml:"logo"`
	Favicon       string `yaml:"favicon"`
	GTMID         string `yaml:"gtm_id"`
}

// PathsConfig locates every input and output of the pipeline.
type PathsConfig struct {
	Metadata          string `yaml:"metadata"`
	WorkspaceMetadata string `yaml:"workspace_metadata"`
	Contents          string `yaml:"contents"`
	Template          string `yaml:"template,omitempty"` // empty selects the embedded template
	Output            string `yaml:"output"`
	Sitemap           string `yaml:"sitemap"`
	State             string `yaml:"state"`
	Metrics           string `yaml:"metrics,omitempty"` // textfile metrics target; empty disables
}

// AssetsConfig drives cache-busting.
type AssetsConfig struct {
	VersionFile     string   `yaml:"version_file"`
	Root            string   `yaml:"root"`
	DefaultVersion  string   `yaml:"default_version"`
	Files           []string `yaml:"files"`
	HTMLFiles       []string `yaml:"html_files"`
	PageStylesheets []string `yaml:"page_stylesheets"`
	PageScripts     []string `yaml:"page_scripts"`
}

// StaticPage is a sitemap entry that does not come from post metadata.
type StaticPage struct {
	URL        string `yaml:"url"`
	Priority   string `yaml:"priority"`
	ChangeFreq string `yaml:"changefreq"`
}

// SitemapConfig controls sitemap generation.
type SitemapConfig struct {
	StaticPages    []StaticPage `yaml:"static_pages"`
	PostPriority   string       `yaml:"post_priority"`
	PostChangeFreq string       `yaml:"post_changefreq"`
}

// MetadataConfig tunes metadata auto-detection.
type MetadataConfig struct {
	DescriptionLimit int    `yaml:"description_limit"`
	ImagePattern     string `yaml:"image_pattern"` // fmt pattern receiving the route
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from configPath. A missing file yields the defaults,
// matching a blog checkout that never had a config file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		return cfg, nil
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes the default configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# sitegen configuration. Values support ${ENV} expansion.\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
