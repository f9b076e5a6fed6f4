package config

import "strings"

// Default returns the configuration for the KenesLab blog layout.
func Default() *Config {
	cfg := &Config{
		Site: SiteConfig{
			Name:          "KenesLab Blog",
			BaseURL:       "https://keneslab.github.io",
			Lang:          "ko",
			Locale:        "ko_KR",
			ColorTheme:    "dark",
			DefaultAuthor: "KenesLab",
			DefaultImage:  "images/og-default.jpg",
			Logo:          "images/logo.png",
			Favicon:       "/favicon.ico",
			GTMID:         "GTM-TL8ZQ3G6",
		},
		Paths: PathsConfig{
			Metadata:          "./posts-metadata.json",
			WorkspaceMetadata: "./workspace/contents/posts-metadata.json",
			Contents:          "./workspace/contents",
			Output:            "./articles",
			Sitemap:           "./sitemap.xml",
			State:             "./workspace/.sitegen/state.db",
		},
		Assets: AssetsConfig{
			VersionFile:    "./workspace/bin/asset-versions.json",
			Root:           ".",
			DefaultVersion: "1.0.0",
			Files: []string{
				"css/style.css",
				"js/analytics.js",
				"js/theme.js",
				"js/components/header.js",
				"js/components/footer.js",
				"js/components/company-info.js",
				"js/components/contact-section.js",
				"js/components/recent-posts.js",
				"js/components/posts-list.js",
			},
			HTMLFiles: []string{
				"./index.html",
				"./about.html",
				"./contact.html",
				"./posts.html",
			},
			PageStylesheets: []string{"css/style.css"},
			PageScripts: []string{
				"js/analytics.js",
				"js/components/header.js",
				"js/components/footer.js",
				"js/components/company-info.js",
				"js/components/contact-section.js",
				"js/components/recent-posts.js",
				"js/theme.js",
				"js/syntax-highlighter.js",
			},
		},
		Sitemap: SitemapConfig{
			StaticPages: []StaticPage{
				{URL: "", Priority: "1.0", ChangeFreq: "weekly"},
				{URL: "posts.html", Priority: "0.9", ChangeFreq: "weekly"},
				{URL: "about.html", Priority: "0.7", ChangeFreq: "monthly"},
				{URL: "contact.html", Priority: "0.6", ChangeFreq: "monthly"},
			},
			PostPriority:   "0.8",
			PostChangeFreq: "monthly",
		},
		Metadata: MetadataConfig{
			DescriptionLimit: 160,
			ImagePattern:     "images/%s-og.jpg",
		},
		Logging: LoggingConfig{
			Level:  string(LogLevelInfo),
			Format: string(LogFormatText),
		},
	}
	return cfg
}

// applyDefaults fills fields a config file left empty. Lists the user wrote
// explicitly are kept as-is, including empty ones.
func (c *Config) applyDefaults() {
	def := Default()

	fillString(&c.Site.Name, def.Site.Name)
	fillString(&c.Site.BaseURL, def.Site.BaseURL)
	c.Site.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")
	fillString(&c.Site.Lang, def.Site.Lang)
	fillString(&c.Site.Locale, def.Site.Locale)
	fillString(&c.Site.DefaultAuthor, def.Site.DefaultAuthor)
	fillString(&c.Site.DefaultImage, def.Site.DefaultImage)

	fillString(&c.Paths.Metadata, def.Paths.Metadata)
	fillString(&c.Paths.WorkspaceMetadata, def.Paths.WorkspaceMetadata)
	fillString(&c.Paths.Contents, def.Paths.Contents)
	fillString(&c.Paths.Output, def.Paths.Output)
	fillString(&c.Paths.Sitemap, def.Paths.Sitemap)
	fillString(&c.Paths.State, def.Paths.State)

	fillString(&c.Assets.VersionFile, def.Assets.VersionFile)
	fillString(&c.Assets.Root, def.Assets.Root)
	fillString(&c.Assets.DefaultVersion, def.Assets.DefaultVersion)

	fillString(&c.Sitemap.PostPriority, def.Sitemap.PostPriority)
	fillString(&c.Sitemap.PostChangeFreq, def.Sitemap.PostChangeFreq)

	if c.Metadata.DescriptionLimit <= 0 {
		c.Metadata.DescriptionLimit = def.Metadata.DescriptionLimit
	}
	fillString(&c.Metadata.ImagePattern, def.Metadata.ImagePattern)

	fillString(&c.Logging.Level, def.Logging.Level)
	fillString(&c.Logging.Format, def.Logging.Format)
	if v, ok := logLevels.Lookup(c.Logging.Level); ok {
		c.Logging.Level = string(v)
	}
	if v, ok := logFormats.Lookup(c.Logging.Format); ok {
		c.Logging.Format = string(v)
	}
}

func fillString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
