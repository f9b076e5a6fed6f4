// Package sitemap builds sitemap.xml from the static page list and the post
// metadata.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/keneslab/sitegen/internal/config"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/fsutil"
	"github.com/keneslab/sitegen/internal/metadata"
)

// Namespaces declared on the urlset element, in output order.
var Namespaces = []xml.Attr{
	{Name: xml.Name{Local: "xmlns"}, Value: "http://www.sitemaps.org/schemas/sitemap/0.9"},
	{Name: xml.Name{Local: "xmlns:news"}, Value: "http://www.google.com/schemas/sitemap-news/0.9"},
	{Name: xml.Name{Local: "xmlns:xhtml"}, Value: "http://www.w3.org/1999/xhtml"},
	{Name: xml.Name{Local: "xmlns:mobile"}, Value: "http://www.google.com/schemas/sitemap-mobile/1.0"},
	{Name: xml.Name{Local: "xmlns:image"}, Value: "http://www.google.com/schemas/sitemap-image/1.1"},
	{Name: xml.Name{Local: "xmlns:video"}, Value: "http://www.google.com/schemas/sitemap-video/1.1"},
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Attrs   []xml.Attr `xml:",any,attr"`
	URLs    []url      `xml:"url"`
}

type url struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Summary counts the entries of a built sitemap.
type Summary struct {
	Static int
	Posts  int
}

// Total is the number of url entries.
func (s Summary) Total() int { return s.Static + s.Posts }

// Build renders the sitemap: static pages first, then one entry per post.
// Static pages carry the newest post date as lastmod so the output depends
// only on the inputs; buildDate is used only when there are no dated posts.
func Build(baseURL string, cfg config.SitemapConfig, posts []metadata.Post, buildDate string) ([]byte, Summary, error) {
	base := strings.TrimRight(baseURL, "/")

	staticMod := NewestLastMod(posts)
	if staticMod == "" {
		staticMod = buildDate
	}

	set := urlSet{Attrs: Namespaces}
	for _, p := range cfg.StaticPages {
		set.URLs = append(set.URLs, url{
			Loc:        base + "/" + strings.TrimLeft(p.URL, "/"),
			LastMod:    staticMod,
			ChangeFreq: p.ChangeFreq,
			Priority:   p.Priority,
		})
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, url{
			Loc:        base + "/articles/" + p.OutputName(),
			LastMod:    p.LastMod(),
			ChangeFreq: cfg.PostChangeFreq,
			Priority:   cfg.PostPriority,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(set); err != nil {
		return nil, Summary{}, errors.WrapError(err, errors.CategoryInternal, "failed to encode sitemap").Build()
	}
	buf.WriteByte('\n')
	return buf.Bytes(), Summary{Static: len(cfg.StaticPages), Posts: len(posts)}, nil
}

// NewestLastMod returns the latest lastmod across posts, or "".
func NewestLastMod(posts []metadata.Post) string {
	newest := ""
	for _, p := range posts {
		if m := p.LastMod(); m > newest {
			newest = m
		}
	}
	return newest
}

// Write replaces the sitemap at path through an atomic rename. It reports
// false when path already holds exactly data.
func Write(path string, data []byte) (bool, error) {
	wrote, err := fsutil.WriteIfChanged(path, data)
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to write sitemap").
			WithContext("path", path).
			Build()
	}
	return wrote, nil
}
