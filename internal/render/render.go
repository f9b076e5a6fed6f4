// Package render turns a post record and its content fragment into a
// complete article page.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"os"
	"strings"

	"github.com/keneslab/sitegen/internal/assets"
	"github.com/keneslab/sitegen/internal/config"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/metadata"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

const (
	defaultTemplate = "templates/page.html.tmpl"
	// assetPrefix makes asset URLs relative to the articles directory.
	assetPrefix = "../"
)

// Renderer renders article pages. It is safe for concurrent use.
type Renderer struct {
	tmpl   *template.Template
	site   config.SiteConfig
	assets config.AssetsConfig
}

// Page is the data the page template sees.
type Page struct {
	Site        config.SiteConfig
	Post        metadata.Post
	Author      string
	PostURL     string
	ImageURL    string
	Stylesheets []string
	Scripts     []string
	JSONLD      template.JS
	Content     template.HTML
}

// New parses the page template. An empty templatePath selects the built-in
// template.
func New(site config.SiteConfig, assetsCfg config.AssetsConfig, templatePath string) (*Renderer, error) {
	var (
		src  []byte
		err  error
		name = defaultTemplate
	)
	if templatePath == "" {
		src, err = templateFS.ReadFile(defaultTemplate)
	} else {
		name = templatePath
		src, err = os.ReadFile(templatePath)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to read page template").
			WithContext("path", name).
			Build()
	}

	tmpl, err := template.New("page").Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to parse page template").
			WithContext("path", name).
			Build()
	}
	return &Renderer{tmpl: tmpl, site: site, assets: assetsCfg}, nil
}

// PostURL returns the canonical URL of a post's page.
func PostURL(baseURL string, p metadata.Post) string {
	return strings.TrimRight(baseURL, "/") + "/articles/" + p.OutputName()
}

// ImageURL returns the absolute OG image URL for a post.
func ImageURL(site config.SiteConfig, p metadata.Post) string {
	image := p.Image
	if image == "" {
		image = site.DefaultImage
	}
	return absoluteURL(site.BaseURL, image)
}

func absoluteURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Render produces the page for post. fragment is trusted markup inserted
// verbatim; every metadata value is escaped for its context. The output
// depends only on its arguments.
func (r *Renderer) Render(post metadata.Post, fragment string, versions assets.Versions) ([]byte, error) {
	page := Page{
		Site:     r.site,
		Post:     post,
		Author:   post.Author,
		PostURL:  PostURL(r.site.BaseURL, post),
		ImageURL: ImageURL(r.site, post),
		Content:  template.HTML(fragment),
	}
	if page.Author == "" {
		page.Author = r.site.DefaultAuthor
	}
	for _, a := range r.assets.PageStylesheets {
		page.Stylesheets = append(page.Stylesheets, assets.VersionedURL(versions, a, assetPrefix, r.assets.DefaultVersion))
	}
	for _, a := range r.assets.PageScripts {
		page.Scripts = append(page.Scripts, assets.VersionedURL(versions, a, assetPrefix, r.assets.DefaultVersion))
	}

	ld, err := BlogPosting(r.site, post, page.Author, page.PostURL, page.ImageURL)
	if err != nil {
		return nil, err
	}
	page.JSONLD = template.JS(ld)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render page").
			WithContext("route", post.Route).
			Build()
	}
	return buf.Bytes(), nil
}

type organization struct {
	Type string       `json:"@type"`
	Name string       `json:"name"`
	URL  string       `json:"url,omitempty"`
	Logo *imageObject `json:"logo,omitempty"`
}

type imageObject struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

type webPage struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

type blogPosting struct {
	Context          string       `json:"@context"`
	Type             string       `json:"@type"`
	Headline         string       `json:"headline"`
	Description      string       `json:"description"`
	Image            string       `json:"image"`
	DatePublished    string       `json:"datePublished"`
	DateModified     string       `json:"dateModified"`
	Author           organization `json:"author"`
	Publisher        organization `json:"publisher"`
	MainEntityOfPage webPage      `json:"mainEntityOfPage"`
}

// BlogPosting returns the schema.org JSON-LD document for a post. The JSON
// encoder escapes <, > and & so the result is safe inside a script element.
func BlogPosting(site config.SiteConfig, post metadata.Post, author, postURL, imageURL string) ([]byte, error) {
	doc := blogPosting{
		Context:       "https://schema.org",
		Type:          "BlogPosting",
		Headline:      post.Title,
		Description:   post.Description,
		Image:         imageURL,
		DatePublished: post.Date,
		DateModified:  post.LastMod(),
		Author: organization{
			Type: "Organization",
			Name: author,
			URL:  site.BaseURL,
		},
		Publisher: organization{
			Type: "Organization",
			Name: site.Name,
			Logo: &imageObject{Type: "ImageObject", URL: absoluteURL(site.BaseURL, site.Logo)},
		},
		MainEntityOfPage: webPage{Type: "WebPage", ID: postURL},
	}
	data, err := json.MarshalIndent(doc, "    ", "    ")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to encode structured data").
			WithContext("route", post.Route).
			Build()
	}
	return append([]byte("    "), data...), nil
}
