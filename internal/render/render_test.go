package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keneslab/sitegen/internal/assets"
	"github.com/keneslab/sitegen/internal/config"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/metadata"
)

func testPost() metadata.Post {
	return metadata.Post{
		Filename:     "hello.html",
		Route:        "hello",
		Title:        `Tips & "Tricks" <Go>`,
		Date:         "2024-03-05",
		DateModified: "2024-04-01",
		Author:       "Jane",
		Description:  "A post about Go",
		Keywords:     "go, blog",
		Image:        "images/hello-og.jpg",
	}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	cfg := config.Default()
	r, err := New(cfg.Site, cfg.Assets, "")
	require.NoError(t, err)
	return r
}

func TestRender_Head(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(testPost(), "<h1>Hello</h1>\n<p>body</p>", assets.Versions{"css/style.css": "1.2.3"})
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>\n<html lang=\"ko\" data-theme=\"dark\">"))
	assert.Contains(t, page, "<title>Tips &amp; &#34;Tricks&#34; &lt;Go&gt; - KenesLab Blog</title>")
	assert.Contains(t, page, `<meta name="keywords" content="go, blog">`)
	assert.Contains(t, page, `<meta name="author" content="Jane">`)
	assert.Contains(t, page, `<meta property="og:url" content="https://keneslab.github.io/articles/hello.html">`)
	assert.Contains(t, page, `<meta property="og:image" content="https://keneslab.github.io/images/hello-og.jpg">`)
	assert.Contains(t, page, `<link rel="canonical" href="https://keneslab.github.io/articles/hello.html">`)
	assert.Contains(t, page, `<link rel="stylesheet" href="../css/style.css?v=1.2.3">`)
	assert.Contains(t, page, `<script src="../js/theme.js?v=1.0.0"></script>`, "unknown assets fall back to the default version")
	assert.Contains(t, page, "<h1>Hello</h1>\n<p>body</p>", "fragment is inserted verbatim")
	assert.Contains(t, page, "googletagmanager.com/ns.html?id=GTM-TL8ZQ3G6")
	assert.Contains(t, page, "<blog-header></blog-header>")
}

func TestRender_WithoutGTM(t *testing.T) {
	cfg := config.Default()
	cfg.Site.GTMID = ""
	r, err := New(cfg.Site, cfg.Assets, "")
	require.NoError(t, err)

	out, err := r.Render(testPost(), "", nil)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "googletagmanager")
}

func TestRender_Deterministic(t *testing.T) {
	r := newRenderer(t)
	v := assets.Versions{"css/style.css": "1.2.3", "js/theme.js": "2.0.0"}
	a, err := r.Render(testPost(), "<p>x</p>", v)
	require.NoError(t, err)
	b, err := r.Render(testPost(), "<p>x</p>", v)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRender_DefaultsForMissingFields(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(metadata.Post{Filename: "a.html", Route: "a", Title: "A", Date: "2024-01-01"}, "", nil)
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, `<meta name="author" content="KenesLab">`)
	assert.Contains(t, page, `content="https://keneslab.github.io/images/og-default.jpg"`)
}

func TestBlogPosting(t *testing.T) {
	cfg := config.Default()
	post := testPost()
	post.DateModified = ""
	data, err := BlogPosting(cfg.Site, post, "Jane", PostURL(cfg.Site.BaseURL, post), ImageURL(cfg.Site, post))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "BlogPosting", doc["@type"])
	assert.Equal(t, `Tips & "Tricks" <Go>`, doc["headline"])
	assert.Equal(t, "2024-03-05", doc["dateModified"], "falls back to the publish date")
	publisher := doc["publisher"].(map[string]any)
	logo := publisher["logo"].(map[string]any)
	assert.Equal(t, "https://keneslab.github.io/images/logo.png", logo["url"])
	assert.NotContains(t, string(data), "<Go>", "markup is escaped inside the script element")
}

func TestNew_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`<title>{{.Post.Title}}</title>{{.Content}}`), 0o644))

	cfg := config.Default()
	r, err := New(cfg.Site, cfg.Assets, path)
	require.NoError(t, err)
	out, err := r.Render(metadata.Post{Route: "a", Title: "A"}, "<p>x</p>", nil)
	require.NoError(t, err)
	assert.Equal(t, "<title>A</title><p>x</p>", string(out))

	_, err = New(cfg.Site, cfg.Assets, filepath.Join(t.TempDir(), "missing.tmpl"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRender))
}
