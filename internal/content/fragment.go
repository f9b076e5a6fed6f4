package content

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// Fragment is one loaded content file.
type Fragment struct {
	Filename string
	// HTML is the markup inserted into the page's article element.
	HTML string
	// Front holds Markdown frontmatter; zero for HTML fragments.
	Front Frontmatter

	rawFront []byte
	body     []byte
}

// Frontmatter fields a Markdown fragment may declare. Set fields take
// precedence over values detected from the rendered HTML.
type Frontmatter struct {
	Title       string     `yaml:"title"`
	Date        string     `yaml:"date"`
	Author      string     `yaml:"author"`
	Description string     `yaml:"description"`
	Keywords    stringList `yaml:"keywords"`
	Image       string     `yaml:"image"`
	Route       string     `yaml:"route"`
}

// stringList accepts either a scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if s := strings.TrimSpace(node.Value); s != "" {
			*l = stringList{s}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return stderrors.New("keywords must be a string or a list of strings")
}

// String joins the list the way the metadata file stores keywords.
func (l stringList) String() string {
	return strings.Join(l, ", ")
}

var errUnclosedFrontmatter = stderrors.New("frontmatter opened with --- but never closed")

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// IsMarkdown reports whether filename is a Markdown fragment.
func IsMarkdown(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".md")
}

// Load reads filename from dir. A missing file is a not_found error the
// caller is expected to log and skip.
func Load(dir, filename string) (*Fragment, error) {
	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("content file not found").
				WithContext("file", filename).
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read content file").
			WithContext("path", path).
			Build()
	}
	return Parse(filename, data)
}

// Parse builds a Fragment from raw file contents.
func Parse(filename string, data []byte) (*Fragment, error) {
	frag := &Fragment{Filename: filename, body: data}
	if !IsMarkdown(filename) {
		frag.HTML = string(data)
		return frag, nil
	}

	front, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
			WithContext("file", filename).
			Build()
	}
	frag.rawFront, frag.body = front, body
	if len(front) > 0 {
		if err := yaml.Unmarshal(front, &frag.Front); err != nil {
			return nil, errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
				WithContext("file", filename).
				Build()
		}
	}

	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to render markdown").
			WithContext("file", filename).
			Build()
	}
	frag.HTML = buf.String()
	return frag, nil
}

// splitFrontmatter separates a leading ----delimited YAML block from the
// body. CRLF input is accepted.
func splitFrontmatter(data []byte) (front, body []byte, err error) {
	nl := []byte("\n")
	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		nl = []byte("\r\n")
	}
	open := append([]byte("---"), nl...)
	if !bytes.HasPrefix(data, open) {
		return nil, data, nil
	}
	rest := data[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], nil
	}

	closing := append(append(append([]byte{}, nl...), "---"...), nl...)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		if bytes.HasSuffix(rest, append(append([]byte{}, nl...), "---"...)) {
			return rest[:len(rest)-len(nl)-3], []byte{}, nil
		}
		return nil, nil, errUnclosedFrontmatter
	}
	return rest[:idx+len(nl)], rest[idx+len(closing):], nil
}
