package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the calendar-date format used by every date field.
const DateLayout = "2006-01-02"

// Post is one record of posts-metadata.json. Field order and JSON names match
// the file the blog front end reads. Keys this package does not know are kept
// in Extra and written back after the known fields, sorted.
type Post struct {
	Filename     string `json:"filename"`
	Route        string `json:"route"`
	Title        string `json:"title,omitempty"`
	Date         string `json:"date,omitempty"`
	DateModified string `json:"dateModified,omitempty"`
	Author       string `json:"author,omitempty"`
	Description  string `json:"description,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Image        string `json:"image,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// postFields has Post's layout without its JSON methods.
type postFields Post

var postKeys = func() map[string]struct{} {
	t := reflect.TypeOf(postFields{})
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[strings.ToLower(name)] = struct{}{}
		}
	}
	return keys
}()

func isPostKey(k string) bool {
	_, ok := postKeys[strings.ToLower(k)]
	return ok
}

// UnmarshalJSON decodes the known fields and keeps every other key in Extra.
func (p *Post) UnmarshalJSON(data []byte) error {
	var fields postFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Post(fields)
	p.Extra = nil
	for k, v := range raw {
		if isPostKey(k) {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	return nil
}

// MarshalJSON writes the known fields in declaration order followed by Extra.
func (p Post) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(postFields(p)); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	if len(p.Extra) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		if !isPostKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.Write(out[:len(out)-1])
	for _, k := range keys {
		buf.Reset()
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		b.WriteByte(',')
		b.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		b.WriteByte(':')
		b.Write(p.Extra[k])
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// LastMod is the date a crawler should see for the post.
func (p Post) LastMod() string {
	if p.DateModified != "" {
		return p.DateModified
	}
	return p.Date
}

// OutputName is the file name of the generated article page.
func (p Post) OutputName() string {
	return p.Route + ".html"
}

// RouteFromFilename derives the default route for a content file: the file
// name without extension, NFC-normalised so that decomposed names written by
// macOS file systems map to the same route as composed ones.
func RouteFromFilename(filename string) string {
	base := filepath.Base(filename)
	return NormalizeRoute(strings.TrimSuffix(base, filepath.Ext(base)))
}

// NormalizeRoute trims and NFC-normalises a route.
func NormalizeRoute(route string) string {
	return norm.NFC.String(strings.TrimSpace(route))
}

// DefaultImage returns the OG image path for a route using pattern.
func DefaultImage(pattern, route string) string {
	return fmt.Sprintf(pattern, route)
}

// NormalizeFilename NFC-normalises a content file name for comparison.
func NormalizeFilename(name string) string {
	return norm.NFC.String(name)
}

// Filenames returns the set of content files that already have a record,
// keyed by NormalizeFilename.
func Filenames(posts []Post) map[string]struct{} {
	set := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		set[NormalizeFilename(p.Filename)] = struct{}{}
	}
	return set
}
