package content

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/keneslab/sitegen/internal/metadata"
)

// Defaults supplies values Extract falls back to.
type Defaults struct {
	Author           string
	DescriptionLimit int
}

var (
	koreanDate = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	isoDate    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// detected is what the HTML walk found; empty strings mean "not present".
type detected struct {
	title       string
	date        string
	author      string
	description string
}

// Extract detects post metadata from a fragment. today is the date used when
// no date can be detected and as the initial dateModified.
func Extract(frag *Fragment, d Defaults, today string) metadata.Post {
	found := scanHTML(frag.HTML)

	post := metadata.Post{
		Filename:     frag.Filename,
		Route:        metadata.RouteFromFilename(frag.Filename),
		Title:        found.title,
		Date:         today,
		DateModified: today,
		Author:       d.Author,
		Description:  Truncate(found.description, d.DescriptionLimit),
	}
	if found.date != "" {
		if date, ok := ParseDate(found.date); ok {
			post.Date = date
		}
	}
	if found.author != "" {
		post.Author = found.author
	}

	fm := frag.Front
	override(&post.Title, fm.Title)
	if date, ok := ParseDate(fm.Date); ok {
		post.Date = date
	}
	override(&post.Author, fm.Author)
	override(&post.Description, fm.Description)
	override(&post.Keywords, fm.Keywords.String())
	override(&post.Image, fm.Image)
	if r := metadata.NormalizeRoute(fm.Route); r != "" {
		post.Route = r
	}
	return post
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// ParseDate accepts a Korean "YYYY년 M월 D일" date or an ISO YYYY-MM-DD date
// and returns it as YYYY-MM-DD.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := koreanDate.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Month() != time.Month(month) || t.Day() != day {
			return "", false
		}
		return t.Format(metadata.DateLayout), true
	}
	if m := isoDate.FindString(s); m != "" {
		if _, err := time.Parse(metadata.DateLayout, m); err == nil {
			return m, true
		}
	}
	return "", false
}

// MinDescriptionLimit is the smallest limit that leaves room for "..." and one
// rune of text.
const MinDescriptionLimit = 4

// Truncate shortens s to limit runes, replacing the tail with "..." when it
// has to cut. Limits too small for the ellipsis cut without one. limit <= 0
// disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit < MinDescriptionLimit {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func scanHTML(fragment string) detected {
	var found detected
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return found
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1":
				if found.title == "" {
					found.title = textOf(n)
				}
			case "p":
				if found.description == "" {
					found.description = textOf(n)
				}
			case "span":
				classes := strings.Fields(getAttr(n, "class"))
				if found.date == "" && slices.Contains(classes, "date") {
					found.date = textOf(n)
				}
				if found.author == "" && slices.Contains(classes, "author") {
					found.author = textOf(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return found
}

// textOf returns the whitespace-collapsed text content of n.
func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
