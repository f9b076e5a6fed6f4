// Package content discovers and reads post fragments and detects metadata
// from them.
//
// A fragment is either an HTML file inserted verbatim into the page template
// or a Markdown file with optional YAML frontmatter rendered with goldmark.
package content
