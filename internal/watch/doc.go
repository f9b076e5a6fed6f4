// Package watch rebuilds the site when content, metadata or the page
// template change on disk.
package watch
