package assets

import (
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/keneslab/sitegen/internal/fsutil"
	"github.com/keneslab/sitegen/internal/logfields"
)

// RewriteStatus describes what RewriteHTML did to one file.
type RewriteStatus string

const (
	RewriteUpdated   RewriteStatus = "updated"
	RewriteUnchanged RewriteStatus = "unchanged"
	RewriteMissing   RewriteStatus = "missing"
	RewriteFailed    RewriteStatus = "failed"
)

// RewriteResult is the outcome for one HTML file.
type RewriteResult struct {
	File   string
	Status RewriteStatus
	Err    error
}

// assetRef matches href or src attributes pointing at asset, with or without
// an existing ?v= parameter, in either quote style.
func assetRef(asset string) *regexp.Regexp {
	return regexp.MustCompile(`\b(href|src)=["']` + regexp.QuoteMeta(asset) + `(?:\?v=[^"']*)?["']`)
}

// RewriteVersions returns content with every reference to a versioned asset
// pointing at its current version.
func RewriteVersions(content string, versions Versions) string {
	for _, a := range versions.Sorted() {
		content = assetRef(a).ReplaceAllString(content, `$1="`+escapeReplacement(a+"?v="+versions[a])+`"`)
	}
	return content
}

// escapeReplacement protects literal $ in a regexp replacement.
func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// RewriteHTML applies RewriteVersions to each file. Missing files are skipped
// and a file is only rewritten when its content changes. Per-file failures
// are reported in the results rather than aborting the batch.
func RewriteHTML(files []string, versions Versions) []RewriteResult {
	results := make([]RewriteResult, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("HTML file not found; skipping", logfields.File(f))
				results = append(results, RewriteResult{File: f, Status: RewriteMissing})
				continue
			}
			slog.Error("Cannot read HTML file", logfields.File(f), logfields.Error(err))
			results = append(results, RewriteResult{File: f, Status: RewriteFailed, Err: err})
			continue
		}

		updated := RewriteVersions(string(data), versions)
		if updated == string(data) {
			results = append(results, RewriteResult{File: f, Status: RewriteUnchanged})
			continue
		}
		if err := fsutil.WriteFile(f, []byte(updated)); err != nil {
			slog.Error("Cannot write HTML file", logfields.File(f), logfields.Error(err))
			results = append(results, RewriteResult{File: f, Status: RewriteFailed, Err: err})
			continue
		}
		results = append(results, RewriteResult{File: f, Status: RewriteUpdated})
	}
	return results
}
