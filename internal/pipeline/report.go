package pipeline

import (
	"time"

	"github.com/keneslab/sitegen/internal/metadata"
	"github.com/keneslab/sitegen/internal/sitemap"
)

// Stage names a pipeline step.
type Stage string

const (
	StageScan     Stage = "scan"
	StageValidate Stage = "validate"
	StagePages    Stage = "pages"
	StageSync     Stage = "sync"
	StageSitemap  Stage = "sitemap"
)

// StageTiming is how long one stage took.
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// Report summarises a run.
type Report struct {
	BuildID string
	// Added lists content files that received a new metadata record.
	Added     []string
	Generated int
	Unchanged int
	Skipped   int
	// MetadataPath is where metadata was saved, empty when it was not.
	MetadataPath string
	Sync         metadata.SyncDirection
	Sitemap      sitemap.Summary
	SitemapPath  string
	Timings      []StageTiming
	// Changed lists every file the run wrote.
	Changed []string
}

// HasWarnings reports whether any page had to be skipped.
func (r *Report) HasWarnings() bool {
	return r.Skipped > 0
}

func (r *Report) changed(path string) {
	for _, p := range r.Changed {
		if p == path {
			return
		}
	}
	r.Changed = append(r.Changed, path)
}
