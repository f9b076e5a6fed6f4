package pipeline

import (
	"context"
	"path/filepath"

	"github.com/keneslab/sitegen/internal/fsutil"
	"github.com/keneslab/sitegen/internal/metadata"
)

// ValidationReport is the result of checking metadata without writing
// anything.
type ValidationReport struct {
	Posts    int
	Problems []metadata.Problem
	// MissingContent lists posts whose fragment file does not exist.
	MissingContent []metadata.Post
}

// OK reports whether the metadata is safe to generate from. Missing content
// only causes skipped pages, so it does not fail validation.
func (v *ValidationReport) OK() bool {
	return len(v.Problems) == 0
}

// Validate loads the metadata, checks every record and reports which posts
// have no content file.
func (r *Runner) Validate(ctx context.Context) (*ValidationReport, error) {
	posts, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	rep := &ValidationReport{Posts: len(posts), Problems: metadata.Validate(posts)}
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Filename == "" {
			continue
		}
		if !fsutil.Exists(filepath.Join(r.cfg.Paths.Contents, p.Filename)) {
			rep.MissingContent = append(rep.MissingContent, p)
		}
	}
	return rep, nil
}
