// Package publish commits generated files to the site's git repository.
package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/logfields"
)

// Options controls a commit.
type Options struct {
	// Subject is the first line of the commit message.
	Subject string
	// Author defaults to the user's git identity, then to a sitegen identity.
	Author *object.Signature
	// Now supplies the commit time; time.Now when nil.
	Now func() time.Time
}

// Result describes the commit that was made. Hash is empty when there was
// nothing to commit.
type Result struct {
	Hash  string
	Files []string
}

// Commit stages paths in the repository containing dir and commits them.
// Paths outside the repository are skipped. Unchanged paths produce no commit.
func Commit(ctx context.Context, dir string, paths []string, opts Options) (*Result, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.GitError("not a git repository").
				WithContext("path", dir).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to open repository").
			WithContext("path", dir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to open worktree").Build()
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}

	rels := relativePaths(root, paths)
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := wt.Add(rel); err != nil {
			return nil, errors.WrapError(err, errors.CategoryGit, "failed to stage file").
				WithContext("file", rel).
				Build()
		}
	}

	status, err := wt.Status()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to read status").Build()
	}
	res := &Result{}
	for _, rel := range rels {
		if fs := status.File(rel); fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			res.Files = append(res.Files, rel)
		}
	}
	if len(res.Files) == 0 {
		slog.Info("Nothing to commit", logfields.Path(root))
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	author := opts.Author
	if author == nil {
		author = identity(repo)
	}
	author.When = now()

	hash, err := wt.Commit(Message(opts.Subject, res.Files), &git.CommitOptions{Author: author})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to commit").Build()
	}
	res.Hash = hash.String()
	slog.Info("Committed generated files", slog.String("commit", res.Hash[:8]), logfields.Count(len(res.Files)))
	return res, nil
}

// Message formats a commit message listing files under subject.
func Message(subject string, files []string) string {
	if strings.TrimSpace(subject) == "" {
		subject = "Update generated site files"
	}
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString("\n\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

func relativePaths(root string, paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			slog.Warn("Path outside repository; not committing", logfields.Path(p))
			continue
		}
		rel = filepath.ToSlash(rel)
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}

func identity(repo *git.Repository) *object.Signature {
	for _, scope := range []gitconfig.Scope{gitconfig.LocalScope, gitconfig.GlobalScope} {
		cfg, err := repo.ConfigScoped(scope)
		if err != nil {
			continue
		}
		if cfg.User.Name != "" && cfg.User.Email != "" {
			return &object.Signature{Name: cfg.User.Name, Email: cfg.User.Email}
		}
	}
	return &object.Signature{Name: "sitegen", Email: "sitegen@localhost"}
}
