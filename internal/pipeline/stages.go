package pipeline

import (
	"context"
	"os"

	"github.com/keneslab/sitegen/internal/content"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/fsutil"
	"github.com/keneslab/sitegen/internal/logfields"
	"github.com/keneslab/sitegen/internal/metadata"
	"github.com/keneslab/sitegen/internal/metrics"
	"github.com/keneslab/sitegen/internal/observability"
	"github.com/keneslab/sitegen/internal/render"
	"github.com/keneslab/sitegen/internal/sitemap"
)

// scan adds a metadata record for every content file that has none. The
// metadata file is only written when something was added.
func (r *Runner) scan(ctx context.Context, rep *Report) ([]metadata.Post, error) {
	r.printf("\nScanning %s for content files...\n", r.cfg.Paths.Contents)

	posts, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	files, err := content.Scan(r.cfg.Paths.Contents)
	if err != nil {
		return nil, err
	}

	known := metadata.Filenames(posts)
	var fresh []string
	for _, f := range files {
		if _, ok := known[metadata.NormalizeFilename(f)]; !ok {
			fresh = append(fresh, f)
		}
	}
	if len(fresh) == 0 {
		r.printf("All content files already have metadata entries.\n")
		return posts, nil
	}
	r.printf("Found %d new content file(s) without metadata.\n", len(fresh))

	routes := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		routes[metadata.NormalizeRoute(p.Route)] = struct{}{}
	}
	defaults := content.Defaults{Author: r.cfg.Site.DefaultAuthor, DescriptionLimit: r.cfg.Metadata.DescriptionLimit}

	for _, f := range fresh {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.printf("\n--- Processing: %s ---\n", f)

		frag, err := content.Load(r.cfg.Paths.Contents, f)
		if err != nil {
			observability.WarnContext(ctx, "Cannot read content file; skipping", logfields.File(f), logfields.Error(err))
			continue
		}
		post, err := r.prompter.Review(ctx, content.Extract(frag, defaults, r.today()))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.WrapError(err, errors.CategoryCanceled, "metadata review stopped").
				WithContext("file", f).
				Build()
		}
		post.Route = metadata.NormalizeRoute(post.Route)
		if problems := metadata.Validate([]metadata.Post{post}); len(problems) > 0 {
			observability.WarnContext(ctx, "Reviewed metadata is invalid; skipping",
				logfields.File(f), logfields.Route(post.Route), logfields.Error(metadata.ValidationError(problems)))
			continue
		}
		if _, taken := routes[post.Route]; taken {
			observability.WarnContext(ctx, "Route already used by another post; skipping",
				logfields.File(f), logfields.Route(post.Route))
			continue
		}
		routes[post.Route] = struct{}{}
		posts = append(posts, post)
		rep.Added = append(rep.Added, f)
		r.printf("Metadata added for %s\n", f)
	}

	if len(rep.Added) > 0 {
		path, err := r.store.Save(posts)
		if err != nil {
			return nil, err
		}
		rep.MetadataPath = path
		rep.changed(path)
		r.printf("\nMetadata saved to: %s\n", path)
	}
	return posts, nil
}

type loadedPost struct {
	post metadata.Post
	frag *content.Fragment
}

// pages renders every post whose fragment exists. Posts with a missing
// fragment are skipped with a warning. dateModified moves only for posts
// whose content fingerprint changed.
func (r *Runner) pages(ctx context.Context, rep *Report, posts []metadata.Post) (bool, error) {
	renderer, err := r.pageRenderer()
	if err != nil {
		return false, err
	}
	versions, err := r.versions.Load()
	if err != nil {
		return false, err
	}

	fingerprints := make(map[string]string, len(posts))
	frags := make(map[string]*content.Fragment, len(posts))
	for _, p := range posts {
		frag, err := content.Load(r.cfg.Paths.Contents, p.Filename)
		if err != nil {
			observability.WarnContext(ctx, "Content unavailable; skipping page",
				logfields.Route(p.Route), logfields.File(p.Filename), logfields.Error(err))
			rep.Skipped++
			continue
		}
		fingerprints[p.Route] = frag.Fingerprint()
		frags[p.Route] = frag
	}

	if metadata.RefreshModified(posts, fingerprints, r.today()) {
		path, err := r.store.Save(posts)
		if err != nil {
			return false, err
		}
		rep.MetadataPath = path
		rep.changed(path)
		observability.InfoContext(ctx, "Metadata updated", logfields.Path(path))
	}

	if err := os.MkdirAll(r.cfg.Paths.Output, 0o755); err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", r.cfg.Paths.Output).
			Build()
	}

	r.printf("\nGenerating %d static page(s)...\n", len(frags))
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		frag, ok := frags[p.Route]
		if !ok {
			continue
		}
		page, err := renderer.Render(p, frag.HTML, versions)
		if err != nil {
			return false, err
		}
		out := r.outputPath(p)
		wrote, err := fsutil.WriteIfChanged(out, page)
		if err != nil {
			return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
				WithContext("path", out).
				Build()
		}
		if wrote {
			rep.Generated++
			rep.changed(out)
			r.printf("  Generated: %s\n", out)
		} else {
			rep.Unchanged++
			observability.DebugContext(ctx, "Page unchanged", logfields.Path(out))
		}
	}

	r.recorder.AddPages(metrics.PageWritten, rep.Generated)
	r.recorder.AddPages(metrics.PageUnchanged, rep.Unchanged)
	r.recorder.AddPages(metrics.PageSkipped, rep.Skipped)
	observability.InfoContext(ctx, "Pages generated",
		logfields.Count(rep.Generated), logfields.Path(r.cfg.Paths.Output))
	return rep.Skipped > 0, nil
}

func (r *Runner) sync(ctx context.Context, rep *Report) error {
	dir, err := r.store.Sync()
	if err != nil {
		return err
	}
	rep.Sync = dir
	switch dir {
	case metadata.SyncWorkspaceToRoot:
		rep.changed(r.store.RootPath())
		r.printf("Metadata synced: workspace -> root\n")
	case metadata.SyncRootToWorkspace:
		rep.changed(r.store.WorkspacePath())
		r.printf("Metadata synced: root -> workspace\n")
	case metadata.SyncInSync:
		r.printf("Metadata already in sync\n")
	}
	observability.DebugContext(ctx, "Metadata sync", logfields.Mode(string(dir)))
	return nil
}

func (r *Runner) sitemap(ctx context.Context, rep *Report, posts []metadata.Post) error {
	data, summary, err := sitemap.Build(r.cfg.Site.BaseURL, r.cfg.Sitemap, posts, r.today())
	if err != nil {
		return err
	}
	path := r.cfg.Paths.Sitemap
	wrote, err := sitemap.Write(path, data)
	if err != nil {
		return err
	}
	if wrote {
		rep.changed(path)
	}
	rep.Sitemap = summary
	rep.SitemapPath = path

	r.printf("\nsitemap.xml generated: %s\n", path)
	r.printf("  - Total URLs: %d\n  - Static pages: %d\n  - Blog posts: %d\n", summary.Total(), summary.Static, summary.Posts)
	observability.InfoContext(ctx, "Sitemap written", logfields.Path(path), logfields.Count(summary.Total()))
	return nil
}

// pageRenderer re-reads a custom template so edits made between runs of a
// long-lived Runner take effect. The embedded template is parsed once.
func (r *Runner) pageRenderer() (*render.Renderer, error) {
	if r.cfg.Paths.Template == "" {
		return r.renderer, nil
	}
	renderer, err := render.New(r.cfg.Site, r.cfg.Assets, r.cfg.Paths.Template)
	if err != nil {
		return nil, err
	}
	r.renderer = renderer
	return renderer, nil
}
