package pipeline

import (
	"context"
	"path/filepath"

	"github.com/keneslab/sitegen/internal/assets"
	"github.com/keneslab/sitegen/internal/logfields"
	"github.com/keneslab/sitegen/internal/observability"
)

// AssetsReport summarises an asset version update.
type AssetsReport struct {
	BuildID string
	// Before is the version map as loaded.
	Before assets.Versions
	// Versions is the map after the update.
	Versions assets.Versions
	Updated  []string
	HTML     []assets.RewriteResult
	Changed  []string
}

// UpdateAssets bumps asset versions according to opts, saves the version
// file and rewrites the configured HTML files. Nothing is written when no
// version changed. Root, Assets and DefaultVersion default to the
// configuration.
func (r *Runner) UpdateAssets(ctx context.Context, opts assets.UpdateOptions) (*AssetsReport, error) {
	out := &AssetsReport{}
	_, err := r.run(ctx, "assets", func(ctx context.Context, rep *Report) error {
		out.BuildID = rep.BuildID
		ctx = observability.WithStage(ctx, "assets")

		versions, err := r.versions.Load()
		if err != nil {
			return err
		}
		out.Before = make(assets.Versions, len(versions))
		for k, v := range versions {
			out.Before[k] = v
		}

		if opts.Root == "" {
			opts.Root = r.cfg.Assets.Root
		}
		if opts.Assets == nil {
			opts.Assets = r.cfg.Assets.Files
		}
		if opts.DefaultVersion == "" {
			opts.DefaultVersion = r.cfg.Assets.DefaultVersion
		}

		res, err := assets.Update(ctx, versions, opts)
		if err != nil {
			return err
		}
		updated := res.Updated
		out.Versions = versions
		out.Updated = updated
		if len(updated) == 0 {
			observability.InfoContext(ctx, "No asset versions changed", logfields.Mode(string(opts.Mode)))
			return nil
		}
		r.recorder.AddAssetBumps(string(opts.Mode), len(updated))

		if err := r.versions.Save(versions); err != nil {
			return err
		}
		out.Changed = append(out.Changed, r.versions.Path())
		if len(res.Hashes) > 0 {
			// The version file is on disk; record hashes even if ctx is done.
			if err := assets.RecordHashes(context.WithoutCancel(ctx), opts.Hashes, res.Hashes); err != nil {
				return err
			}
		}
		for _, a := range updated {
			observability.InfoContext(ctx, "Asset version updated", logfields.Asset(a), logfields.Version(versions[a]))
		}

		files := make([]string, len(r.cfg.Assets.HTMLFiles))
		for i, f := range r.cfg.Assets.HTMLFiles {
			files[i] = filepath.Join(r.cfg.Assets.Root, f)
		}
		out.HTML = assets.RewriteHTML(files, versions)
		for _, res := range out.HTML {
			if res.Status == assets.RewriteUpdated {
				out.Changed = append(out.Changed, res.File)
			}
		}
		return nil
	})
	return out, err
}

// Versions loads the current version map, creating it when missing.
func (r *Runner) Versions() (assets.Versions, error) {
	return r.versions.Load()
}
