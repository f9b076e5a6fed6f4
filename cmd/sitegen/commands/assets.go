package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/keneslab/sitegen/internal/assets"
	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// AssetsCmd implements the 'assets' command. Without a mode flag it only
// lists the current versions.
type AssetsCmd struct {
	IncrementAll bool   `name:"increment-all" xor:"mode" help:"Increment every asset version"`
	Increment    string `name:"increment" xor:"mode" placeholder:"FILE" help:"Increment one asset version (e.g. css/style.css)"`
	Hash         bool   `xor:"mode" help:"Use content hashes instead of semantic versions"`
	Auto         bool   `xor:"mode" help:"Bump the patch version of assets whose content changed"`

	Major bool `xor:"kind" help:"Increment the major version"`
	Minor bool `xor:"kind" help:"Increment the minor version"`
	Patch bool `xor:"kind" help:"Increment the patch version (default)"`

	Commit bool `help:"Commit changed files to git"`
}

func (c *AssetsCmd) mode() (assets.Mode, bool) {
	switch {
	case c.Hash:
		return assets.ModeHash, true
	case c.IncrementAll:
		return assets.ModeAll, true
	case c.Increment != "":
		return assets.ModeFile, true
	case c.Auto:
		return assets.ModeAuto, true
	}
	return "", false
}

func (c *AssetsCmd) kind() assets.Kind {
	switch {
	case c.Major:
		return assets.KindMajor
	case c.Minor:
		return assets.KindMinor
	}
	return assets.KindPatch
}

func (c *AssetsCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(g, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	mode, ok := c.mode()
	if !ok {
		versions, err := rt.runner.Versions()
		if err != nil {
			return err
		}
		fmt.Fprintln(g.Out, "Current asset versions:")
		printVersions(g.Out, versions)
		fmt.Fprintln(g.Out, "\nNo versions were updated. Use --increment-all, --increment FILE, --hash or --auto.")
		return nil
	}

	opts := assets.UpdateOptions{Mode: mode, Kind: c.kind(), File: c.Increment}
	if mode == assets.ModeAuto {
		if rt.state == nil {
			return errors.ConfigError("--auto needs paths.state to remember asset hashes").Build()
		}
		opts.Hashes = rt.state
	}
	rep, err := rt.runner.UpdateAssets(ctx, opts)
	if err != nil {
		return err
	}
	if len(rep.Updated) == 0 {
		fmt.Fprintln(g.Out, "No asset versions changed.")
		return nil
	}

	fmt.Fprintf(g.Out, "Updated %d asset version(s):\n", len(rep.Updated))
	for _, a := range rep.Updated {
		fmt.Fprintf(g.Out, "  %s: %s -> %s\n", a, orNone(rep.Before[a]), rep.Versions[a])
	}
	fmt.Fprintln(g.Out, "\nHTML files:")
	for _, r := range rep.HTML {
		fmt.Fprintf(g.Out, "  %-10s %s\n", r.Status, r.File)
	}
	return commitOrHint(ctx, g, cfg, c.Commit, rep.Changed,
		fmt.Sprintf("Bump %d asset version(s)", len(rep.Updated)))
}

func printVersions(w io.Writer, v assets.Versions) {
	for _, a := range v.Sorted() {
		fmt.Fprintf(w, "  %s: %s\n", a, v[a])
	}
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
