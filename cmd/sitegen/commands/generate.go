package commands

import (
	"context"
	"fmt"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Review ReviewFlags `embed:""`
	Commit bool        `help:"Commit changed files to git"`
}

func (c *GenerateCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(g, cfg, c.Review.prompter(g, cfg))
	if err != nil {
		return err
	}
	defer rt.Close()

	rep, err := rt.runner.Generate(ctx)
	if err != nil {
		return err
	}
	printReport(g.Out, rep)
	return commitOrHint(ctx, g, cfg, c.Commit, rep.Changed,
		fmt.Sprintf("Regenerate site: %d page(s) written, %d new post(s)", rep.Generated, len(rep.Added)))
}

// ScanCmd implements the 'scan' command.
type ScanCmd struct {
	Review ReviewFlags `embed:""`
}

func (c *ScanCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(g, cfg, c.Review.prompter(g, cfg))
	if err != nil {
		return err
	}
	defer rt.Close()

	rep, err := rt.runner.Scan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "\nAdded metadata for %d file(s)\n", len(rep.Added))
	return nil
}

// SitemapCmd implements the 'sitemap' command.
type SitemapCmd struct{}

func (c *SitemapCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(g, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, err = rt.runner.Sitemap(ctx)
	return err
}
