package commands

import (
	"context"
	"fmt"

	"github.com/keneslab/sitegen/internal/prompt"
	"github.com/keneslab/sitegen/internal/watch"
)

// WatchCmd implements the 'watch' command. New posts are accepted with
// their detected metadata.
type WatchCmd struct{}

func (c *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(g, cfg, prompt.Accept{ImagePattern: cfg.Metadata.ImagePattern})
	if err != nil {
		return err
	}
	defer rt.Close()

	w := watch.New(func(ctx context.Context) error {
		rep, err := rt.runner.Generate(ctx)
		if err != nil {
			return err
		}
		printReport(g.Out, rep)
		return nil
	},
		[]string{cfg.Paths.Contents},
		[]string{cfg.Paths.Metadata, cfg.Paths.WorkspaceMetadata, cfg.Paths.Template},
	)
	w.OnBuild = func(error) { rt.flushMetrics() }

	fmt.Fprintf(g.Out, "Watching %s (Ctrl+C to stop)\n", cfg.Paths.Contents)
	return w.Run(ctx)
}
