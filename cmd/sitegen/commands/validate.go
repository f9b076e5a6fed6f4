package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keneslab/sitegen/internal/metadata"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(g, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.state != nil {
		last, err := rt.state.LastBuild(ctx)
		if err != nil {
			return err
		}
		if last != nil {
			fmt.Fprintf(g.Out, "Last build: %s %s at %s (%d page(s), %d skipped)\n",
				last.Command, last.Status, last.StartedAt.Format(time.RFC3339), last.Pages, last.Skipped)
		}
	}

	rep, err := rt.runner.Validate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Checked %d post(s)\n", rep.Posts)
	for _, p := range rep.MissingContent {
		fmt.Fprintf(g.Out, "  warning: %s has no content file (%s); its page will be skipped\n", p.Route, p.Filename)
	}
	if rep.OK() {
		fmt.Fprintln(g.Out, "Metadata is valid")
		return nil
	}
	for _, p := range rep.Problems {
		fmt.Fprintf(g.Out, "  error: %s\n", p)
	}
	return metadata.ValidationError(rep.Problems)
}
