package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/keneslab/sitegen/internal/config"
	"github.com/keneslab/sitegen/internal/logfields"
	"github.com/keneslab/sitegen/internal/metrics"
	"github.com/keneslab/sitegen/internal/pipeline"
	"github.com/keneslab/sitegen/internal/prompt"
	"github.com/keneslab/sitegen/internal/publish"
	"github.com/keneslab/sitegen/internal/state"
)

// Global is shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitegen.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Scan for new posts, render article pages, sync metadata and rebuild the sitemap"`
	Scan     ScanCmd     `cmd:"" help:"Add metadata for content files that have none"`
	Sitemap  SitemapCmd  `cmd:"" help:"Rebuild sitemap.xml from the metadata"`
	Validate ValidateCmd `cmd:"" help:"Check the metadata without writing anything"`
	Assets   AssetsCmd   `cmd:"" help:"List or bump asset cache-busting versions"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate whenever content, metadata or the template change"`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing and sets up logging until a
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration and switches logging to its settings.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger
	slog.Debug("Configuration loaded", logfields.Path(root.Config))
	return cfg, nil
}

// ReviewFlags choose how new posts are reviewed.
type ReviewFlags struct {
	Yes bool `short:"y" help:"Accept detected metadata without asking"`
	TUI bool `name:"tui" help:"Review detected metadata in a terminal form"`
}

func (f ReviewFlags) prompter(g *Global, cfg *config.Config) prompt.Prompter {
	switch {
	case f.Yes:
		return prompt.Accept{ImagePattern: cfg.Metadata.ImagePattern}
	case f.TUI:
		return prompt.TUI{In: g.In, Out: g.Out, ImagePattern: cfg.Metadata.ImagePattern}
	default:
		return prompt.NewLine(g.In, g.Out, cfg.Metadata.ImagePattern)
	}
}

// runtime bundles a Runner with the state store and metrics it writes to.
type runtime struct {
	cfg    *config.Config
	runner *pipeline.Runner
	state  *state.Store
	prom   *metrics.PrometheusRecorder
}

func newRuntime(g *Global, cfg *config.Config, p prompt.Prompter) (*runtime, error) {
	rt := &runtime{cfg: cfg}
	opts := []pipeline.Option{pipeline.WithOutput(g.Out)}
	if p != nil {
		opts = append(opts, pipeline.WithPrompter(p))
	}

	if cfg.Paths.State != "" {
		st, err := state.Open(cfg.Paths.State)
		if err != nil {
			return nil, err
		}
		rt.state = st
		opts = append(opts, pipeline.WithBuildLog(st))
	}
	if cfg.Paths.Metrics != "" {
		rt.prom = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, pipeline.WithRecorder(rt.prom))
	}

	runner, err := pipeline.New(cfg, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.runner = runner
	return rt, nil
}

// flushMetrics writes the metrics textfile when one is configured.
func (rt *runtime) flushMetrics() {
	if rt.prom == nil {
		return
	}
	if err := rt.prom.WriteTextfile(rt.cfg.Paths.Metrics); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(rt.cfg.Paths.Metrics), logfields.Error(err))
	}
}

// Close flushes metrics and closes the state store.
func (rt *runtime) Close() {
	rt.flushMetrics()
	if rt.state != nil {
		if err := rt.state.Close(); err != nil {
			slog.Warn("Failed to close state store", logfields.Error(err))
		}
	}
}

// commitOrHint commits changed files when commit is set and otherwise
// reminds the user which files to commit.
func commitOrHint(ctx context.Context, g *Global, cfg *config.Config, commit bool, changed []string, subject string) error {
	if len(changed) == 0 {
		return nil
	}
	if !commit {
		fmt.Fprintln(g.Out, "\nChanged files (commit them to publish):")
		for _, p := range changed {
			fmt.Fprintf(g.Out, "  %s\n", p)
		}
		return nil
	}
	res, err := publish.Commit(ctx, cfg.Assets.Root, changed, publish.Options{Subject: subject})
	if err != nil {
		return err
	}
	if res.Hash == "" {
		fmt.Fprintln(g.Out, "\nNothing to commit.")
		return nil
	}
	fmt.Fprintf(g.Out, "\nCommitted %d file(s): %s\n", len(res.Files), res.Hash[:8])
	return nil
}

func printReport(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(w, "\nBuild %s\n", rep.BuildID)
	if len(rep.Added) > 0 {
		fmt.Fprintf(w, "  New posts:  %d\n", len(rep.Added))
	}
	fmt.Fprintf(w, "  Generated:  %d\n  Unchanged:  %d\n", rep.Generated, rep.Unchanged)
	if rep.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped:    %d (content missing)\n", rep.Skipped)
	}
	for _, t := range rep.Timings {
		slog.Debug("Stage timing", logfields.Stage(string(t.Stage)), logfields.DurationMS(float64(t.Duration.Microseconds())/1000))
	}
}
