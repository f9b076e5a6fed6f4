package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/keneslab/sitegen/cmd/sitegen/commands"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitegen"),
		kong.Description("Generate article pages, sitemap and asset versions for a static blog."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	parser.BindTo(ctx, (*context.Context)(nil))

	g := &commands.Global{Logger: slog.Default(), In: os.Stdin, Out: os.Stdout}
	err := parser.Run(g, cli)
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(err)
	}
}
