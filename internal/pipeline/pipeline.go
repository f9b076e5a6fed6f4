package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/keneslab/sitegen/internal/assets"
	"github.com/keneslab/sitegen/internal/config"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/logfields"
	"github.com/keneslab/sitegen/internal/metadata"
	"github.com/keneslab/sitegen/internal/metrics"
	"github.com/keneslab/sitegen/internal/observability"
	"github.com/keneslab/sitegen/internal/prompt"
	"github.com/keneslab/sitegen/internal/render"
	"github.com/keneslab/sitegen/internal/state"
)

// BuildLog records runs. *state.Store satisfies it.
type BuildLog interface {
	StartBuild(ctx context.Context, command string) (string, error)
	FinishBuild(ctx context.Context, id string, status state.BuildStatus, pages, skipped int) error
}

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg      *config.Config
	store    *metadata.Store
	versions *assets.VersionStore
	renderer *render.Renderer
	prompter prompt.Prompter
	recorder metrics.Recorder
	builds   BuildLog
	out      io.Writer
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithPrompter sets the prompter used for new content files.
func WithPrompter(p prompt.Prompter) Option {
	return func(r *Runner) { r.prompter = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithBuildLog records each run in log.
func WithBuildLog(log BuildLog) Option {
	return func(r *Runner) { r.builds = log }
}

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithClock overrides the clock that supplies "today".
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner. Without options it accepts detected metadata,
// records no metrics and prints nothing.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	renderer, err := render.New(cfg.Site, cfg.Assets, cfg.Paths.Template)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:      cfg,
		store:    metadata.NewStore(cfg.Paths.Metadata, cfg.Paths.WorkspaceMetadata),
		versions: assets.NewVersionStore(cfg.Assets.VersionFile, cfg.Assets.Files, cfg.Assets.DefaultVersion),
		renderer: renderer,
		prompter: prompt.Accept{ImagePattern: cfg.Metadata.ImagePattern},
		recorder: metrics.NoopRecorder{},
		out:      io.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Store returns the metadata store the runner uses.
func (r *Runner) Store() *metadata.Store { return r.store }

func (r *Runner) today() string {
	return r.now().Format(metadata.DateLayout)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// run wraps a command: it assigns a build id, records the build and the
// overall outcome, and returns the report.
func (r *Runner) run(ctx context.Context, command string, body func(ctx context.Context, rep *Report) error) (*Report, error) {
	start := r.now()
	rep := &Report{}

	if r.builds != nil {
		id, err := r.builds.StartBuild(ctx, command)
		if err != nil {
			return nil, err
		}
		rep.BuildID = id
	} else {
		rep.BuildID = uuid.NewString()
	}
	ctx = observability.WithBuildID(ctx, rep.BuildID)

	err := body(ctx, rep)

	status, outcome := state.BuildSuccess, metrics.BuildOutcomeSuccess
	switch {
	case err != nil && ctx.Err() != nil:
		status, outcome = state.BuildCanceled, metrics.BuildOutcomeCanceled
	case err != nil:
		status, outcome = state.BuildFailed, metrics.BuildOutcomeFailed
		observability.ErrorContext(ctx, "Build failed", logfields.Command(command), logfields.Error(err))
	case rep.HasWarnings():
		status, outcome = state.BuildWarning, metrics.BuildOutcomeWarning
	}
	r.recorder.IncBuildOutcome(outcome)
	r.recorder.ObserveBuildDuration(r.now().Sub(start))

	if r.builds != nil {
		// The run's own context may be canceled; the record should still land.
		if ferr := r.builds.FinishBuild(context.WithoutCancel(ctx), rep.BuildID, status, rep.Generated+rep.Unchanged, rep.Skipped); ferr != nil {
			observability.WarnContext(ctx, "Failed to record build", logfields.Error(ferr))
		}
	}
	return rep, err
}

// stage times fn and reports its result. fn returns whether it finished
// with warnings.
func (r *Runner) stage(ctx context.Context, rep *Report, name Stage, fn func(ctx context.Context) (bool, error)) error {
	ctx = observability.WithStage(ctx, string(name))
	start := r.now()
	warned, err := fn(ctx)
	d := r.now().Sub(start)

	rep.Timings = append(rep.Timings, StageTiming{Stage: name, Duration: d})
	r.recorder.ObserveStageDuration(string(name), d)

	result := metrics.ResultSuccess
	switch {
	case err != nil && (ctx.Err() != nil || errors.HasCategory(err, errors.CategoryCanceled)):
		result = metrics.ResultCanceled
	case err != nil:
		result = metrics.ResultFatal
	case warned:
		result = metrics.ResultWarning
	}
	r.recorder.IncStageResult(string(name), result)
	observability.DebugContext(ctx, "Stage finished", logfields.DurationMS(float64(d.Microseconds())/1000))
	return err
}

// Generate runs every stage: scan for new content, validate, render pages,
// sync the metadata copies and rebuild the sitemap.
func (r *Runner) Generate(ctx context.Context) (*Report, error) {
	return r.run(ctx, "generate", func(ctx context.Context, rep *Report) error {
		var posts []metadata.Post
		steps := []struct {
			name Stage
			fn   func(ctx context.Context) (bool, error)
		}{
			{StageScan, func(ctx context.Context) (bool, error) {
				var err error
				posts, err = r.scan(ctx, rep)
				return false, err
			}},
			{StageValidate, func(ctx context.Context) (bool, error) {
				return false, metadata.ValidationError(metadata.Validate(posts))
			}},
			{StagePages, func(ctx context.Context) (bool, error) {
				return r.pages(ctx, rep, posts)
			}},
			{StageSync, func(ctx context.Context) (bool, error) {
				return false, r.sync(ctx, rep)
			}},
			{StageSitemap, func(ctx context.Context) (bool, error) {
				return false, r.sitemap(ctx, rep, posts)
			}},
		}
		for _, s := range steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.stage(ctx, rep, s.name, s.fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// Scan runs only the scan stage.
func (r *Runner) Scan(ctx context.Context) (*Report, error) {
	return r.run(ctx, "scan", func(ctx context.Context, rep *Report) error {
		return r.stage(ctx, rep, StageScan, func(ctx context.Context) (bool, error) {
			_, err := r.scan(ctx, rep)
			return false, err
		})
	})
}

// Sitemap rebuilds the sitemap from the current metadata.
func (r *Runner) Sitemap(ctx context.Context) (*Report, error) {
	return r.run(ctx, "sitemap", func(ctx context.Context, rep *Report) error {
		return r.stage(ctx, rep, StageSitemap, func(ctx context.Context) (bool, error) {
			posts, err := r.store.Load()
			if err != nil {
				return false, err
			}
			return false, r.sitemap(ctx, rep, posts)
		})
	})
}

func (r *Runner) outputPath(p metadata.Post) string {
	return filepath.Join(r.cfg.Paths.Output, p.OutputName())
}
