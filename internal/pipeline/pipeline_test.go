package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keneslab/sitegen/internal/assets"
	"github.com/keneslab/sitegen/internal/config"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/metadata"
	"github.com/keneslab/sitegen/internal/metrics"
	"github.com/keneslab/sitegen/internal/state"
)

const helloHTML = `<h1>Hello World</h1>
<div class="post-meta"><span class="date">2024년 5월 20일</span></div>
<p>First post on the new blog.</p>`

const notesMD = `---
title: Notes
date: 2024-05-01
---
Some *markdown* notes.
`

type recordingRecorder struct {
	mu       sync.Mutex
	results  map[string]metrics.ResultLabel
	outcomes []metrics.BuildOutcomeLabel
	pages    map[metrics.PageResult]int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{results: map[string]metrics.ResultLabel{}, pages: map[metrics.PageResult]int{}}
}

func (r *recordingRecorder) ObserveStageDuration(string, time.Duration) {}
func (r *recordingRecorder) ObserveBuildDuration(time.Duration)         {}
func (r *recordingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[stage] = result
}
func (r *recordingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}
func (r *recordingRecorder) AddPages(result metrics.PageResult, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[result] += n
}
func (r *recordingRecorder) AddAssetBumps(string, int) {}

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Metadata = filepath.Join(dir, "posts-metadata.json")
	cfg.Paths.WorkspaceMetadata = filepath.Join(dir, "workspace", "contents", "posts-metadata.json")
	cfg.Paths.Contents = filepath.Join(dir, "workspace", "contents")
	cfg.Paths.Output = filepath.Join(dir, "articles")
	cfg.Paths.Sitemap = filepath.Join(dir, "sitemap.xml")
	cfg.Paths.State = filepath.Join(dir, "workspace", ".sitegen", "state.db")
	cfg.Assets.VersionFile = filepath.Join(dir, "workspace", "bin", "asset-versions.json")
	cfg.Assets.Root = dir
	require.NoError(t, os.MkdirAll(cfg.Paths.Contents, 0o755))
	return cfg, dir
}

func writeContent(t *testing.T, cfg *config.Config, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.Contents, name), []byte(data), 0o644))
}

func clockAt(day string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(metadata.DateLayout, day)
		return t.Add(10 * time.Hour)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestGenerate_EndToEnd(t *testing.T) {
	cfg, _ := testConfig(t)
	writeContent(t, cfg, "hello.html", helloHTML)
	writeContent(t, cfg, "notes.md", notesMD)

	var out bytes.Buffer
	rec := newRecordingRecorder()
	r, err := New(cfg, WithClock(clockAt("2024-06-01")), WithOutput(&out), WithRecorder(rec))
	require.NoError(t, err)

	rep, err := r.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, rep.BuildID)
	assert.Equal(t, []string{"hello.html", "notes.md"}, rep.Added)
	assert.Equal(t, 2, rep.Generated)
	assert.Equal(t, 0, rep.Skipped)
	assert.Equal(t, metadata.SyncRootToWorkspace, rep.Sync)
	assert.Equal(t, 6, rep.Sitemap.Total())
	assert.Len(t, rep.Timings, 5)
	assert.Equal(t, metrics.ResultSuccess, rec.results["pages"])
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 2, rec.pages[metrics.PageWritten])

	posts, err := r.Store().Load()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Hello World", posts[0].Title)
	assert.Equal(t, "2024-05-20", posts[0].Date)
	assert.Equal(t, "images/hello-og.jpg", posts[0].Image)
	assert.NotEmpty(t, posts[0].Fingerprint)
	assert.Equal(t, "Notes", posts[1].Title)

	page := string(readFile(t, filepath.Join(cfg.Paths.Output, "hello.html")))
	assert.Contains(t, page, "<title>Hello World - KenesLab Blog</title>")
	assert.Contains(t, page, helloHTML)
	assert.FileExists(t, filepath.Join(cfg.Paths.Output, "notes.html"))
	assert.FileExists(t, cfg.Paths.WorkspaceMetadata)
	assert.FileExists(t, cfg.Assets.VersionFile)
	assert.Contains(t, string(readFile(t, cfg.Paths.Sitemap)), "https://keneslab.github.io/articles/notes.html")
	assert.Contains(t, out.String(), "Found 2 new content file(s)")
}

func TestGenerate_RereadsCustomTemplate(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.Paths.Template = filepath.Join(dir, "page.tmpl")
	require.NoError(t, os.WriteFile(cfg.Paths.Template, []byte("OLD {{.Post.Title}}"), 0o644))
	writeContent(t, cfg, "hello.html", helloHTML)

	r, err := New(cfg, WithClock(clockAt("2024-06-01")))
	require.NoError(t, err)
	_, err = r.Generate(context.Background())
	require.NoError(t, err)
	out := filepath.Join(cfg.Paths.Output, "hello.html")
	assert.Equal(t, "OLD Hello World", string(readFile(t, out)))

	require.NoError(t, os.WriteFile(cfg.Paths.Template, []byte("NEW {{.Post.Title}}"), 0o644))
	rep, err := r.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Generated)
	assert.Equal(t, "NEW Hello World", string(readFile(t, out)))
}

func TestGenerate_RerunIsByteIdentical(t *testing.T) {
	cfg, _ := testConfig(t)
	writeContent(t, cfg, "hello.html", helloHTML)
	writeContent(t, cfg, "notes.md", notesMD)

	first, err := New(cfg, WithClock(clockAt("2024-06-01")))
	require.NoError(t, err)
	_, err = first.Generate(context.Background())
	require.NoError(t, err)

	snapshot := map[string][]byte{}
	for _, p := range []string{
		filepath.Join(cfg.Paths.Output, "hello.html"),
		filepath.Join(cfg.Paths.Output, "notes.html"),
		cfg.Paths.Sitemap,
		cfg.Paths.Metadata,
		cfg.Paths.WorkspaceMetadata,
	} {
		snapshot[p] = readFile(t, p)
	}

	second, err := New(cfg, WithClock(clockAt("2024-09-15")))
	require.NoError(t, err)
	rep, err := second.Generate(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rep.Added)
	assert.Equal(t, 0, rep.Generated)
	assert.Equal(t, 2, rep.Unchanged)
	assert.Equal(t, metadata.SyncInSync, rep.Sync)
	assert.Empty(t, rep.Changed)
	for p, want := range snapshot {
		assert.Equal(t, string(want), string(readFile(t, p)), p)
	}
}

func TestGenerate_ContentChangeMovesDateModified(t *testing.T) {
	cfg, _ := testConfig(t)
	writeContent(t, cfg, "hello.html", helloHTML)
	writeContent(t, cfg, "notes.md", notesMD)

	r, err := New(cfg, WithClock(clockAt("2024-06-01")))
	require.NoError(t, err)
	_, err = r.Generate(context.Background())
	require.NoError(t, err)

	writeContent(t, cfg, "hello.html", helloHTML+"\n<p>Update.</p>")
	r, err = New(cfg, WithClock(clockAt("2024-07-01")))
	require.NoError(t, err)
	rep, err := r.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Generated)
	assert.Equal(t, 1, rep.Unchanged)

	posts, err := r.Store().Load()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", posts[0].DateModified)
	assert.Equal(t, "2024-06-01", posts[1].DateModified)
	assert.Contains(t, string(readFile(t, cfg.Paths.Sitemap)), "<lastmod>2024-07-01</lastmod>")
}

func TestGenerate_DuplicateRoutesAbortBeforeWriting(t *testing.T) {
	cfg, _ := testConfig(t)
	data, err := metadata.Encode([]metadata.Post{
		{Filename: "a.html", Route: "same", Title: "A"},
		{Filename: "b.html", Route: "same", Title: "B"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Paths.Metadata, data, 0o644))
	writeContent(t, cfg, "a.html", "<p>a</p>")
	writeContent(t, cfg, "b.html", "<p>b</p>")

	rec := newRecordingRecorder()
	r, err := New(cfg, WithRecorder(rec))
	require.NoError(t, err)
	_, err = r.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, metrics.ResultFatal, rec.results["validate"])
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)

	assert.NoDirExists(t, cfg.Paths.Output)
	assert.NoFileExists(t, cfg.Paths.Sitemap)
}

func TestRun_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, _ := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Paths.Metadata, []byte("{not json"), 0o644))

	r, err := New(cfg)
	require.NoError(t, err)
	rep, err := r.Generate(context.Background())
	require.Error(t, err)

	line := logs.String()
	assert.Contains(t, line, "level=ERROR")
	assert.Contains(t, line, `msg="Build failed"`)
	assert.Contains(t, line, "command=generate")
	assert.Contains(t, line, "build_id="+rep.BuildID)
}

func TestGenerate_MissingFragmentIsSkipped(t *testing.T) {
	cfg, _ := testConfig(t)
	data, err := metadata.Encode([]metadata.Post{
		{Filename: "gone.html", Route: "gone", Title: "Gone", Date: "2024-01-01"},
		{Filename: "here.html", Route: "here", Title: "Here", Date: "2024-01-02"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Paths.Metadata, data, 0o644))
	writeContent(t, cfg, "here.html", "<p>here</p>")

	log, err := state.Open(state.MemoryPath)
	require.NoError(t, err)
	defer func() { _ = log.Close() }()

	rec := newRecordingRecorder()
	r, err := New(cfg, WithClock(clockAt("2024-06-01")), WithRecorder(rec), WithBuildLog(log))
	require.NoError(t, err)
	rep, err := r.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Generated)
	assert.True(t, rep.HasWarnings())
	assert.Equal(t, metrics.ResultWarning, rec.results["pages"])
	assert.NoFileExists(t, filepath.Join(cfg.Paths.Output, "gone.html"))
	assert.Equal(t, 2, rep.Sitemap.Posts, "sitemap still lists every post")

	last, err := log.LastBuild(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, rep.BuildID, last.ID)
	assert.Equal(t, state.BuildWarning, last.Status)
	assert.Equal(t, 1, last.Skipped)
}

func TestGenerate_Canceled(t *testing.T) {
	cfg, _ := testConfig(t)
	writeContent(t, cfg, "hello.html", helloHTML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.Paths.Metadata)
}

func TestScan_RouteCollisionIsSkipped(t *testing.T) {
	cfg, _ := testConfig(t)
	data, err := metadata.Encode([]metadata.Post{{Filename: "old.html", Route: "hello", Title: "Old"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Paths.Metadata, data, 0o644))
	writeContent(t, cfg, "old.html", "<p>old</p>")
	writeContent(t, cfg, "hello.html", helloHTML)

	r, err := New(cfg)
	require.NoError(t, err)
	rep, err := r.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Added)
	assert.Empty(t, rep.MetadataPath)
}

// fixedRoute accepts detected metadata under a chosen route.
type fixedRoute string

func (f fixedRoute) Review(_ context.Context, auto metadata.Post) (metadata.Post, error) {
	auto.Route = string(f)
	return auto, nil
}

func TestScan_UnsafeRouteIsSkipped(t *testing.T) {
	for _, route := range []string{"2024/hello", "../hello", `a\b`, ".hidden"} {
		t.Run(route, func(t *testing.T) {
			cfg, _ := testConfig(t)
			writeContent(t, cfg, "hello.html", helloHTML)

			r, err := New(cfg, WithPrompter(fixedRoute(route)))
			require.NoError(t, err)
			rep, err := r.Scan(context.Background())
			require.NoError(t, err)
			assert.Empty(t, rep.Added)
			assert.Empty(t, rep.MetadataPath)
			assert.NoFileExists(t, cfg.Paths.Metadata)
		})
	}
}

func TestSitemapOnly(t *testing.T) {
	cfg, _ := testConfig(t)
	data, err := metadata.Encode([]metadata.Post{{Filename: "a.html", Route: "a", Date: "2024-02-02"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Paths.Metadata, data, 0o644))

	r, err := New(cfg)
	require.NoError(t, err)
	rep, err := r.Sitemap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sitemap.Posts)
	assert.Equal(t, []string{cfg.Paths.Sitemap}, rep.Changed)
	assert.NoDirExists(t, cfg.Paths.Output)
}

func TestValidate(t *testing.T) {
	cfg, _ := testConfig(t)
	data, err := metadata.Encode([]metadata.Post{
		{Filename: "a.html", Route: "a"},
		{Filename: "b.html", Route: "../b"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Paths.Metadata, data, 0o644))
	writeContent(t, cfg, "a.html", "<p>a</p>")

	r, err := New(cfg)
	require.NoError(t, err)
	rep, err := r.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Posts)
	assert.False(t, rep.OK())
	require.Len(t, rep.Problems, 1)
	assert.Equal(t, 1, rep.Problems[0].Index)
	require.Len(t, rep.MissingContent, 1)
	assert.Equal(t, "b.html", rep.MissingContent[0].Filename)
}

func TestUpdateAssets(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.Assets.Files = []string{"css/style.css", "js/theme.js"}
	cfg.Assets.HTMLFiles = []string{"index.html", "about.html"}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`<link href="css/style.css?v=1.0.0"><script src="js/theme.js"></script>`), 0o644))

	r, err := New(cfg)
	require.NoError(t, err)
	rep, err := r.UpdateAssets(context.Background(), assets.UpdateOptions{Mode: assets.ModeAll, Kind: assets.KindMinor})
	require.NoError(t, err)

	assert.Equal(t, []string{"css/style.css", "js/theme.js"}, rep.Updated)
	assert.Equal(t, "1.0.0", rep.Before["css/style.css"])
	assert.Equal(t, "1.1.0", rep.Versions["css/style.css"])
	require.Len(t, rep.HTML, 2)
	assert.Equal(t, assets.RewriteUpdated, rep.HTML[0].Status)
	assert.Equal(t, assets.RewriteMissing, rep.HTML[1].Status)
	assert.Equal(t,
		`<link href="css/style.css?v=1.1.0"><script src="js/theme.js?v=1.1.0"></script>`,
		string(readFile(t, filepath.Join(dir, "index.html"))))
	assert.Contains(t, rep.Changed, cfg.Assets.VersionFile)

	persisted, err := r.Versions()
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", persisted["js/theme.js"])
}

func TestUpdateAssets_AutoWithState(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.Assets.Files = []string{"css/style.css"}
	cfg.Assets.HTMLFiles = nil
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body{}"), 0o644))

	st, err := state.Open(state.MemoryPath)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	r, err := New(cfg)
	require.NoError(t, err)
	opts := assets.UpdateOptions{Mode: assets.ModeAuto, Hashes: st}

	rep, err := r.UpdateAssets(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"css/style.css"}, rep.Updated)

	rep, err = r.UpdateAssets(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, rep.Updated)
	assert.Empty(t, rep.Changed)
}

// cancelingHashes cancels the run after its first lookup.
type cancelingHashes struct {
	*state.Store
	cancel context.CancelFunc
}

func (c cancelingHashes) AssetHash(ctx context.Context, path string) (string, bool, error) {
	c.cancel()
	return c.Store.AssetHash(ctx, path)
}

func TestUpdateAssets_InterruptedAutoRunBumpsAgain(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.Assets.Files = []string{"css/style.css", "js/theme.js"}
	cfg.Assets.HTMLFiles = nil
	for _, f := range cfg.Assets.Files {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, filepath.Dir(f)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(f), 0o644))
	}

	st, err := state.Open(state.MemoryPath)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	r, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = r.UpdateAssets(ctx, assets.UpdateOptions{Mode: assets.ModeAuto, Hashes: cancelingHashes{Store: st, cancel: cancel}})
	require.Error(t, err)

	_, seen, err := st.AssetHash(context.Background(), "css/style.css")
	require.NoError(t, err)
	assert.False(t, seen, "no hash is recorded before the version file is saved")

	rep, err := r.UpdateAssets(context.Background(), assets.UpdateOptions{Mode: assets.ModeAuto, Hashes: st})
	require.NoError(t, err)
	assert.Equal(t, []string{"css/style.css", "js/theme.js"}, rep.Updated)
	assert.Equal(t, "1.0.1", rep.Versions["css/style.css"])

	_, seen, err = st.AssetHash(context.Background(), "js/theme.js")
	require.NoError(t, err)
	assert.True(t, seen)
}
