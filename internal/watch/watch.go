package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/keneslab/sitegen/internal/content"
	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc performs one rebuild.
type BuildFunc func(ctx context.Context) error

// Watcher triggers BuildFunc on relevant filesystem changes.
type Watcher struct {
	build BuildFunc
	// dirs are watched for fragment files.
	dirs []string
	// files are watched individually through their parent directory, so
	// editors that replace a file by rename are still seen.
	files map[string]struct{}

	Debounce time.Duration
	// OnBuild, when set, is called after every rebuild.
	OnBuild func(err error)
}

// New creates a Watcher over fragment directories dirs and individual files.
// Empty paths are ignored.
func New(build BuildFunc, dirs, files []string) *Watcher {
	w := &Watcher{build: build, files: make(map[string]struct{}), Debounce: DefaultDebounce}
	for _, d := range dirs {
		if d != "" {
			w.dirs = append(w.dirs, filepath.Clean(d))
		}
	}
	for _, f := range files {
		if f != "" {
			w.files[filepath.Clean(f)] = struct{}{}
		}
	}
	return w
}

// Run builds once, then rebuilds on every relevant change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}
	defer func() { _ = fw.Close() }()

	for _, dir := range w.watchList() {
		if err := fw.Add(dir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", dir).
				Build()
		}
		slog.Debug("Watching directory", logfields.Path(dir))
	}

	s := newScheduler(w.Debounce)
	defer s.stop()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx, s.requests)
	}()
	defer wg.Wait()
	defer cancel()

	s.now()
	slog.Info("Watching for changes", logfields.Count(len(w.dirs)+len(w.files)))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watch")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
				s.trigger()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) watchList() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	for _, d := range w.dirs {
		add(d)
	}
	for f := range w.files {
		add(filepath.Dir(f))
	}
	return out
}

// worker runs builds one at a time. The request channel holds at most one
// pending build, so bursts during a build collapse into a single rerun.
func (w *Watcher) worker(ctx context.Context, requests <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-requests:
			slog.Info("Rebuilding")
			err := w.build(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
			}
			if w.OnBuild != nil {
				w.OnBuild(err)
			}
		}
	}
}

// relevant reports whether ev should cause a rebuild.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	if shouldIgnore(name) {
		return false
	}
	dir := filepath.Dir(name)
	for _, d := range w.dirs {
		if d == dir {
			return content.IsFragment(name)
		}
	}
	return false
}

// shouldIgnore matches hidden files and editor temp files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

// scheduler debounces triggers into build requests.
type scheduler struct {
	mu       sync.Mutex
	timer    *time.Timer
	delay    time.Duration
	requests chan struct{}
}

func newScheduler(delay time.Duration) *scheduler {
	return &scheduler{delay: delay, requests: make(chan struct{}, 1)}
}

// trigger restarts the quiet period.
func (s *scheduler) trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.now)
}

// now requests a build immediately. A request already pending absorbs it.
func (s *scheduler) now() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}
