package metadata

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/fsutil"
	"github.com/keneslab/sitegen/internal/logfields"
)

// Store reads and writes the metadata file pair.
type Store struct {
	rootPath      string
	workspacePath string
}

// NewStore creates a Store for the root and workspace metadata paths.
func NewStore(rootPath, workspacePath string) *Store {
	return &Store{rootPath: rootPath, workspacePath: workspacePath}
}

// RootPath returns the served metadata path.
func (s *Store) RootPath() string { return s.rootPath }

// WorkspacePath returns the workspace metadata path.
func (s *Store) WorkspacePath() string { return s.workspacePath }

// ActivePath is the copy Load reads from and Save writes to: the root copy
// when it exists, the workspace copy otherwise.
func (s *Store) ActivePath() string {
	if fsutil.Exists(s.rootPath) || !fsutil.Exists(s.workspacePath) {
		return s.rootPath
	}
	return s.workspacePath
}

// Load returns the post list. No metadata file at all yields an empty list.
func (s *Store) Load() ([]Post, error) {
	path := s.ActivePath()
	if !fsutil.Exists(path) {
		slog.Warn("No metadata file found; starting with an empty post list",
			logfields.Path(s.rootPath))
		return []Post{}, nil
	}
	if path == s.workspacePath {
		slog.Info("Loading metadata from workspace", logfields.Path(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMetadata, "failed to read metadata").
			WithContext("path", path).
			Fatal().
			Build()
	}
	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, errors.WrapError(err, errors.CategoryMetadata, "failed to parse metadata").
			WithContext("path", path).
			Fatal().
			Build()
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// Save writes posts to the active path atomically and returns that path.
func (s *Store) Save(posts []Post) (string, error) {
	path := s.ActivePath()
	data, err := Encode(posts)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFile(path, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write metadata").
			WithContext("path", path).
			Build()
	}
	return path, nil
}

// Encode renders posts in the on-disk format: four-space indented JSON
// without HTML escaping and without a trailing newline.
func Encode(posts []Post) ([]byte, error) {
	if posts == nil {
		posts = []Post{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(posts); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode metadata").Build()
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
