package state

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is the SQLite-backed state store.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. The parent directory is created for file databases.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.WrapError(err, errors.CategoryState, "failed to create state directory").
				WithContext("path", path).
				Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryState, "failed to open state database").
			WithContext("path", path).
			Build()
	}
	// One connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryState, "failed to initialize state schema").
			WithContext("path", path).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS asset_hashes (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AssetHash returns the stored hash for an asset path.
func (s *Store) AssetHash(ctx context.Context, path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM asset_hashes WHERE path = ?", path).Scan(&hash)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryState, "failed to query asset hash").
			WithContext("asset", path).
			Build()
	}
	return hash, true, nil
}

// SetAssetHash records the hash for an asset path.
func (s *Store) SetAssetHash(ctx context.Context, path, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asset_hashes (path, hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		path, hash, s.now().Unix(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryState, "failed to store asset hash").
			WithContext("asset", path).
			Build()
	}
	return nil
}
