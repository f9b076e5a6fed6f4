package state

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// BuildStatus is the recorded outcome of a run.
type BuildStatus string

const (
	BuildRunning  BuildStatus = "running"
	BuildSuccess  BuildStatus = "success"
	BuildWarning  BuildStatus = "warning"
	BuildFailed   BuildStatus = "failed"
	BuildCanceled BuildStatus = "canceled"
)

// Build is one recorded run.
type Build struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     BuildStatus
	Pages      int
	Skipped    int
}

// StartBuild records a running build and returns its id.
func (s *Store) StartBuild(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, command, started_at, status) VALUES (?, ?, ?, ?)",
		id, command, s.now().UnixMilli(), string(BuildRunning),
	)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryState, "failed to record build start").
			WithContext("command", command).
			Build()
	}
	return id, nil
}

// FinishBuild stores the final status and page counts of a build.
func (s *Store) FinishBuild(ctx context.Context, id string, status BuildStatus, pages, skipped int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE builds SET finished_at = ?, status = ?, pages = ?, skipped = ? WHERE id = ?",
		s.now().UnixMilli(), string(status), pages, skipped, id,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryState, "failed to record build finish").
			WithContext("build_id", id).
			Build()
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundError("unknown build").WithContext("build_id", id).Build()
	}
	return nil
}

// LastBuild returns the most recently started build, if any.
func (s *Store) LastBuild(ctx context.Context) (*Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		b        Build
		started  int64
		finished sql.NullInt64
		status   string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, command, started_at, finished_at, status, pages, skipped FROM builds ORDER BY started_at DESC, rowid DESC LIMIT 1",
	).Scan(&b.ID, &b.Command, &started, &finished, &status, &b.Pages, &b.Skipped)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryState, "failed to query last build").Build()
	}
	b.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		b.FinishedAt = time.UnixMilli(finished.Int64)
	}
	b.Status = BuildStatus(status)
	return &b, nil
}
