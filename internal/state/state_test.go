package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAssetHashes(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, ok, err := s.AssetHash(ctx, "css/style.css")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetAssetHash(ctx, "css/style.css", "aaaa1111"))
	require.NoError(t, s.SetAssetHash(ctx, "css/style.css", "bbbb2222"))

	hash, ok, err := s.AssetHash(ctx, "css/style.css")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bbbb2222", hash)
}

func TestBuilds(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	last, err := s.LastBuild(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	id, err := s.StartBuild(ctx, "generate")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	clock = clock.Add(2 * time.Second)
	require.NoError(t, s.FinishBuild(ctx, id, BuildWarning, 5, 1))

	last, err = s.LastBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id, last.ID)
	assert.Equal(t, "generate", last.Command)
	assert.Equal(t, BuildWarning, last.Status)
	assert.Equal(t, 5, last.Pages)
	assert.Equal(t, 1, last.Skipped)
	assert.Equal(t, 2*time.Second, last.FinishedAt.Sub(last.StartedAt))

	err = s.FinishBuild(ctx, "missing", BuildSuccess, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestOpen_FileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetAssetHash(ctx, "js/theme.js", "cafe0000"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	hash, ok, err := s.AssetHash(ctx, "js/theme.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cafe0000", hash)
}
