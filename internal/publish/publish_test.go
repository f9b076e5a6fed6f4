package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

func fixedOptions(subject string) Options {
	return Options{
		Subject: subject,
		Author:  &object.Signature{Name: "tester", Email: "t@example.com"},
		Now:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func write(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestCommit_StagesAndCommits(t *testing.T) {
	dir, repo := initRepo(t)
	page := filepath.Join(dir, "articles", "hello.html")
	sitemap := filepath.Join(dir, "sitemap.xml")
	write(t, page, "<html></html>")
	write(t, sitemap, "<urlset/>")
	write(t, filepath.Join(dir, "untouched.txt"), "not ours")

	res, err := Commit(context.Background(), dir, []string{page, sitemap, page}, fixedOptions("Generate pages"))
	require.NoError(t, err)
	require.NotEmpty(t, res.Hash)
	assert.Equal(t, []string{"articles/hello.html", "sitemap.xml"}, res.Files)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Generate pages\n\n- articles/hello.html\n- sitemap.xml\n", commit.Message)
	assert.Equal(t, "tester", commit.Author.Name)

	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("articles/hello.html")
	require.NoError(t, err)
	_, err = tree.File("untouched.txt")
	assert.Error(t, err, "only the given paths are committed")
}

func TestCommit_NothingChanged(t *testing.T) {
	dir, repo := initRepo(t)
	page := filepath.Join(dir, "index.html")
	write(t, page, "v1")

	first, err := Commit(context.Background(), dir, []string{page}, fixedOptions("first"))
	require.NoError(t, err)
	require.NotEmpty(t, first.Hash)

	second, err := Commit(context.Background(), dir, []string{page}, fixedOptions("second"))
	require.NoError(t, err)
	assert.Empty(t, second.Hash)
	assert.Empty(t, second.Files)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, first.Hash, head.Hash().String())

	write(t, page, "v2")
	third, err := Commit(context.Background(), dir, []string{page}, fixedOptions("third"))
	require.NoError(t, err)
	assert.NotEmpty(t, third.Hash)
	assert.Equal(t, []string{"index.html"}, third.Files)
}

func TestCommit_FromSubdirectory(t *testing.T) {
	dir, _ := initRepo(t)
	page := filepath.Join(dir, "articles", "a.html")
	write(t, page, "a")

	res, err := Commit(context.Background(), filepath.Join(dir, "articles"), []string{page}, fixedOptions(""))
	require.NoError(t, err)
	assert.Equal(t, []string{"articles/a.html"}, res.Files)
}

func TestCommit_SkipsPathsOutsideRepository(t *testing.T) {
	dir, _ := initRepo(t)
	outside := filepath.Join(t.TempDir(), "elsewhere.html")
	write(t, outside, "x")

	res, err := Commit(context.Background(), dir, []string{outside}, fixedOptions("x"))
	require.NoError(t, err)
	assert.Empty(t, res.Hash)
}

func TestCommit_NotARepository(t *testing.T) {
	_, err := Commit(context.Background(), t.TempDir(), nil, fixedOptions("x"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Update generated site files\n\n- a\n", Message(" ", []string{"a"}))
	assert.Equal(t, "Bump assets\n\n", Message("Bump assets", nil))
}
