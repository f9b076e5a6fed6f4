package content

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/logfields"
)

// Extensions lists the fragment types Scan picks up.
var Extensions = []string{".html", ".md"}

// IsFragment reports whether name looks like a content fragment.
func IsFragment(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan lists fragment file names in dir, sorted. Subdirectories are not
// descended into. A missing directory yields an empty list.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Contents directory not found", logfields.Path(dir))
			return []string{}, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read contents directory").
			WithContext("path", dir).
			Build()
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsFragment(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}
