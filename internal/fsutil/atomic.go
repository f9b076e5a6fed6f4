// Package fsutil holds the file-writing primitives shared by every output of
// a run.
package fsutil

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileMode is the mode given to files WriteFile creates. Existing files keep
// their mode.
const FileMode os.FileMode = 0o644

// WriteFile writes data to path through a temporary file in the same
// directory that is renamed into place. Parent directories are created.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	if os.IsNotExist(statErr) {
		// The temporary file is created 0600.
		return os.Chmod(path, FileMode)
	}
	return nil
}

// WriteIfChanged writes data only when path does not already hold exactly
// those bytes. It reports whether a write happened.
func WriteIfChanged(path string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := WriteFile(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
