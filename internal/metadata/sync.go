package metadata

import (
	"log/slog"
	"os"

	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/fsutil"
)

// SyncDirection reports what Sync did.
type SyncDirection string

const (
	SyncNone            SyncDirection = "none"
	SyncInSync          SyncDirection = "in_sync"
	SyncWorkspaceToRoot SyncDirection = "workspace_to_root"
	SyncRootToWorkspace SyncDirection = "root_to_workspace"
)

// Sync reconciles the root and workspace copies. The newer file wins; when
// only one exists it is copied to the other location. The copy inherits the
// source modification time so the next run sees the pair as in sync.
func (s *Store) Sync() (SyncDirection, error) {
	wsInfo, wsErr := os.Stat(s.workspacePath)
	rootInfo, rootErr := os.Stat(s.rootPath)
	wsExists, rootExists := wsErr == nil, rootErr == nil

	var dir SyncDirection
	switch {
	case wsExists && rootExists:
		switch {
		case wsInfo.ModTime().After(rootInfo.ModTime()):
			dir = SyncWorkspaceToRoot
		case rootInfo.ModTime().After(wsInfo.ModTime()):
			dir = SyncRootToWorkspace
		default:
			slog.Info("Metadata already in sync")
			return SyncInSync, nil
		}
	case wsExists:
		dir = SyncWorkspaceToRoot
	case rootExists:
		dir = SyncRootToWorkspace
	default:
		return SyncNone, nil
	}

	src, dst := s.workspacePath, s.rootPath
	if dir == SyncRootToWorkspace {
		src, dst = s.rootPath, s.workspacePath
	}
	if err := copyPreservingModTime(src, dst); err != nil {
		return SyncNone, errors.WrapError(err, errors.CategoryFileSystem, "failed to sync metadata").
			WithContext("from", src).
			WithContext("to", dst).
			Build()
	}
	slog.Info("Metadata synced", "from", src, "to", dst)
	return dir, nil
}

func copyPreservingModTime(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(dst, data); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
