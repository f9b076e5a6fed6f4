package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/logfields"
)

// Mode selects how Update picks new versions.
type Mode string

const (
	// ModeHash sets each existing configured asset to its content hash.
	ModeHash Mode = "hash"
	// ModeAll bumps every entry of the version map.
	ModeAll Mode = "all"
	// ModeFile bumps a single entry.
	ModeFile Mode = "file"
	// ModeAuto bumps the patch version of assets whose content changed.
	ModeAuto Mode = "auto"
)

// HashStore remembers the last content hash seen for each asset.
type HashStore interface {
	AssetHash(ctx context.Context, path string) (hash string, ok bool, err error)
	SetAssetHash(ctx context.Context, path, hash string) error
}

// UpdateOptions configures Update.
type UpdateOptions struct {
	Mode Mode
	Kind Kind
	// File is the entry bumped in ModeFile.
	File string
	// Root is the directory asset paths are resolved against.
	Root string
	// Assets is the configured asset list, in order.
	Assets []string
	// DefaultVersion seeds assets missing from the map in ModeAuto.
	DefaultVersion string
	// Hashes is required for ModeAuto.
	Hashes HashStore
}

// Hash returns the first 8 hex characters of the MD5 digest of the file.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:8], nil
}

// UpdateResult is the outcome of Update.
type UpdateResult struct {
	// Updated lists the asset paths whose version changed, configured assets
	// first in config order.
	Updated []string
	// Hashes holds the content hashes observed for Updated assets in
	// ModeAuto. They are not stored by Update; pass them to RecordHashes
	// once the version file is saved.
	Hashes map[string]string
}

// Update changes versions in place according to opts.
func Update(ctx context.Context, versions Versions, opts UpdateOptions) (UpdateResult, error) {
	switch opts.Mode {
	case ModeHash:
		return UpdateResult{Updated: updateByHash(versions, opts)}, nil
	case ModeAll:
		var updated []string
		for _, a := range orderedKeys(versions, opts.Assets) {
			next, err := Increment(versions[a], opts.Kind)
			if err != nil {
				return UpdateResult{}, withAsset(err, a)
			}
			versions[a] = next
			updated = append(updated, a)
		}
		return UpdateResult{Updated: updated}, nil
	case ModeFile:
		current, ok := versions[opts.File]
		if !ok {
			return UpdateResult{}, errors.NotFoundError(fmt.Sprintf("asset %q is not in the version file", opts.File)).
				WithContext("asset", opts.File).
				Build()
		}
		next, err := Increment(current, opts.Kind)
		if err != nil {
			return UpdateResult{}, withAsset(err, opts.File)
		}
		versions[opts.File] = next
		return UpdateResult{Updated: []string{opts.File}}, nil
	case ModeAuto:
		return updateChanged(ctx, versions, opts)
	default:
		return UpdateResult{}, errors.ValidationError(fmt.Sprintf("unknown update mode %q", opts.Mode)).Build()
	}
}

// RecordHashes stores hashes returned by an auto-mode Update. Call it only
// after the bumped versions are persisted, so an interrupted run bumps again.
func RecordHashes(ctx context.Context, store HashStore, hashes map[string]string) error {
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := store.SetAssetHash(ctx, p, hashes[p]); err != nil {
			return withAsset(err, p)
		}
	}
	return nil
}

func updateByHash(versions Versions, opts UpdateOptions) []string {
	var updated []string
	for _, a := range opts.Assets {
		sum, err := Hash(filepath.Join(opts.Root, a))
		if err != nil {
			slog.Warn("Cannot hash asset; skipping", logfields.Asset(a), logfields.Error(err))
			continue
		}
		versions[a] = sum
		updated = append(updated, a)
	}
	return updated
}

func updateChanged(ctx context.Context, versions Versions, opts UpdateOptions) (UpdateResult, error) {
	if opts.Hashes == nil {
		return UpdateResult{}, errors.InternalError("auto mode requires a hash store").Build()
	}
	res := UpdateResult{Hashes: map[string]string{}}
	for _, a := range opts.Assets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(opts.Root, a)
		if _, err := os.Stat(path); err != nil {
			slog.Debug("Asset not present; skipping", logfields.Asset(a))
			continue
		}
		sum, err := Hash(path)
		if err != nil {
			slog.Warn("Cannot hash asset; skipping", logfields.Asset(a), logfields.Error(err))
			continue
		}
		previous, seen, err := opts.Hashes.AssetHash(ctx, a)
		if err != nil {
			return res, err
		}
		if seen && previous == sum {
			continue
		}

		current, ok := versions[a]
		if !ok {
			current = opts.DefaultVersion
		}
		next, err := Increment(current, KindPatch)
		if err != nil {
			return res, withAsset(err, a)
		}
		versions[a] = next
		res.Updated = append(res.Updated, a)
		res.Hashes[a] = sum
	}
	return res, nil
}

// orderedKeys lists configured assets present in v, then the remaining keys
// sorted.
func orderedKeys(v Versions, configured []string) []string {
	keys := make([]string, 0, len(v))
	seen := make(map[string]struct{}, len(configured))
	for _, a := range configured {
		if _, ok := v[a]; ok {
			keys = append(keys, a)
			seen[a] = struct{}{}
		}
	}
	for _, k := range v.Sorted() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func withAsset(err error, asset string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("asset", asset)
	}
	return err
}
