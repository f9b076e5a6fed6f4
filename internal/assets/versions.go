package assets

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"sort"

	"github.com/keneslab/sitegen/internal/foundation/errors"
	"github.com/keneslab/sitegen/internal/fsutil"
	"github.com/keneslab/sitegen/internal/logfields"
)

// Versions maps an asset path (as referenced from HTML) to its version.
type Versions map[string]string

// Sorted returns the asset paths in lexical order.
func (v Versions) Sorted() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VersionedURL returns prefix+asset+"?v="+version, using fallback when the
// asset has no recorded version.
func VersionedURL(v Versions, asset, prefix, fallback string) string {
	version, ok := v[asset]
	if !ok || version == "" {
		version = fallback
	}
	return prefix + asset + "?v=" + version
}

// VersionStore persists Versions as JSON.
type VersionStore struct {
	path           string
	assets         []string
	defaultVersion string
}

// NewVersionStore creates a store at path. assets and defaultVersion seed the
// file when it does not exist yet.
func NewVersionStore(path string, assets []string, defaultVersion string) *VersionStore {
	return &VersionStore{path: path, assets: assets, defaultVersion: defaultVersion}
}

// Path returns the version file location.
func (s *VersionStore) Path() string { return s.path }

// Load reads the version file, creating it with every configured asset at the
// default version when missing.
func (s *VersionStore) Load() (Versions, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		slog.Warn("Version file not found; creating it", logfields.Path(s.path))
		v := make(Versions, len(s.assets))
		for _, a := range s.assets {
			v[a] = s.defaultVersion
		}
		if err := s.Save(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read version file").
			WithContext("path", s.path).
			Build()
	}

	var v Versions
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.WrapError(err, errors.CategoryAssets, "failed to parse version file").
			WithContext("path", s.path).
			Build()
	}
	if v == nil {
		v = Versions{}
	}
	return v, nil
}

// Save writes v as four-space indented JSON. The write goes through a
// temporary file renamed into place, so readers never see a partial map.
func (s *VersionStore) Save(v Versions) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode versions").Build()
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if err := fsutil.WriteFile(s.path, data); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write version file").
			WithContext("path", s.path).
			Build()
	}
	return nil
}
