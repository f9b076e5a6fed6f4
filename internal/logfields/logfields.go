package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRoute      = "route"
	KeyTitle      = "title"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyAsset      = "asset"
	KeyVersion    = "version"
	KeyCount      = "count"
	KeyMode       = "mode"
	KeyCommand    = "command"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Title(t string) slog.Attr        { return slog.String(KeyTitle, t) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Asset(a string) slog.Attr        { return slog.String(KeyAsset, a) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
