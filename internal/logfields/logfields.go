package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStep       = "step"
	KeyEntry      = "entry"
	KeyRoute      = "route"
	KeyComponent  = "component"
	KeyTemplate   = "template"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDir        = "dir"
	KeyTool       = "tool"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyPhase      = "phase"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Entry(name string) slog.Attr     { return slog.String(KeyEntry, name) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }
func Template(id string) slog.Attr    { return slog.String(KeyTemplate, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
