// Package pages models source documents and the routes and output paths
// derived from them. Names are slash-separated paths relative to the pages
// root with the extension stripped; route folding collapses `index` so each
// document lands at `<dir>/index.html` and serves from a directory URL.
package pages

import (
	"path"
	"sort"
)

// SourceExtensions are the file extensions the build consumes from the pages
// tree. Everything else under pages/ is a static asset.
var SourceExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
	".jsx": true,
	".tsx": true,
}

// DocumentExtensions are the subset of SourceExtensions that become entries.
var DocumentExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
}

// Entry is one source document plus its derived unique name.
// It is an immutable value; all path logic lives here so every consumer
// folds routes identically.
type Entry struct {
	Name string // slash-separated, extension stripped, NFC normalized
	Path string // absolute path to the source document
	Dir  string // pages root the entry was discovered under
}

// ArtifactPath returns the slash-separated output path for this entry with
// the given extension. A document named `index` collapses onto its
// directory: `index` -> `index.html`, `docs/index` -> `docs/index.html`.
// Any other name gains an index file inside a directory of its own:
// `about` -> `about/index.html`, `docs/intro` -> `docs/intro/index.html`.
func (e Entry) ArtifactPath(ext string) string {
	dir, base := path.Split(e.Name)
	if base == "index" {
		return path.Join(dir, "index"+ext)
	}
	return path.Join(e.Name, "index"+ext)
}

// Route returns the URL path the entry serves from, always with a trailing
// slash: `/` for the root index, `/docs/intro/` for `docs/intro`.
func (e Entry) Route() string {
	dir, base := path.Split(e.Name)
	if base == "index" {
		if dir == "" {
			return "/"
		}
		return "/" + dir
	}
	return "/" + e.Name + "/"
}

// Base returns the last path element of the entry name.
func (e Entry) Base() string {
	return path.Base(e.Name)
}

// Sorted returns the entries ordered by name for deterministic iteration.
func Sorted(entries map[string]Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
