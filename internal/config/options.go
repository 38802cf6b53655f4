package config

// StaticMode selects how much of the project is copied verbatim into the
// output directory.
type StaticMode string

const (
	// StaticPublicOnly copies only the public directory.
	StaticPublicOnly StaticMode = "public-only"
	// StaticAssets additionally copies non-source files from the pages
	// tree (images and other assets referenced next to documents).
	StaticAssets StaticMode = "assets"
	// StaticAll copies the pages tree verbatim, sources included.
	StaticAll StaticMode = "all"
)

// Valid reports whether the mode is one of the defined values.
func (m StaticMode) Valid() bool {
	switch m {
	case StaticPublicOnly, StaticAssets, StaticAll:
		return true
	}
	return false
}

// BuildOptions is the options struct the pipeline consumes. The command
// layer produces it from configuration plus flags.
type BuildOptions struct {
	Prerender  bool
	StaticMode StaticMode
	CheckLinks bool
}
