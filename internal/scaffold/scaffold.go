// Package scaffold owns the embedded default project tree. The same files
// serve two purposes: `sitebuilder init` materializes them into a fresh
// project, and the build's fallback resolver materializes single files into
// the private cache when a project supplies no override.
package scaffold

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

//go:embed templates
var embedded embed.FS

const embedRoot = "templates"

// Tier groups scaffold files that are included or excluded together.
type Tier string

const (
	// TierBase files are written for every new project.
	TierBase Tier = "base"
	// TierExtended files are example content, written only with --examples.
	TierExtended Tier = "extended"
	// TierVariant files are minimal-mode substitutes. They are never
	// written at their own path; the override map points at them.
	TierVariant Tier = "variant"
)

// TemplateID names an embedded default a build can resolve individually.
type TemplateID string

const (
	TemplateStyleEntry    TemplateID = "style-entry"
	TemplateClientEntry   TemplateID = "entry-client"
	TemplateServerEntry   TemplateID = "entry-server"
	TemplatePageWrapper   TemplateID = "page-wrapper"
	TemplateCodeBlock     TemplateID = "code-block"
	TemplateCallout       TemplateID = "callout"
	TemplateDocumentShell TemplateID = "document-shell"
	TemplateBundlerScript TemplateID = "bundler-script"
)

// File describes one embedded scaffold file.
type File struct {
	// Path is the location inside the embedded tree, relative to the root.
	Path string
	// Target is the project-relative path the file is written to. Defaults
	// to Path; differs for files that cannot be embedded verbatim
	// (gitignore -> .gitignore).
	Target string
	Tier   Tier
}

// manifest assigns every embedded file to exactly one tier. A file present
// in the tree but missing here is logged and skipped by Materialize.
var manifest = []File{
	{Path: "site.yaml", Tier: TierBase},
	{Path: "package.json", Tier: TierBase},
	{Path: "gitignore", Target: ".gitignore", Tier: TierBase},
	{Path: "pages/index.md", Tier: TierBase},
	{Path: "src/entry/client.jsx.tmpl", Tier: TierBase},
	{Path: "src/entry/server.jsx.tmpl", Tier: TierBase},
	{Path: "src/template/PageWrapper.jsx", Tier: TierBase},
	{Path: "src/template/CodeBlock.jsx", Tier: TierBase},
	{Path: "src/template/Callout.jsx", Tier: TierBase},
	{Path: "styles/site.css", Tier: TierBase},
	{Path: "templates/document.html", Tier: TierBase},
	{Path: "scripts/bundler.mjs", Tier: TierBase},

	{Path: "pages/docs/index.md", Tier: TierExtended},
	{Path: "pages/docs/getting-started.mdx", Tier: TierExtended},
	{Path: "src/components/FeatureList.jsx", Tier: TierExtended},

	{Path: "minimal/PageWrapper.jsx", Tier: TierVariant},
	{Path: "minimal/site.css", Tier: TierVariant},
}

// templatePaths maps resolvable template ids to embedded paths. The target
// path doubles as the location the fallback resolver materializes to, so
// relative imports between defaults keep working.
var templatePaths = map[TemplateID]string{
	TemplateStyleEntry:    "styles/site.css",
	TemplateClientEntry:   "src/entry/client.jsx.tmpl",
	TemplateServerEntry:   "src/entry/server.jsx.tmpl",
	TemplatePageWrapper:   "src/template/PageWrapper.jsx",
	TemplateCodeBlock:     "src/template/CodeBlock.jsx",
	TemplateCallout:       "src/template/Callout.jsx",
	TemplateDocumentShell: "templates/document.html",
	TemplateBundlerScript: "scripts/bundler.mjs",
}

// minimalSkip lists base files superseded by minimal variants or unwanted
// in a minimal project.
var minimalSkip = map[string]bool{
	"pages/index.md":                 true,
	"src/components/FeatureList.jsx": true,
}

// minimalOverrides substitutes variant content at the original path so
// consuming code never needs mode awareness.
var minimalOverrides = map[string]string{
	"src/template/PageWrapper.jsx": "minimal/PageWrapper.jsx",
	"styles/site.css":              "minimal/site.css",
}

// BuiltinComponents are the component names back-filled from embedded
// defaults when the project does not define them.
var BuiltinComponents = map[string]TemplateID{
	"PageWrapper": TemplatePageWrapper,
	"CodeBlock":   TemplateCodeBlock,
	"Callout":     TemplateCallout,
}

// DefaultComponentsDir is the project-relative directory holding the
// built-in component defaults, inside both the embedded tree and a
// materialized cache copy.
const DefaultComponentsDir = "src/template"

// Options controls which tiers Materialize writes.
type Options struct {
	Examples bool // include the extended tier
	Minimal  bool // minimal variants, empty pages dir
	Force    bool // overwrite existing files
}

// Default returns the embedded content for a template id.
func Default(id TemplateID) ([]byte, error) {
	p, ok := templatePaths[id]
	if !ok {
		return nil, fmt.Errorf("unknown template id %q", id)
	}
	return embedded.ReadFile(embedRoot + "/" + p)
}

// DefaultPath returns the project-relative path an embedded default for id
// lives at. The fallback resolver mirrors this path under the cache.
func DefaultPath(id TemplateID) (string, error) {
	p, ok := templatePaths[id]
	if !ok {
		return "", fmt.Errorf("unknown template id %q", id)
	}
	return p, nil
}

// Read returns the embedded content at a tree-relative path.
func Read(path string) ([]byte, error) {
	return embedded.ReadFile(embedRoot + "/" + path)
}

// TreeFiles returns the manifest entries whose target path is under prefix,
// excluding variants. Used to materialize whole subtrees (the default
// component directory) into the cache.
func TreeFiles(prefix string) []File {
	var out []File
	for _, f := range manifest {
		if f.Tier == TierVariant {
			continue
		}
		target := f.target()
		if target == prefix || strings.HasPrefix(target, prefix+"/") {
			out = append(out, f)
		}
	}
	return out
}

func (f File) target() string {
	if f.Target != "" {
		return f.Target
	}
	return f.Path
}

// Materialize writes the scaffold into dir per the options and returns the
// project-relative paths actually written. Existing files are skipped
// unless Force is set; per path, project file > override-for-mode > plain
// default, and never more than one source writes.
func Materialize(dir string, opts Options) ([]string, error) {
	known := make(map[string]File, len(manifest))
	for _, f := range manifest {
		known[f.Path] = f
	}

	// Embedded files the manifest does not know are logged and skipped,
	// never written.
	if err := checkManifestCoverage(known); err != nil {
		return nil, err
	}

	var written []string
	for _, f := range manifest {
		if f.Tier == TierVariant {
			continue
		}
		if f.Tier == TierExtended && (!opts.Examples || opts.Minimal) {
			continue
		}
		if opts.Minimal && minimalSkip[f.Path] {
			continue
		}

		source := f.Path
		if opts.Minimal {
			if variant, ok := minimalOverrides[f.Path]; ok {
				source = variant
			}
		}

		target := filepath.Join(dir, filepath.FromSlash(f.target()))
		if !opts.Force {
			if _, err := os.Stat(target); err == nil {
				slog.Debug("Scaffold file exists, skipping", logfields.File(f.target()))
				continue
			}
		}

		content, err := embedded.ReadFile(embedRoot + "/" + source)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", source, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", target, err)
		}
		written = append(written, f.target())
	}

	// Minimal projects start from an empty pages directory.
	if opts.Minimal {
		if err := os.MkdirAll(filepath.Join(dir, "pages"), 0o755); err != nil {
			return nil, err
		}
	}

	return written, nil
}

func checkManifestCoverage(known map[string]File) error {
	return walkEmbedded(embedRoot, func(rel string) {
		if _, ok := known[rel]; !ok {
			slog.Warn("Embedded scaffold file not in manifest, skipping", logfields.File(rel))
		}
	})
}

func walkEmbedded(dir string, visit func(rel string)) error {
	entries, err := embedded.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		full := dir + "/" + e.Name()
		if e.IsDir() {
			if err := walkEmbedded(full, visit); err != nil {
				return err
			}
			continue
		}
		visit(full[len(embedRoot)+1:])
	}
	return nil
}
