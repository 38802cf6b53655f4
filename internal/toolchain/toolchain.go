// Package toolchain wraps the external tools a build shells out to: the
// JavaScript bundler, the style compiler, the document renderer, and the
// package manager. Each tool sits behind a small interface so the build
// steps stay testable without Node installed.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"strings"
)

// Sentinel errors classify tool failures. The tool's own diagnostic output
// is appended verbatim so the user sees what the tool saw.
var (
	ErrBundleFailed  = errors.New("bundler failed")
	ErrStyleCompile  = errors.New("style compiler failed")
	ErrRenderFailed  = errors.New("render failed")
	ErrInstallFailed = errors.New("dependency install failed")
)

// Platform selects the bundling target.
type Platform string

const (
	PlatformBrowser Platform = "browser"
	PlatformNode    Platform = "node"
)

// BundleRequest describes one bundler invocation.
type BundleRequest struct {
	// EntryPoints maps slash-separated output names (no extension) to the
	// source files to bundle. The bundler writes each entry to
	// <Outdir>/<name>.js, with a content hash spliced in when Hashed is set.
	EntryPoints map[string]string
	// Outdir receives the bundled files.
	Outdir string
	// WorkingDir is the project root. Module resolution happens against its
	// node_modules, and result paths are reported relative to it.
	WorkingDir string
	Platform   Platform
	// Hashed appends a content hash to entry file names and enables
	// minification.
	Hashed bool
}

// BundleResult reports what a successful bundler run produced. All paths are
// slash-separated and relative to the request's working directory.
type BundleResult struct {
	// EntryFiles maps each requested output name to the file the bundler
	// wrote for it.
	EntryFiles map[string]string
	// Files lists every written file, chunks and assets included.
	Files []string
}

// Bundler turns entry-point modules into bundled JavaScript.
type Bundler interface {
	Bundle(ctx context.Context, req BundleRequest) (*BundleResult, error)
}

// StyleRequest describes one style compilation.
type StyleRequest struct {
	Input      string // entry stylesheet
	Output     string // compiled CSS destination
	WorkingDir string
	Minify     bool
}

// StyleCompiler compiles the entry stylesheet into final CSS.
type StyleCompiler interface {
	Compile(ctx context.Context, req StyleRequest) error
}

// RenderRequest identifies one document to pre-render.
type RenderRequest struct {
	Name       string // entry name, for diagnostics
	SourcePath string // the document on disk
	Source     []byte // document content, frontmatter included
	ModulePath string // server-built module for the document, empty if none
}

// Renderer produces the pre-rendered HTML body of one document.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

// Installer makes sure JavaScript dependencies are present.
type Installer interface {
	Install(ctx context.Context, dir string) error
}

// toolOutput merges captured stdout and stderr for error reporting. Tools
// write diagnostics to either stream.
func toolOutput(stdout, stderr *bytes.Buffer) string {
	out := strings.TrimSpace(stdout.String())
	errOut := strings.TrimSpace(stderr.String())
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}
