package steps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// fakeBundler writes one .js file per entry point and reports it in the
// result, mimicking the driver's working-directory-relative paths. Hashed
// requests get a fixed suffix so tests can predict asset names.
type fakeBundler struct {
	mu       sync.Mutex
	requests []toolchain.BundleRequest
	err      error
}

func (f *fakeBundler) Bundle(_ context.Context, req toolchain.BundleRequest) (*toolchain.BundleResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, fmt.Errorf("%w: %v", toolchain.ErrBundleFailed, f.err)
	}

	res := &toolchain.BundleResult{EntryFiles: make(map[string]string, len(req.EntryPoints))}
	for out := range req.EntryPoints {
		name := out
		if req.Hashed {
			name += "-TESTHASH"
		}
		abs := filepath.Join(req.Outdir, filepath.FromSlash(name)+".js")
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(abs, []byte("export {}\n"), 0o644); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(req.WorkingDir, abs)
		if err != nil {
			return nil, err
		}
		res.EntryFiles[out] = filepath.ToSlash(rel)
		res.Files = append(res.Files, filepath.ToSlash(rel))
	}
	sort.Strings(res.Files)
	return res, nil
}

func (f *fakeBundler) calls() []toolchain.BundleRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toolchain.BundleRequest(nil), f.requests...)
}

const fakeCSS = "body{color:#111}\n"

type fakeStyles struct{ err error }

func (f *fakeStyles) Compile(_ context.Context, req toolchain.StyleRequest) error {
	if f.err != nil {
		return fmt.Errorf("%w: %v", toolchain.ErrStyleCompile, f.err)
	}
	return os.WriteFile(req.Output, []byte(fakeCSS), 0o644)
}

// fakeRenderer records the server module each render received and emits a
// recognizable body.
type fakeRenderer struct {
	mu      sync.Mutex
	modules map[string]string
	err     error
}

func (f *fakeRenderer) Render(_ context.Context, req toolchain.RenderRequest) (string, error) {
	if f.err != nil {
		return "", fmt.Errorf("%w: %s: %v", toolchain.ErrRenderFailed, req.Name, f.err)
	}
	f.mu.Lock()
	if f.modules == nil {
		f.modules = make(map[string]string)
	}
	f.modules[req.Name] = req.ModulePath
	f.mu.Unlock()
	return "<h1>rendered " + req.Name + "</h1>", nil
}

type fakeInstaller struct{ installs int }

func (f *fakeInstaller) Install(context.Context, string) error {
	f.installs++
	return nil
}

type fixture struct {
	root      string
	deps      Deps
	bundler   *fakeBundler
	styles    *fakeStyles
	renderer  *fakeRenderer
	installer *fakeInstaller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	f := &fixture{
		root:      root,
		bundler:   &fakeBundler{},
		styles:    &fakeStyles{},
		renderer:  &fakeRenderer{},
		installer: &fakeInstaller{},
	}
	f.deps = Deps{
		Project:       project.NewContext(root, cfg),
		Config:        cfg,
		Bundler:       f.bundler,
		Styles:        f.styles,
		Renderer:      f.renderer,
		Installer:     f.installer,
		RenderWorkers: 2,
	}
	f.write(t, "package.json", `{"name":"site","type":"module"}`)
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) writeStandardSite(t *testing.T) {
	t.Helper()
	f.write(t, "pages/index.md", "---\ntitle: Home\ndescription: The front page\n---\n\n# Home\n")
	f.write(t, "pages/about.md", "---\ntitle: About\n---\n\nAbout us.\n")
	f.write(t, "pages/docs/intro.md", "# Intro\n")
	f.write(t, "pages/unfinished.md", "---\ntitle: WIP\ndraft: true\n---\n\nNot yet.\n")
	f.write(t, "pages/docs/diagram.png", "png-bytes")
	f.write(t, "public/robots.txt", "User-agent: *\n")
}

func (f *fixture) run(t *testing.T, opts config.BuildOptions) *pipeline.State {
	t.Helper()
	if opts.StaticMode == "" {
		opts.StaticMode = config.StaticAssets
	}
	st := pipeline.NewState(opts)
	r := &pipeline.Runner{}
	_ = r.Run(t.Context(), st, Build(f.deps))
	return st
}

func (f *fixture) output(rel string) string {
	return filepath.Join(f.root, "dist", filepath.FromSlash(rel))
}

func readOutput(t *testing.T, f *fixture, rel string) string {
	t.Helper()
	content, err := os.ReadFile(f.output(rel))
	require.NoError(t, err, "expected output file %s", rel)
	return string(content)
}

func TestFullBuildWithPrerender(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)

	st := f.run(t, config.BuildOptions{Prerender: true})
	require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)

	// Drafts are excluded everywhere.
	require.ElementsMatch(t, []string{"index", "about", "docs/intro"}, entryNames(st))

	// Folded artifact paths, one directory-style page per document.
	require.Equal(t,
		[]string{"about/index.html", "docs/intro/index.html", "index.html"},
		st.Outputs.PagesWritten)

	home := readOutput(t, f, "index.html")
	require.Contains(t, home, "<title>Home</title>")
	require.Contains(t, home, `<meta name="description" content="The front page" />`)
	require.Contains(t, home, `<html lang="en">`)
	require.Contains(t, home, "<h1>rendered index</h1>")

	sum := sha256.Sum256([]byte(fakeCSS))
	wantCSS := "assets/site-" + hex.EncodeToString(sum[:])[:styleHashLen] + ".css"
	require.Equal(t, wantCSS, st.Outputs.Stylesheet)
	require.Contains(t, home, `href="/`+wantCSS+`"`)
	require.FileExists(t, f.output(wantCSS))

	require.Contains(t, home, `src="/assets/index-TESTHASH.js"`)
	about := readOutput(t, f, "about/index.html")
	require.Contains(t, about, `src="/assets/about/index-TESTHASH.js"`)
	require.Contains(t, about, "<h1>rendered about</h1>")

	// Untitled pages fall back to the site title.
	intro := readOutput(t, f, "docs/intro/index.html")
	require.Contains(t, intro, "<title>My Site</title>")

	// Static files: public tree plus page-adjacent assets, sources excluded.
	require.Equal(t, "User-agent: *\n", readOutput(t, f, "robots.txt"))
	require.Equal(t, "png-bytes", readOutput(t, f, "docs/diagram.png"))
	require.NoFileExists(t, f.output("about.md"))
	require.Equal(t, 2, st.Outputs.StaticCopied)

	// Each render received the matching server module.
	require.Equal(t, st.Outputs.ServerModules, f.renderer.modules)
	for _, p := range st.Outputs.ServerModules {
		require.FileExists(t, p)
	}

	// One node bundle, one hashed browser bundle.
	calls := f.bundler.calls()
	require.Len(t, calls, 2)
	require.Equal(t, toolchain.PlatformNode, calls[0].Platform)
	require.False(t, calls[0].Hashed)
	require.Equal(t, toolchain.PlatformBrowser, calls[1].Platform)
	require.True(t, calls[1].Hashed)

	require.Equal(t, 1, f.installer.installs)
	require.FileExists(t, filepath.Join(f.root, ".sitebuilder", manifestName))

	for _, step := range []string{
		StepInstallDeps, StepResetOutput, StepGenerateEntries, StepCompileStyles,
		StepBundleServer, StepBundleClient, StepPrerender, StepAssembleHTML,
		StepCopyStatic, StepFinalize,
	} {
		require.Contains(t, st.Timings, step)
	}
	require.NotContains(t, st.Timings, StepVerifyLinks)
}

func TestBuildWithoutPrerender(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)

	st := f.run(t, config.BuildOptions{Prerender: false})
	require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)

	require.NotContains(t, st.Timings, StepBundleServer)
	require.NotContains(t, st.Timings, StepPrerender)
	require.Empty(t, st.Outputs.ServerModules)
	require.Empty(t, st.Outputs.Rendered)

	// The shell ships an empty root for the client bundle to fill.
	home := readOutput(t, f, "index.html")
	require.Contains(t, home, `<div id="root"></div>`)
	require.Contains(t, home, `src="/assets/index-TESTHASH.js"`)

	calls := f.bundler.calls()
	require.Len(t, calls, 1)
	require.Equal(t, toolchain.PlatformBrowser, calls[0].Platform)
}

func TestBuildFailsWithoutDocuments(t *testing.T) {
	f := newFixture(t)
	f.write(t, "pages/hero.png", "not a document")

	st := f.run(t, config.BuildOptions{Prerender: true})
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.Equal(t, StepGenerateEntries, st.FailedStep)
	require.ErrorIs(t, st.Err, ErrNoDocuments)
	require.NotContains(t, st.Timings, StepCompileStyles)
}

func TestBuildFailsWhenEverythingIsDraft(t *testing.T) {
	f := newFixture(t)
	f.write(t, "pages/index.md", "---\ndraft: true\n---\n\nSoon.\n")

	st := f.run(t, config.BuildOptions{Prerender: true})
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.ErrorIs(t, st.Err, ErrNoDocuments)
	require.Contains(t, st.Err.Error(), "drafts")
}

func TestBundlerFailureStopsTheBuild(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)
	f.bundler.err = errors.New("syntax error in jsx")

	st := f.run(t, config.BuildOptions{Prerender: true})
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.Equal(t, StepBundleServer, st.FailedStep)
	require.ErrorIs(t, st.Err, toolchain.ErrBundleFailed)

	// Nothing downstream ran.
	require.NotContains(t, st.Timings, StepBundleClient)
	require.NotContains(t, st.Timings, StepAssembleHTML)
	require.NoFileExists(t, f.output("index.html"))
}

func TestRenderFailureReportsEntry(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)
	f.renderer.err = errors.New("component threw")

	st := f.run(t, config.BuildOptions{Prerender: true})
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.Equal(t, StepPrerender, st.FailedStep)
	require.ErrorIs(t, st.Err, toolchain.ErrRenderFailed)
}

func TestInstallSkippedWhenModulesPresent(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)
	f.write(t, "node_modules/.keep", "")

	st := f.run(t, config.BuildOptions{Prerender: false})
	require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)
	require.Zero(t, f.installer.installs)
}

func TestInstallFailsWithoutPackageJSON(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.root, "package.json")))

	st := f.run(t, config.BuildOptions{Prerender: false})
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.Equal(t, StepInstallDeps, st.FailedStep)
	require.ErrorIs(t, st.Err, ErrNoPackageJSON)
}

func TestStaticModes(t *testing.T) {
	t.Run("public-only", func(t *testing.T) {
		f := newFixture(t)
		f.writeStandardSite(t)
		st := f.run(t, config.BuildOptions{StaticMode: config.StaticPublicOnly})
		require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)
		require.FileExists(t, f.output("robots.txt"))
		require.NoFileExists(t, f.output("docs/diagram.png"))
		require.Equal(t, 1, st.Outputs.StaticCopied)
	})

	t.Run("assets", func(t *testing.T) {
		f := newFixture(t)
		f.writeStandardSite(t)
		st := f.run(t, config.BuildOptions{StaticMode: config.StaticAssets})
		require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)
		require.FileExists(t, f.output("robots.txt"))
		require.FileExists(t, f.output("docs/diagram.png"))
		require.NoFileExists(t, f.output("about.md"))
		require.Equal(t, 2, st.Outputs.StaticCopied)
	})

	t.Run("all", func(t *testing.T) {
		f := newFixture(t)
		f.writeStandardSite(t)
		st := f.run(t, config.BuildOptions{StaticMode: config.StaticAll})
		require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)
		require.FileExists(t, f.output("docs/diagram.png"))
		require.FileExists(t, f.output("about.md"))
		// public robots.txt + png + 4 markdown sources
		require.Equal(t, 6, st.Outputs.StaticCopied)
	})
}

func entryNames(st *pipeline.State) []string {
	names := make([]string, 0, len(st.Outputs.Entries))
	for name := range st.Outputs.Entries {
		names = append(names, name)
	}
	return names
}

func TestVerifyLinksFailsTheBuild(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)
	// A page-adjacent HTML asset with a dead link rides along via static
	// copy and must fail verification.
	f.write(t, "pages/legacy.html", `<a href="/definitely/gone/">x</a>`)

	st := f.run(t, config.BuildOptions{Prerender: true, CheckLinks: true})
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.Equal(t, StepVerifyLinks, st.FailedStep)
	require.Contains(t, st.Err.Error(), "/definitely/gone/")
}

func TestVerifyLinksPassesOnCleanOutput(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)

	st := f.run(t, config.BuildOptions{Prerender: true, CheckLinks: true})
	require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)
	require.Contains(t, st.Timings, StepVerifyLinks)
}

func TestCanceledBuildMarksFailure(t *testing.T) {
	f := newFixture(t)
	f.writeStandardSite(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	st := pipeline.NewState(config.BuildOptions{Prerender: false, StaticMode: config.StaticAssets})
	r := &pipeline.Runner{}
	err := r.Run(ctx, st, Build(f.deps))
	require.Error(t, err)
	require.Equal(t, pipeline.PhaseFailed, st.Phase)
	require.ErrorIs(t, st.Err, context.Canceled)
}

func TestGeneratedBootstrapContents(t *testing.T) {
	f := newFixture(t)
	f.write(t, "pages/index.md", "# Home\n")
	f.write(t, "src/components/Badge.jsx", "export default function Badge(){}\n")

	st := f.run(t, config.BuildOptions{Prerender: true})
	require.Equal(t, pipeline.PhaseCompleted, st.Phase, "build error: %v", st.Err)

	client, err := os.ReadFile(st.Outputs.ClientEntries["index"])
	require.NoError(t, err)
	text := string(client)
	require.Contains(t, text, "PageWrapper")
	require.Contains(t, text, "Badge")
	require.Contains(t, text, "index.md")
	require.True(t, strings.Contains(text, "...(PageWrapper.components ?? {})"),
		"wrapper defaults must be spread before injected components:\n%s", text)
}
