// Package steps implements the bodies of the build pipeline. Each
// constructor closes over the shared dependencies and returns a
// pipeline.Step; Build assembles the canonical ordered list.
package steps

import (
	"runtime"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// assetsDir is the output subdirectory for hashed bundles and stylesheets.
const assetsDir = "assets"

// Canonical step names.
const (
	StepInstallDeps     = "install_deps"
	StepResetOutput     = "reset_output"
	StepGenerateEntries = "generate_entries"
	StepCompileStyles   = "compile_styles"
	StepBundleServer    = "bundle_server"
	StepBundleClient    = "bundle_client"
	StepPrerender       = "prerender"
	StepAssembleHTML    = "assemble_html"
	StepCopyStatic      = "copy_static"
	StepFinalize        = "finalize"
	StepVerifyLinks     = "verify_links"
)

// Deps carries the shared collaborators step constructors close over.
type Deps struct {
	Project   *project.Context
	Config    *config.Config
	Bundler   toolchain.Bundler
	Styles    toolchain.StyleCompiler
	Renderer  toolchain.Renderer
	Installer toolchain.Installer
	Recorder  metrics.Recorder
	// RenderWorkers caps the pre-render pool. Zero means one worker per
	// logical CPU.
	RenderWorkers int
}

func (d Deps) recorder() metrics.Recorder {
	if d.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return d.Recorder
}

func (d Deps) renderWorkers() int {
	if d.RenderWorkers > 0 {
		return d.RenderWorkers
	}
	return max(1, runtime.GOMAXPROCS(0))
}

// Build returns the standard step list in execution order. The style and
// server-bundle steps declare each other concurrent; the runner groups them
// when both are due to run.
func Build(d Deps) []pipeline.Step {
	return []pipeline.Step{
		InstallDeps(d),
		ResetOutput(d),
		GenerateEntries(d),
		CompileStyles(d),
		BundleServer(d),
		BundleClient(d),
		Prerender(d),
		AssembleHTML(d),
		CopyStatic(d),
		Finalize(d),
		VerifyLinks(d),
	}
}

func prerenderEnabled(st *pipeline.State) bool { return st.Options.Prerender }
