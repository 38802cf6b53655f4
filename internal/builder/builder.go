// Package builder wires configuration, project context, toolchain adapters
// and the step list into one build invocation.
package builder

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
	"git.home.luguber.info/inful/sitebuilder/internal/steps"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// Builder runs builds for one project. Zero-value tool fields resolve from
// the configuration; tests inject fakes through them. A Builder is reused
// across watch-mode rebuilds.
type Builder struct {
	Root   string
	Config *config.Config

	// Recorder receives build metrics. Nil disables recording.
	Recorder metrics.Recorder
	// History receives one record per finished build. Nil disables the
	// journal; journal failures never fail the build.
	History history.Store
	// RenderWorkers caps the pre-render pool. Zero sizes it to the host.
	RenderWorkers int

	Bundler   toolchain.Bundler
	Styles    toolchain.StyleCompiler
	Renderer  toolchain.Renderer
	Installer toolchain.Installer
}

// Run executes one full build and returns its final state. The returned
// error is the state's failure, if any; callers that want step-level detail
// read the state.
func (b *Builder) Run(ctx context.Context, opts config.BuildOptions) (*pipeline.State, error) {
	if err := b.Config.Validate(); err != nil {
		return nil, err
	}

	pctx := project.NewContext(b.Root, b.Config)
	deps, err := b.deps(pctx)
	if err != nil {
		return nil, err
	}

	st := pipeline.NewState(opts)
	slog.Info("Starting build",
		logfields.BuildID(st.BuildID.String()),
		logfields.Dir(b.Root),
		slog.Bool("prerender", opts.Prerender),
		slog.String("static_mode", string(opts.StaticMode)))

	runner := &pipeline.Runner{Observer: pipeline.RecorderObserver{Recorder: b.Recorder}}
	err = runner.Run(ctx, st, steps.Build(deps))
	// Canceled builds still get journaled.
	b.journal(context.WithoutCancel(ctx), st)
	return st, err
}

// deps resolves the toolchain, preferring injected implementations.
func (b *Builder) deps(pctx *project.Context) (steps.Deps, error) {
	d := steps.Deps{
		Project:       pctx,
		Config:        b.Config,
		Bundler:       b.Bundler,
		Styles:        b.Styles,
		Renderer:      b.Renderer,
		Installer:     b.Installer,
		Recorder:      b.Recorder,
		RenderWorkers: b.RenderWorkers,
	}

	if d.Bundler == nil {
		d.Bundler = &scriptBundler{
			node: b.tool(b.Config.Tools.Node),
			resolve: func() (string, error) {
				return pctx.ResolveWithFallback(
					[]string{"scripts/bundler.mjs"}, scaffold.TemplateBundlerScript)
			},
		}
	}
	if d.Styles == nil {
		d.Styles = toolchain.NewTailwindCompiler(b.tool(b.Config.Tools.Tailwind))
	}
	if d.Installer == nil {
		d.Installer = toolchain.NewNPMInstaller(b.tool(b.Config.Tools.NPM))
	}
	if d.Renderer == nil {
		if argv := b.Config.Tools.Renderer; len(argv) > 0 {
			resolved := append([]string(nil), argv...)
			resolved[0] = b.tool(resolved[0])
			r, err := toolchain.NewCommandRenderer(resolved, b.Root)
			if err != nil {
				return steps.Deps{}, err
			}
			d.Renderer = r
		} else {
			d.Renderer = toolchain.NewGoldmarkRenderer()
		}
	}
	return d, nil
}

// scriptBundler resolves the driver script per invocation. The reset step
// wipes the cache the embedded fallback materializes into, so a path
// resolved before the pipeline runs could point at a deleted file.
type scriptBundler struct {
	node    string
	resolve func() (string, error)
}

func (s *scriptBundler) Bundle(ctx context.Context, req toolchain.BundleRequest) (*toolchain.BundleResult, error) {
	script, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return toolchain.NewNodeBundler(s.node, script).Bundle(ctx, req)
}

// tool turns a configured command into something exec can find. Bare names
// go through PATH lookup as-is; anything with a path separator is taken
// relative to the project root, since the subprocess working directory does
// not affect how exec resolves the binary.
func (b *Builder) tool(command string) string {
	if command == "" || filepath.IsAbs(command) {
		return command
	}
	if !strings.ContainsAny(command, `/\`) {
		return command
	}
	return filepath.Join(b.Root, command)
}

// journal appends the finished build to the history store.
func (b *Builder) journal(ctx context.Context, st *pipeline.State) {
	if b.History == nil {
		return
	}
	rec := history.Record{
		BuildID:    st.BuildID.String(),
		StartedAt:  st.StartedAt,
		Duration:   st.Duration(),
		Phase:      string(st.Phase),
		FailedStep: st.FailedStep,
		Pages:      len(st.Outputs.PagesWritten),
		Prerender:  st.Options.Prerender,
		StaticMode: string(st.Options.StaticMode),
	}
	if st.Err != nil {
		rec.Error = st.Err.Error()
	}
	if err := b.History.Append(ctx, rec); err != nil {
		slog.Warn("Could not record build history", logfields.Error(err))
	}
}
