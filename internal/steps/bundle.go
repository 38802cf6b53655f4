package steps

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// bundleNames builds the bundler entry-point map from generated modules and
// the reverse map from output name back to entry name. Output names use the
// folded artifact path with no extension, so "about" becomes "about/index"
// and the emitted file lands beside the page it hydrates.
func bundleNames(st *pipeline.State, generated map[string]string) (entryPoints, names map[string]string) {
	entryPoints = make(map[string]string, len(generated))
	names = make(map[string]string, len(generated))
	for name, module := range generated {
		out := st.Outputs.Entries[name].ArtifactPath("")
		entryPoints[out] = module
		names[out] = name
	}
	return entryPoints, names
}

// BundleServer bundles the server-target modules the pre-render step
// imports. It runs only when pre-rendering is on, and concurrently with the
// style compile; the two write to disjoint directories.
func BundleServer(d Deps) pipeline.Step {
	return pipeline.Step{
		Name:      StepBundleServer,
		ShouldRun: prerenderEnabled,
		RunsWith:  []string{StepCompileStyles},
		Run: func(ctx context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			entryPoints, names := bundleNames(st, st.Outputs.ServerEntries)
			res, err := d.Bundler.Bundle(ctx, toolchain.BundleRequest{
				EntryPoints: entryPoints,
				Outdir:      d.Project.ServerBundleDir(),
				WorkingDir:  d.Project.Root,
				Platform:    toolchain.PlatformNode,
			})
			if err != nil {
				return nil, err
			}

			modules := make(map[string]string, len(res.EntryFiles))
			for out, rel := range res.EntryFiles {
				name, ok := names[out]
				if !ok {
					continue
				}
				modules[name] = filepath.Join(d.Project.Root, filepath.FromSlash(rel))
			}
			if len(modules) != len(entryPoints) {
				return nil, fmt.Errorf("bundler reported %d of %d server modules", len(modules), len(entryPoints))
			}

			slog.Info("Bundled server modules", logfields.Count(len(modules)))
			return &pipeline.Outputs{ServerModules: modules}, nil
		},
	}
}

// BundleClient bundles the browser-target modules into the output assets
// directory under content-hashed names.
func BundleClient(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepBundleClient,
		Run: func(ctx context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			entryPoints, names := bundleNames(st, st.Outputs.ClientEntries)
			res, err := d.Bundler.Bundle(ctx, toolchain.BundleRequest{
				EntryPoints: entryPoints,
				Outdir:      filepath.Join(d.Project.OutputDir, assetsDir),
				WorkingDir:  d.Project.Root,
				Platform:    toolchain.PlatformBrowser,
				Hashed:      true,
			})
			if err != nil {
				return nil, err
			}

			assets := make(map[string]string, len(res.EntryFiles))
			for out, rel := range res.EntryFiles {
				name, ok := names[out]
				if !ok {
					continue
				}
				abs := filepath.Join(d.Project.Root, filepath.FromSlash(rel))
				relOut, err := filepath.Rel(d.Project.OutputDir, abs)
				if err != nil {
					return nil, err
				}
				assets[name] = filepath.ToSlash(relOut)
			}
			if len(assets) != len(entryPoints) {
				return nil, fmt.Errorf("bundler reported %d of %d client bundles", len(assets), len(entryPoints))
			}

			slog.Info("Bundled client assets", logfields.Count(len(assets)))
			return &pipeline.Outputs{ClientAssets: assets}, nil
		},
	}
}
