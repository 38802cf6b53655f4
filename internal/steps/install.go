package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
)

// ErrNoPackageJSON means the project has no JavaScript manifest to install
// from.
var ErrNoPackageJSON = errors.New("no package.json found")

// InstallDeps makes sure the JavaScript toolchain is present. A project with
// node_modules already in place skips the install, keeping rebuilds fast.
func InstallDeps(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepInstallDeps,
		Run: func(ctx context.Context, _ *pipeline.State) (*pipeline.Outputs, error) {
			root := d.Project.Root
			if _, err := os.Stat(filepath.Join(root, "package.json")); err != nil {
				return nil, fmt.Errorf("%w in %s; run `sitebuilder init` first", ErrNoPackageJSON, root)
			}
			if _, err := os.Stat(filepath.Join(root, "node_modules")); err == nil {
				slog.Debug("Dependencies already installed", logfields.Dir(root))
				return nil, nil
			}
			return nil, d.Installer.Install(ctx, root)
		},
	}
}
