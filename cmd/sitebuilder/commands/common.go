// Package commands defines the sitebuilder CLI surface.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// timePrecision rounds durations in user-facing output.
const timePrecision = 10 * time.Millisecond

// Global carries cross-command state bound into every Run.
type Global struct{}

// CLI is the root command tree and its global flags.
type CLI struct {
	Dir     string           `short:"C" help:"Project directory." default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit."`

	Build    BuildCmd    `cmd:"" help:"Build the site into the output directory."`
	Init     InitCmd     `cmd:"" help:"Scaffold a new project."`
	Discover DiscoverCmd `cmd:"" help:"List the documents and components a build would use."`
	Preview  PreviewCmd  `cmd:"" help:"Serve the site locally and rebuild on change."`
	Builds   BuildsCmd   `cmd:"" help:"Show recent build history."`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadProject resolves the project root and loads its configuration,
// falling back to defaults when site.yaml is absent.
func loadProject(root *CLI) (string, *config.Config, error) {
	dir, err := filepath.Abs(root.Dir)
	if err != nil {
		return "", nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", nil, fmt.Errorf("project directory not found: %s", dir)
	}
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return "", nil, fmt.Errorf("load configuration: %w", err)
	}
	return dir, cfg, nil
}
