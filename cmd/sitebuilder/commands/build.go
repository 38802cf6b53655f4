package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/builder"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory, overriding the configuration."`
	NoPrerender bool   `name:"no-prerender" help:"Skip server rendering; pages hydrate from a blank shell."`
	StaticMode  string `name:"static-mode" help:"Static copy mode: public-only, assets or all." enum:",public-only,assets,all" default:""`
	CheckLinks  bool   `name:"check-links" help:"Verify internal links after the build."`
	Workers     int    `name:"workers" help:"Pre-render worker count (default: one per CPU)."`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	dir, cfg, err := loadProject(root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Build.Output = b.Output
	}

	opts := cfg.Options()
	if b.NoPrerender {
		opts.Prerender = false
	}
	if b.StaticMode != "" {
		opts.StaticMode = config.StaticMode(b.StaticMode)
	}
	if b.CheckLinks {
		opts.CheckLinks = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bld := &builder.Builder{
		Root:          dir,
		Config:        cfg,
		History:       openHistory(dir),
		RenderWorkers: b.Workers,
	}
	if bld.History != nil {
		defer func() { _ = bld.History.Close() }()
	}

	st, err := bld.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Built %d pages into %s in %s\n",
		len(st.Outputs.PagesWritten), cfg.Build.Output, st.Duration().Round(timePrecision))
	return nil
}

// openHistory opens the build journal; a journal problem is never a reason
// to refuse a build.
func openHistory(dir string) history.Store {
	store, err := history.Open(filepath.Join(dir, project.StateDirName))
	if err != nil {
		slog.Warn("Build history unavailable", logfields.Error(err))
		return nil
	}
	return store
}
