package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/builder"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Addr        string        `short:"a" default:":8080" help:"Listen address."`
	Debounce    time.Duration `default:"300ms" help:"Quiet period after a change before rebuilding."`
	Metrics     bool          `help:"Expose Prometheus metrics on /-/metrics."`
	NoPrerender bool          `name:"no-prerender" help:"Skip server rendering; pages hydrate from a blank shell."`
	Workers     int           `name:"workers" help:"Pre-render worker count (default: one per CPU)."`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	dir, cfg, err := loadProject(root)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	if p.NoPrerender {
		opts.Prerender = false
	}
	// Preview rebuilds on every save; link verification stays a build/CI
	// concern.
	opts.CheckLinks = false

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bld := &builder.Builder{
		Root:          dir,
		Config:        cfg,
		History:       openHistory(dir),
		RenderWorkers: p.Workers,
	}
	if bld.History != nil {
		defer func() { _ = bld.History.Close() }()
	}

	var registry *prom.Registry
	if p.Metrics {
		registry = prom.NewRegistry()
		bld.Recorder = metrics.NewPrometheusRecorder(registry)
	}

	srv := &preview.Server{
		Builder:         bld,
		Options:         opts,
		Addr:            p.Addr,
		Debounce:        p.Debounce,
		MetricsRegistry: registry,
	}
	return srv.Run(ctx)
}
