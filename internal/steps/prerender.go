package steps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// Prerender renders every document to HTML through the configured renderer.
// Renders run on a bounded pool; the first failure cancels the rest.
func Prerender(d Deps) pipeline.Step {
	return pipeline.Step{
		Name:      StepPrerender,
		ShouldRun: prerenderEnabled,
		Run: func(ctx context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			workers := d.renderWorkers()
			d.recorder().SetRenderConcurrency(workers)

			rendered := make(map[string]string, len(st.Outputs.Entries))
			var mu sync.Mutex

			p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
			for _, e := range pages.Sorted(st.Outputs.Entries) {
				p.Go(func(ctx context.Context) error {
					source, err := os.ReadFile(e.Path)
					if err != nil {
						return fmt.Errorf("read %s: %w", e.Path, err)
					}
					start := time.Now()
					html, err := d.Renderer.Render(ctx, toolchain.RenderRequest{
						Name:       e.Name,
						SourcePath: e.Path,
						Source:     source,
						ModulePath: st.Outputs.ServerModules[e.Name],
					})
					d.recorder().ObserveRenderDuration(time.Since(start), err == nil)
					if err != nil {
						return err
					}
					mu.Lock()
					rendered[e.Name] = html
					mu.Unlock()
					return nil
				})
			}
			if err := p.Wait(); err != nil {
				return nil, err
			}

			slog.Info("Pre-rendered documents",
				logfields.Count(len(rendered)), slog.Int("workers", workers))
			return &pipeline.Outputs{Rendered: rendered}, nil
		},
	}
}
