package steps

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
)

// ResetOutput clears the output directory and the private cache and drops
// the context caches so the build re-discovers entries and components.
// Idempotent; the build history next to the cache survives.
func ResetOutput(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepResetOutput,
		Run: func(context.Context, *pipeline.State) (*pipeline.Outputs, error) {
			if err := d.Project.ResetOutput(); err != nil {
				return nil, err
			}
			if err := d.Project.ResetCache(); err != nil {
				return nil, err
			}
			d.Project.ClearCaches()
			return nil, nil
		},
	}
}
