package steps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/linkcheck"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
)

// VerifyLinks walks the finished output and checks that internal links
// resolve to files the build wrote. External links are not fetched.
func VerifyLinks(d Deps) pipeline.Step {
	return pipeline.Step{
		Name:      StepVerifyLinks,
		ShouldRun: func(st *pipeline.State) bool { return st.Options.CheckLinks },
		Run: func(ctx context.Context, _ *pipeline.State) (*pipeline.Outputs, error) {
			broken, err := linkcheck.Verify(ctx, d.Project.OutputDir)
			if err != nil {
				return nil, err
			}
			if len(broken) > 0 {
				lines := make([]string, 0, len(broken))
				for _, b := range broken {
					lines = append(lines, b.String())
				}
				return nil, fmt.Errorf("%d broken internal links:\n%s",
					len(broken), strings.Join(lines, "\n"))
			}
			slog.Info("Internal links verified", logfields.Dir(d.Project.OutputDir))
			return nil, nil
		},
	}
}
