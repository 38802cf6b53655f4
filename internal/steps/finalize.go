package steps

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
)

// manifestName is the summary file written into the state directory.
const manifestName = "last-build.json"

// buildManifest records what the last successful build produced, for
// deploy tooling that inspects the output tree.
type buildManifest struct {
	BuildID    string    `json:"build_id"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      []string  `json:"pages"`
	Stylesheet string    `json:"stylesheet"`
	Assets     int       `json:"assets"`
	Static     int       `json:"static"`
	Prerender  bool      `json:"prerender"`
}

// Finalize writes the build manifest and logs the output summary.
func Finalize(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepFinalize,
		Run: func(_ context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			m := buildManifest{
				BuildID:    st.BuildID.String(),
				FinishedAt: time.Now().UTC(),
				Pages:      st.Outputs.PagesWritten,
				Stylesheet: st.Outputs.Stylesheet,
				Assets:     len(st.Outputs.ClientAssets),
				Static:     st.Outputs.StaticCopied,
				Prerender:  st.Options.Prerender,
			}
			payload, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(d.Project.StateDir, 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(filepath.Join(d.Project.StateDir, manifestName), payload, 0o644); err != nil {
				return nil, err
			}

			slog.Info("Build finalized",
				logfields.BuildID(m.BuildID),
				slog.Int("pages", len(m.Pages)),
				slog.Int("assets", m.Assets),
				slog.Int("static", m.Static))
			return nil, nil
		},
	}
}
