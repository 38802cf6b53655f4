package steps

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/fsutil"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
)

// CopyStatic copies static files into the output. The public directory
// always copies verbatim. The pages tree contributes per static mode:
// nothing for public-only, non-source files for assets, everything for all.
func CopyStatic(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepCopyStatic,
		Run: func(_ context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			copied := 0
			countAll := func(string, os.DirEntry) bool {
				copied++
				return true
			}

			if _, err := os.Stat(d.Project.PublicDir); err == nil {
				if err := fsutil.CopyDirFiltered(d.Project.PublicDir, d.Project.OutputDir, countAll); err != nil {
					return nil, err
				}
			} else {
				slog.Debug("No public directory", logfields.Dir(d.Project.PublicDir))
			}

			mode := st.Options.StaticMode
			switch mode {
			case config.StaticPublicOnly:
				// pages tree contributes nothing
			case config.StaticAll:
				if err := fsutil.CopyDirFiltered(d.Project.PagesDir, d.Project.OutputDir, countAll); err != nil {
					return nil, err
				}
			default: // assets
				keep := func(_ string, entry os.DirEntry) bool {
					if pages.SourceExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
						return false
					}
					copied++
					return true
				}
				if err := fsutil.CopyDirFiltered(d.Project.PagesDir, d.Project.OutputDir, keep); err != nil {
					return nil, err
				}
			}

			slog.Info("Copied static files",
				logfields.Count(copied), slog.String("mode", string(mode)))
			return &pipeline.Outputs{StaticCopied: copied}, nil
		},
	}
}
