package steps

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// documentData feeds the document shell template.
type documentData struct {
	Lang        string
	Title       string
	Description string
	Stylesheet  string
	Script      string
	Content     template.HTML
}

// AssembleHTML writes one HTML page per entry at its folded artifact path.
// With pre-rendering off the root element ships empty and the client bundle
// renders on load.
func AssembleHTML(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepAssembleHTML,
		Run: func(ctx context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			shellPath, err := d.Project.ResolveWithFallback(
				[]string{path.Join(filepath.ToSlash(d.Config.Paths.Templates), "document.html")},
				scaffold.TemplateDocumentShell,
			)
			if err != nil {
				return nil, err
			}
			shell, err := template.ParseFiles(shellPath)
			if err != nil {
				return nil, fmt.Errorf("parse document shell %s: %w", shellPath, err)
			}

			written := make([]string, 0, len(st.Outputs.Entries))
			for _, e := range pages.Sorted(st.Outputs.Entries) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				source, err := os.ReadFile(e.Path)
				if err != nil {
					return nil, err
				}
				fields, _, err := frontmatter.Parse(source)
				if err != nil {
					return nil, fmt.Errorf("frontmatter of %s: %w", e.Path, err)
				}

				data := documentData{
					Lang:        d.Config.Site.Lang,
					Title:       d.Config.Site.Title,
					Description: d.Config.Site.Description,
					Stylesheet:  "/" + st.Outputs.Stylesheet,
					Script:      "/" + st.Outputs.ClientAssets[e.Name],
					Content:     template.HTML(st.Outputs.Rendered[e.Name]),
				}
				if fields.Title != "" {
					data.Title = fields.Title
				}
				if fields.Description != "" {
					data.Description = fields.Description
				}

				var buf bytes.Buffer
				if err := shell.Execute(&buf, data); err != nil {
					return nil, fmt.Errorf("render document shell for %s: %w", e.Name, err)
				}

				rel := e.ArtifactPath(".html")
				target := filepath.Join(d.Project.OutputDir, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return nil, err
				}
				if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
					return nil, err
				}
				written = append(written, rel)
			}

			slog.Info("Assembled pages", logfields.Count(len(written)))
			return &pipeline.Outputs{PagesWritten: written}, nil
		},
	}
}
