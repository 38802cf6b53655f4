package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// ErrNoDocuments aborts the build when there is nothing to publish.
var ErrNoDocuments = errors.New("no documents found")

// wrapperName is the component every document is wrapped in.
const wrapperName = "PageWrapper"

// bootstrapData feeds the client and server bootstrap templates.
type bootstrapData struct {
	Name             string
	Route            string
	WrapperImport    string
	SourceImport     string
	ComponentImports string
	ComponentsObject string
}

// GenerateEntries discovers documents, drops drafts, and renders one
// bootstrap module per document per bundle target. Both targets apply the
// same artifact folding, so client bundle, server bundle and final HTML
// agree on location.
func GenerateEntries(d Deps) pipeline.Step {
	return pipeline.Step{
		Name: StepGenerateEntries,
		Run: func(ctx context.Context, st *pipeline.State) (*pipeline.Outputs, error) {
			discovered, err := d.Project.Entries()
			if err != nil {
				return nil, err
			}
			if len(discovered) == 0 {
				return nil, fmt.Errorf("%w under %s; create pages/index.md or run `sitebuilder init --examples`",
					ErrNoDocuments, d.Project.PagesDir)
			}

			entries, err := withoutDrafts(discovered)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				return nil, fmt.Errorf("%w: all %d documents under %s are drafts",
					ErrNoDocuments, len(discovered), d.Project.PagesDir)
			}

			components, err := d.Project.Components()
			if err != nil {
				return nil, err
			}
			for _, name := range components.ConflictNames() {
				slog.Warn("Component defined in multiple places, excluded from injection",
					logfields.Component(name), slog.Any("paths", components.Conflicts[name]))
			}

			wrapper, ok := components.Resolve(wrapperName)
			if !ok {
				if components.IsConflicted(wrapperName) {
					return nil, fmt.Errorf("component %s is defined at multiple paths: %s",
						wrapperName, strings.Join(components.Conflicts[wrapperName], ", "))
				}
				return nil, fmt.Errorf("component %s not found", wrapperName)
			}

			imports, object := injection(components)

			entryDir := filepath.ToSlash(filepath.Join(d.Config.Paths.Source, "entry"))
			clientTmpl, err := loadBootstrapTemplate(d.Project, entryDir+"/client.jsx.tmpl", scaffold.TemplateClientEntry)
			if err != nil {
				return nil, err
			}

			out := &pipeline.Outputs{
				Entries:       entries,
				ClientEntries: make(map[string]string, len(entries)),
			}

			var serverTmpl *template.Template
			if st.Options.Prerender {
				serverTmpl, err = loadBootstrapTemplate(d.Project, entryDir+"/server.jsx.tmpl", scaffold.TemplateServerEntry)
				if err != nil {
					return nil, err
				}
				out.ServerEntries = make(map[string]string, len(entries))
			}

			clientDir := d.Project.EntriesDir("client")
			serverDir := d.Project.EntriesDir("server")
			for _, e := range pages.Sorted(entries) {
				data := bootstrapData{
					Name:             e.Name,
					Route:            e.Route(),
					WrapperImport:    filepath.ToSlash(wrapper),
					SourceImport:     filepath.ToSlash(e.Path),
					ComponentImports: imports,
					ComponentsObject: object,
				}
				p, err := writeBootstrap(clientTmpl, clientDir, e, data)
				if err != nil {
					return nil, err
				}
				out.ClientEntries[e.Name] = p

				if serverTmpl != nil {
					p, err := writeBootstrap(serverTmpl, serverDir, e, data)
					if err != nil {
						return nil, err
					}
					out.ServerEntries[e.Name] = p
				}
			}

			slog.Info("Generated entry modules", logfields.Count(len(entries)))
			return out, nil
		},
	}
}

func withoutDrafts(discovered map[string]pages.Entry) (map[string]pages.Entry, error) {
	entries := make(map[string]pages.Entry, len(discovered))
	for name, e := range discovered {
		content, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Path, err)
		}
		fields, _, err := frontmatter.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("frontmatter of %s: %w", e.Path, err)
		}
		if fields.Draft {
			slog.Debug("Skipping draft", logfields.Entry(name))
			continue
		}
		entries[name] = e
	}
	return entries, nil
}

// injection builds the import block and the components object the
// bootstraps embed. The wrapper's own component defaults are spread first so
// project components shadow them; the wrapper itself is never injected.
func injection(components *project.ComponentMap) (string, string) {
	inj := components.Injectable()
	names := make([]string, 0, len(inj))
	for name := range inj {
		if name == wrapperName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var imports strings.Builder
	for _, name := range names {
		fmt.Fprintf(&imports, "import %s from %q;\n", name, filepath.ToSlash(inj[name]))
	}

	object := "{ ...(" + wrapperName + ".components ?? {}) }"
	if len(names) > 0 {
		object = "{ ...(" + wrapperName + ".components ?? {}), " + strings.Join(names, ", ") + " }"
	}
	return imports.String(), object
}

func loadBootstrapTemplate(pctx *project.Context, candidate string, id scaffold.TemplateID) (*template.Template, error) {
	p, err := pctx.ResolveWithFallback([]string{candidate}, id)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return template.New(filepath.Base(p)).Parse(string(content))
}

// writeBootstrap renders one bootstrap module into dir, mirroring the folded
// artifact layout so bundle output paths line up with routes.
func writeBootstrap(tmpl *template.Template, dir string, e pages.Entry, data bootstrapData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render bootstrap for %s: %w", e.Name, err)
	}

	target := filepath.Join(dir, filepath.FromSlash(e.ArtifactPath(".jsx")))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return target, nil
}
