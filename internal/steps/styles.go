package steps

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// styleHashLen is the number of hex characters in the cache-busting name.
const styleHashLen = 12

// CompileStyles compiles the entry stylesheet and writes it into the output
// under a content-hashed name. The compiler input is a generated wrapper
// that imports the resolved entry and widens the content scan to the pages
// tree, the source tree and the materialized defaults, so utility classes
// used only inside embedded components still get generated.
func CompileStyles(d Deps) pipeline.Step {
	return pipeline.Step{
		Name:     StepCompileStyles,
		RunsWith: []string{StepBundleServer},
		Run: func(ctx context.Context, _ *pipeline.State) (*pipeline.Outputs, error) {
			entry, err := d.Project.ResolveWithFallback(
				[]string{path.Join(filepath.ToSlash(d.Config.Paths.Styles), "site.css")},
				scaffold.TemplateStyleEntry,
			)
			if err != nil {
				return nil, err
			}

			defaults, err := d.Project.MaterializeDefaultComponents()
			if err != nil {
				return nil, err
			}

			workDir := d.Project.StylesWorkDir()
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				return nil, err
			}

			var buf bytes.Buffer
			fmt.Fprintf(&buf, "@import %q;\n", filepath.ToSlash(entry))
			for _, dir := range []string{d.Project.PagesDir, d.Project.SourceDir, defaults} {
				if _, err := os.Stat(dir); err == nil {
					fmt.Fprintf(&buf, "@source %q;\n", filepath.ToSlash(dir))
				}
			}
			workEntry := filepath.Join(workDir, "entry.css")
			if err := os.WriteFile(workEntry, buf.Bytes(), 0o644); err != nil {
				return nil, err
			}

			compiled := filepath.Join(workDir, "site.css")
			if err := d.Styles.Compile(ctx, toolchain.StyleRequest{
				Input:      workEntry,
				Output:     compiled,
				WorkingDir: d.Project.Root,
				Minify:     true,
			}); err != nil {
				return nil, err
			}

			content, err := os.ReadFile(compiled)
			if err != nil {
				return nil, err
			}
			sum := sha256.Sum256(content)
			name := fmt.Sprintf("site-%s.css", hex.EncodeToString(sum[:])[:styleHashLen])
			rel := path.Join(assetsDir, name)
			target := filepath.Join(d.Project.OutputDir, assetsDir, name)
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(target, content, 0o644); err != nil {
				return nil, err
			}

			slog.Info("Compiled styles", logfields.File(rel))
			return &pipeline.Outputs{Stylesheet: rel}, nil
		},
	}
}
