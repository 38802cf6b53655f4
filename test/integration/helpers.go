package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/builder"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
	"git.home.luguber.info/inful/sitebuilder/internal/toolchain"
)

// fakeToolchain satisfies every tool interface with deterministic output, so
// the full pipeline runs without Node installed.
type fakeToolchain struct{}

func (fakeToolchain) Bundle(_ context.Context, req toolchain.BundleRequest) (*toolchain.BundleResult, error) {
	res := &toolchain.BundleResult{EntryFiles: make(map[string]string, len(req.EntryPoints))}
	for name := range req.EntryPoints {
		base := name + ".js"
		if req.Hashed {
			base = name + "-TESTHASH.js"
		}
		abs := filepath.Join(req.Outdir, filepath.FromSlash(base))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(abs, []byte("export {};\n"), 0o644); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(req.WorkingDir, abs)
		if err != nil {
			return nil, err
		}
		res.EntryFiles[name] = filepath.ToSlash(rel)
		res.Files = append(res.Files, filepath.ToSlash(rel))
	}
	return res, nil
}

func (fakeToolchain) Compile(_ context.Context, req toolchain.StyleRequest) error {
	return os.WriteFile(req.Output, []byte("body{margin:0}\n"), 0o644)
}

func (fakeToolchain) Render(_ context.Context, req toolchain.RenderRequest) (string, error) {
	return "<article>" + req.Name + "</article>", nil
}

func (fakeToolchain) Install(context.Context, string) error { return nil }

// newProject scaffolds a base project into a temp dir and layers extra files
// on top. Keys are project-relative slash paths.
func newProject(t *testing.T, extra map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	_, err := scaffold.Materialize(dir, scaffold.Options{})
	require.NoError(t, err)

	for rel, content := range extra {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// runSiteBuild executes the whole pipeline against the fake toolchain.
func runSiteBuild(t *testing.T, dir string, opts config.BuildOptions) (*pipeline.State, error) {
	t.Helper()

	cfg, err := config.LoadOrDefault(dir)
	require.NoError(t, err)

	tools := fakeToolchain{}
	bld := &builder.Builder{
		Root:      dir,
		Config:    cfg,
		Bundler:   tools,
		Styles:    tools,
		Renderer:  tools,
		Installer: tools,
	}
	return bld.Run(t.Context(), opts)
}

// snapshotTree walks root and returns its structure as a nested map, files as
// empty leaves. Content-hashed names are normalized so the snapshot stays
// stable across content changes.
func snapshotTree(t *testing.T, root string) map[string]any {
	t.Helper()

	tree := make(map[string]any)
	err := filepath.Walk(root, func(p string, _ os.FileInfo, err error) error {
		if err != nil || p == root {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		parts[len(parts)-1] = normalizeHashedName(parts[len(parts)-1])
		addToTree(tree, parts)
		return nil
	})
	require.NoError(t, err)
	return tree
}

var hashedStylesheet = regexp.MustCompile(`^site-[0-9a-f]{12}\.css$`)

func normalizeHashedName(base string) string {
	if hashedStylesheet.MatchString(base) {
		return "site-HASH.css"
	}
	return base
}

func addToTree(tree map[string]any, parts []string) {
	current := tree
	for i, part := range parts {
		if i == len(parts)-1 {
			if _, exists := current[part]; !exists {
				current[part] = map[string]any{}
			}
			return
		}
		next, exists := current[part]
		if !exists {
			next = make(map[string]any)
			current[part] = next
		}
		current = next.(map[string]any)
	}
}

// verifyTreeGolden compares a snapshot against a golden file, rewritten when
// -update-golden is set.
func verifyTreeGolden(t *testing.T, tree map[string]any, goldenPath string, update bool) {
	t.Helper()

	actual, err := json.MarshalIndent(tree, "", "  ")
	require.NoError(t, err)

	if update {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o755))
		require.NoError(t, os.WriteFile(goldenPath, append(actual, '\n'), 0o644))
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "missing golden file %s (run with -update-golden to create)", goldenPath)
	require.JSONEq(t, string(expected), string(actual), "output tree mismatch")
}

// readOutput returns the content of an output-relative file.
func readOutput(t *testing.T, dir, cfgOutput, rel string) string {
	t.Helper()

	p := filepath.Join(dir, cfgOutput, filepath.FromSlash(rel))
	data, err := os.ReadFile(p)
	require.NoError(t, err, "expected output file %s", rel)
	return string(data)
}
