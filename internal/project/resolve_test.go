package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

func TestResolveWithFallbackPrefersProjectFile(t *testing.T) {
	c := newTestContext(t)
	own := writeProjectFile(t, c, "styles/site.css", "/* mine */")

	got, err := c.ResolveWithFallback([]string{"styles/site.css"}, scaffold.TemplateStyleEntry)
	require.NoError(t, err)
	require.Equal(t, own, got)
}

func TestResolveWithFallbackMaterializesDefault(t *testing.T) {
	c := newTestContext(t)

	got, err := c.ResolveWithFallback([]string{"styles/site.css"}, scaffold.TemplateStyleEntry)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(c.ResolvedDir(), "styles", "site.css"), got)

	content, err := os.ReadFile(got)
	require.NoError(t, err)
	want, err := scaffold.Default(scaffold.TemplateStyleEntry)
	require.NoError(t, err)
	require.Equal(t, string(want), string(content))
}

func TestResolveWithFallbackMaterializesOnce(t *testing.T) {
	c := newTestContext(t)

	first, err := c.ResolveWithFallback(nil, scaffold.TemplateStyleEntry)
	require.NoError(t, err)

	// overwrite the cached file; a second resolve must not write again
	require.NoError(t, os.WriteFile(first, []byte("sentinel"), 0o644))
	second, err := c.ResolveWithFallback(nil, scaffold.TemplateStyleEntry)
	require.NoError(t, err)
	require.Equal(t, first, second)

	content, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, "sentinel", string(content))
}

func TestResolveWithFallbackProjectFileWinsAfterMaterialization(t *testing.T) {
	c := newTestContext(t)

	cached, err := c.ResolveWithFallback([]string{"src/PageWrapper.jsx"}, scaffold.TemplatePageWrapper)
	require.NoError(t, err)
	require.Contains(t, cached, c.ResolvedDir())

	// the project file appears later; candidates are re-checked each call
	own := writeProjectFile(t, c, "src/PageWrapper.jsx", "export default () => null")
	got, err := c.ResolveWithFallback([]string{"src/PageWrapper.jsx"}, scaffold.TemplatePageWrapper)
	require.NoError(t, err)
	require.Equal(t, own, got)
}

func TestResolvePageWrapperBringsSiblings(t *testing.T) {
	c := newTestContext(t)

	got, err := c.ResolveWithFallback(nil, scaffold.TemplatePageWrapper)
	require.NoError(t, err)

	// the default wrapper imports ./CodeBlock.jsx and ./Callout.jsx, so
	// the whole default tree must exist next to it
	dir := filepath.Dir(got)
	require.FileExists(t, filepath.Join(dir, "CodeBlock.jsx"))
	require.FileExists(t, filepath.Join(dir, "Callout.jsx"))
}

func TestMaterializeDefaultComponentsMemoized(t *testing.T) {
	c := newTestContext(t)

	dir, err := c.MaterializeDefaultComponents()
	require.NoError(t, err)
	wrapper := filepath.Join(dir, "PageWrapper.jsx")
	require.FileExists(t, wrapper)

	require.NoError(t, os.WriteFile(wrapper, []byte("sentinel"), 0o644))
	again, err := c.MaterializeDefaultComponents()
	require.NoError(t, err)
	require.Equal(t, dir, again)

	content, err := os.ReadFile(wrapper)
	require.NoError(t, err)
	require.Equal(t, "sentinel", string(content))
}
