package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComponentsBackfillsBuiltins(t *testing.T) {
	c := newTestContext(t)

	m, err := c.Components()
	require.NoError(t, err)

	for _, name := range []string{"PageWrapper", "CodeBlock", "Callout"} {
		p, ok := m.Resolve(name)
		require.True(t, ok, name)
		require.Contains(t, p, c.ResolvedDir(), name)
	}
}

func TestComponentsProjectDefinitionWins(t *testing.T) {
	c := newTestContext(t)
	own := writeProjectFile(t, c, "src/Callout.jsx", "export default () => null")

	m, err := c.Components()
	require.NoError(t, err)

	p, ok := m.Resolve("Callout")
	require.True(t, ok)
	require.Equal(t, own, p)
}

func TestComponentsConflictExcludedFromResolution(t *testing.T) {
	c := newTestContext(t)
	inSrc := writeProjectFile(t, c, "src/Chart.jsx", "export default () => null")
	inPages := writeProjectFile(t, c, "pages/widgets/Chart.jsx", "export default () => null")

	m, err := c.Components()
	require.NoError(t, err)

	require.True(t, m.IsConflicted("Chart"))
	_, ok := m.Resolve("Chart")
	require.False(t, ok)
	require.ElementsMatch(t, []string{inSrc, inPages}, m.Conflicts["Chart"])
	require.NotContains(t, m.Injectable(), "Chart")
	require.Equal(t, []string{"Chart"}, m.ConflictNames())
}

func TestComponentsMemoized(t *testing.T) {
	c := newTestContext(t)

	first, err := c.Components()
	require.NoError(t, err)

	writeProjectFile(t, c, "src/Late.jsx", "export default () => null")
	second, err := c.Components()
	require.NoError(t, err)
	require.Same(t, first, second)

	c.ClearCaches()
	third, err := c.Components()
	require.NoError(t, err)
	require.Contains(t, third.Paths, "Late")
}

func TestComponentsFindsNestedSources(t *testing.T) {
	c := newTestContext(t)
	nested := writeProjectFile(t, c, "src/widgets/Badge.tsx", "export default () => null")

	m, err := c.Components()
	require.NoError(t, err)
	p, ok := m.Resolve("Badge")
	require.True(t, ok)
	require.Equal(t, filepath.Clean(nested), filepath.Clean(p))
}
