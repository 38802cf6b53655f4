package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "site:\n  title: Docs\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "Docs", cfg.Site.Title)
	require.Equal(t, "en", cfg.Site.Lang)
	require.Equal(t, "dist", cfg.Build.Output)
	require.Equal(t, StaticAssets, cfg.Build.StaticMode)
	require.Equal(t, "pages", cfg.Paths.Pages)
	require.Equal(t, "node", cfg.Tools.Node)
	require.Equal(t, filepath.Join("node_modules", ".bin", "tailwindcss"), cfg.Tools.Tailwind)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "My Site", cfg.Site.Title)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("SITE_BASE", "https://docs.example.org")
	dir := t.TempDir()
	p := writeConfig(t, dir, "site:\n  base_url: ${SITE_BASE}\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "https://docs.example.org", cfg.Site.BaseURL)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SITE_TITLE_FROM_ENV=From Env\n"), 0o644))
	p := writeConfig(t, dir, "site:\n  title: $SITE_TITLE_FROM_ENV\n")
	t.Cleanup(func() { _ = os.Unsetenv("SITE_TITLE_FROM_ENV") })

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "From Env", cfg.Site.Title)
}

func TestValidateRejectsBadStaticMode(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "build:\n  static_mode: everything\n")

	_, err := Load(p)
	require.Error(t, err)
	require.Contains(t, err.Error(), "static_mode")
}

func TestValidateRejectsOutputEqualPages(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "build:\n  output: pages\n")

	_, err := Load(p)
	require.Error(t, err)
}

func TestOptionsPrerenderDefaultTrue(t *testing.T) {
	cfg := Default()
	require.True(t, cfg.Options().Prerender)

	off := false
	cfg.Build.Prerender = &off
	require.False(t, cfg.Options().Prerender)
}

func TestStaticModeValid(t *testing.T) {
	require.True(t, StaticPublicOnly.Valid())
	require.True(t, StaticAssets.Valid())
	require.True(t, StaticAll.Valid())
	require.False(t, StaticMode("everything").Valid())
}
