// Package project owns per-build knowledge about one project directory:
// where its pieces live, which documents and components exist, and how
// template lookups fall back to embedded defaults. A Context is created
// once per build or preview session; its caches are dropped explicitly by
// the reset step, never implicitly.
package project

import (
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/fsutil"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// StateDirName is the project-relative directory holding private build
// state. Its cache/ subdirectory is wiped per build; the rest persists.
const StateDirName = ".sitebuilder"

// Context resolves every path the build touches. All exported directory
// fields are absolute.
type Context struct {
	Root         string
	OutputDir    string
	StateDir     string
	CacheDir     string
	PagesDir     string
	SourceDir    string
	PublicDir    string
	StylesDir    string
	TemplatesDir string

	mu         sync.Mutex
	entries    map[string]pages.Entry
	components *ComponentMap
	resolved   map[scaffold.TemplateID]string
	defaultsAt string // cache path of the materialized default component tree
}

// NewContext builds a Context for the project rooted at root. root should
// already be absolute; relative configured paths resolve against it.
func NewContext(root string, cfg *config.Config) *Context {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	stateDir := filepath.Join(root, StateDirName)
	return &Context{
		Root:         root,
		OutputDir:    abs(cfg.Build.Output),
		StateDir:     stateDir,
		CacheDir:     filepath.Join(stateDir, "cache"),
		PagesDir:     abs(cfg.Paths.Pages),
		SourceDir:    abs(cfg.Paths.Source),
		PublicDir:    abs(cfg.Paths.Public),
		StylesDir:    abs(cfg.Paths.Styles),
		TemplatesDir: abs(cfg.Paths.Templates),
	}
}

// Entries discovers the document entries once and memoizes the map; the
// same map instance is returned until ClearCaches.
func (c *Context) Entries() (map[string]pages.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries != nil {
		return c.entries, nil
	}
	entries, err := pages.Discover(c.PagesDir)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return entries, nil
}

// ClearCaches drops all memoized state so the next access re-discovers.
// Called by the reset step before a build and by the preview loop between
// rebuilds.
func (c *Context) ClearCaches() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.components = nil
	c.resolved = nil
	c.defaultsAt = ""
}

// ResetOutput clears and recreates the output directory.
func (c *Context) ResetOutput() error {
	return resetDir(c.OutputDir)
}

// ResetCache clears and recreates the private cache directory. The rest of
// the state directory (build history) is left alone.
func (c *Context) ResetCache() error {
	return resetDir(c.CacheDir)
}

func resetDir(dir string) error {
	if err := fsutil.RemoveAllRetry(dir, retry.DefaultPolicy()); err != nil {
		return err
	}
	return mkdirAll(dir)
}

// EntriesDir returns the cache directory generated bootstrap modules for
// the given bundle target are written into.
func (c *Context) EntriesDir(target string) string {
	return filepath.Join(c.CacheDir, "entries", target)
}

// ServerBundleDir returns the cache directory the server bundle is built
// into.
func (c *Context) ServerBundleDir() string {
	return filepath.Join(c.CacheDir, "server")
}

// StylesWorkDir returns the cache directory the augmented style entry is
// written into.
func (c *Context) StylesWorkDir() string {
	return filepath.Join(c.CacheDir, "styles")
}

// ResolvedDir returns the cache directory embedded defaults materialize
// into, mirroring their project-relative layout.
func (c *Context) ResolvedDir() string {
	return filepath.Join(c.CacheDir, "resolved")
}
