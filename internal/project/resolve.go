package project

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// ResolveWithFallback checks each candidate path (relative to the project
// root) in order and returns the first that exists as an absolute path. If
// none exist, the embedded default for id is materialized into the cache
// and its path returned. Candidates are re-checked on every call so a
// project file always wins, but materialization happens at most once per
// id per build.
func (c *Context) ResolveWithFallback(candidates []string, id scaffold.TemplateID) (string, error) {
	for _, rel := range candidates {
		p := filepath.Join(c.Root, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.resolved[id]; ok {
		return p, nil
	}

	defaultPath, err := scaffold.DefaultPath(id)
	if err != nil {
		return "", err
	}

	var resolved string
	if inDefaultComponentsDir(defaultPath) {
		// Component defaults import their siblings relatively, so the
		// whole default tree materializes together.
		treeDir, err := c.materializeDefaultsLocked()
		if err != nil {
			return "", err
		}
		resolved = filepath.Join(treeDir, filepath.Base(defaultPath))
	} else {
		content, err := scaffold.Default(id)
		if err != nil {
			return "", err
		}
		resolved = filepath.Join(c.ResolvedDir(), filepath.FromSlash(defaultPath))
		if err := writeIfMissing(resolved, content); err != nil {
			return "", fmt.Errorf("materialize default %s: %w", id, err)
		}
	}

	if c.resolved == nil {
		c.resolved = make(map[scaffold.TemplateID]string)
	}
	c.resolved[id] = resolved
	return resolved, nil
}

// MaterializeDefaultComponents writes the embedded default component tree
// into the cache and returns its directory. Memoized; the style step uses
// the directory as a utility-class scan source and the component map
// back-fills builtin names from it.
func (c *Context) MaterializeDefaultComponents() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.materializeDefaultsLocked()
}

func (c *Context) materializeDefaultsLocked() (string, error) {
	if c.defaultsAt != "" {
		return c.defaultsAt, nil
	}
	dir := filepath.Join(c.ResolvedDir(), filepath.FromSlash(scaffold.DefaultComponentsDir))
	for _, f := range scaffold.TreeFiles(scaffold.DefaultComponentsDir) {
		content, err := scaffold.Read(f.Path)
		if err != nil {
			return "", err
		}
		target := filepath.Join(dir, filepath.Base(f.Path))
		if err := writeIfMissing(target, content); err != nil {
			return "", err
		}
	}
	c.defaultsAt = dir
	return dir, nil
}

func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := mkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func mkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func inDefaultComponentsDir(p string) bool {
	return filepath.ToSlash(filepath.Dir(filepath.FromSlash(p))) == scaffold.DefaultComponentsDir
}
