package project

import (
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// ComponentMap maps bare component names to the file defining them. Names
// defined in more than one place land in Conflicts and are excluded from
// resolution; the build warns and the document must import explicitly.
type ComponentMap struct {
	Paths     map[string]string
	Conflicts map[string][]string
}

// Resolve returns the defining file for name. Conflicted names do not
// resolve.
func (m *ComponentMap) Resolve(name string) (string, bool) {
	if _, conflicted := m.Conflicts[name]; conflicted {
		return "", false
	}
	p, ok := m.Paths[name]
	return p, ok
}

// IsConflicted reports whether name is defined at more than one path.
func (m *ComponentMap) IsConflicted(name string) bool {
	_, ok := m.Conflicts[name]
	return ok
}

// ConflictNames returns the conflicted names in sorted order.
func (m *ComponentMap) ConflictNames() []string {
	names := make([]string, 0, len(m.Conflicts))
	for n := range m.Conflicts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Injectable returns name -> path for every resolvable component, the set
// the entry generator passes into documents. Sorted iteration is the
// caller's job.
func (m *ComponentMap) Injectable() map[string]string {
	out := make(map[string]string, len(m.Paths))
	for name, p := range m.Paths {
		if _, conflicted := m.Conflicts[name]; conflicted {
			continue
		}
		out[name] = p
	}
	return out
}

// Components scans the source and pages directories for component modules,
// merges them with conflict tracking, and back-fills required builtin names
// from the embedded defaults when the project does not define them.
// Memoized until ClearCaches.
func (c *Context) Components() (*ComponentMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.components != nil {
		return c.components, nil
	}

	seen := map[string]string{}
	conflicts := map[string][]string{}
	if err := pages.DiscoverComponents(c.SourceDir, seen, conflicts); err != nil {
		return nil, err
	}
	if err := pages.DiscoverComponents(c.PagesDir, seen, conflicts); err != nil {
		return nil, err
	}

	// Builtins come from the embedded defaults only when the project does
	// not define them at all.
	missing := false
	for name := range scaffold.BuiltinComponents {
		if _, ok := seen[name]; !ok {
			missing = true
		}
	}
	if missing {
		treeDir, err := c.materializeDefaultsLocked()
		if err != nil {
			return nil, err
		}
		for name, id := range scaffold.BuiltinComponents {
			if _, ok := seen[name]; ok {
				continue
			}
			defaultPath, err := scaffold.DefaultPath(id)
			if err != nil {
				return nil, err
			}
			seen[name] = filepath.Join(treeDir, filepath.Base(defaultPath))
		}
	}

	c.components = &ComponentMap{Paths: seen, Conflicts: conflicts}
	return c.components, nil
}
