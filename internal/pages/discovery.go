package pages

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ErrDuplicateEntry indicates two source documents fold onto the same output
// path. Silent last-write-wins would drop a page, so discovery refuses.
var ErrDuplicateEntry = errors.New("duplicate entry")

// Discover walks the pages root and returns the entry map keyed by name.
// Hidden and underscore-prefixed files and directories are skipped. A
// missing root yields an empty map; deciding whether that is an error is
// the caller's business.
func Discover(root string) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pages root %s is not a directory", root)
	}

	// artifact path -> source file, for collision detection across names
	// that fold together (about.md vs about/index.md).
	artifacts := make(map[string]string)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if skipName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !DocumentExtensions[ext] {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		name := norm.NFC.String(filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))))
		entry := Entry{Name: name, Path: p, Dir: root}

		artifact := entry.ArtifactPath(".html")
		if prev, exists := artifacts[artifact]; exists {
			return fmt.Errorf("%w: %s and %s both produce %s", ErrDuplicateEntry, prev, p, artifact)
		}
		artifacts[artifact] = p
		entries[name] = entry

		slog.Debug("Discovered entry", logfields.Entry(name), logfields.File(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DiscoverComponents walks a directory for component modules (.jsx/.tsx)
// and returns bare component name -> defining file. Names already present
// in seen are recorded in conflicts instead of overwritten.
func DiscoverComponents(root string, seen map[string]string, conflicts map[string][]string) error {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if skipName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".jsx" && ext != ".tsx" {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if prev, exists := seen[name]; exists {
			if prev == p {
				return nil
			}
			conflicts[name] = appendUnique(conflicts[name], prev, p)
			slog.Warn("Component name conflict", logfields.Component(name), logfields.Path(prev), slog.String("other", p))
			return nil
		}
		seen[name] = p
		return nil
	})
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, have := range list {
			if have == it {
				found = true
				break
			}
		}
		if !found {
			list = append(list, it)
		}
	}
	return list
}

func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
