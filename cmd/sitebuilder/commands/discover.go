package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Components bool `help:"Also list resolvable components."`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	dir, cfg, err := loadProject(root)
	if err != nil {
		return err
	}
	pctx := project.NewContext(dir, cfg)

	entries, err := pctx.Entries()
	if err != nil {
		return err
	}

	slog.Info("Discovery completed", logfields.Dir(cfg.Paths.Pages), logfields.Count(len(entries)))
	for _, e := range pages.Sorted(entries) {
		fmt.Printf("  %-30s %-30s %s\n", e.Name, e.Route(), e.ArtifactPath(".html"))
	}
	if len(entries) == 0 {
		fmt.Printf("No documents under %s; run `sitebuilder init` to scaffold a starter page.\n", cfg.Paths.Pages)
	}

	if !d.Components {
		return nil
	}

	comps, err := pctx.Components()
	if err != nil {
		return err
	}
	resolvable := comps.Injectable()
	names := make([]string, 0, len(resolvable))
	for name := range resolvable {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("\nComponents (%d resolvable):\n", len(names))
	for _, name := range names {
		p := resolvable[name]
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = filepath.ToSlash(rel)
		}
		fmt.Printf("  %-30s %s\n", name, p)
	}
	for _, name := range comps.ConflictNames() {
		slog.Warn("Component name conflict; import explicitly", logfields.Component(name))
	}

	return nil
}
