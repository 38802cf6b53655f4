package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
)

// BuildsCmd implements the 'builds' command.
type BuildsCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show."`
}

func (b *BuildsCmd) Run(_ *Global, root *CLI) error {
	dir, _, err := loadProject(root)
	if err != nil {
		return err
	}

	store, err := history.Open(filepath.Join(dir, project.StateDirName))
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), b.Limit)
	if err != nil {
		return fmt.Errorf("read build history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	fmt.Printf("%-10s %-10s %6s %10s %-20s %s\n",
		"BUILD", "PHASE", "PAGES", "DURATION", "STARTED", "DETAIL")
	for _, r := range records {
		fmt.Printf("%-10s %-10s %6d %10s %-20s %s\n",
			shortID(r.BuildID),
			r.Phase,
			r.Pages,
			r.Duration.Round(timePrecision),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			buildDetail(r))
	}
	return nil
}

// shortID trims a UUID to its first group, enough to tell builds apart in a
// single project's log.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func buildDetail(r history.Record) string {
	if r.Phase == "failed" && r.FailedStep != "" {
		return "failed at " + r.FailedStep
	}
	mode := r.StaticMode
	if !r.Prerender {
		mode += ", no prerender"
	}
	return mode
}
