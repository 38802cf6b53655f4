package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Directory string `arg:"" optional:"" help:"Target directory (defaults to the project directory)." type:"path"`
	Examples  bool   `help:"Include example pages and components."`
	Minimal   bool   `help:"Bare wrapper, empty stylesheet, no starter page."`
	Force     bool   `help:"Overwrite files that already exist."`
	Git       bool   `help:"Initialize a git repository in the target directory."`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	dir := i.Directory
	if dir == "" {
		dir = root.Dir
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	written, err := scaffold.Materialize(dir, scaffold.Options{
		Examples: i.Examples,
		Minimal:  i.Minimal,
		Force:    i.Force,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Initialized project in %s\n", dir)
	for _, f := range written {
		fmt.Printf("  created %s\n", f)
	}
	if len(written) == 0 {
		fmt.Println("  nothing to do; all files already exist (use --force to overwrite)")
	}

	if i.Git {
		switch _, err := git.PlainInit(dir, false); {
		case err == nil:
			fmt.Println("  initialized git repository")
		case errors.Is(err, git.ErrRepositoryAlreadyExists):
			fmt.Println("  git repository already present")
		default:
			return fmt.Errorf("git init: %w", err)
		}
	}

	fmt.Println("Next: run `sitebuilder build`, or `sitebuilder preview` to work live.")
	return nil
}
