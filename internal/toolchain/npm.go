package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// NPMInstaller runs the configured package manager. Whether an install is
// needed at all is the caller's decision.
type NPMInstaller struct {
	Command string
}

func NewNPMInstaller(command string) *NPMInstaller {
	return &NPMInstaller{Command: command}
}

func (n *NPMInstaller) Install(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, n.Command, "install", "--no-audit", "--no-fund")
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Info("Installing JavaScript dependencies", logfields.Tool(n.Command), logfields.Dir(dir))

	if err := cmd.Run(); err != nil {
		if out := toolOutput(&stdout, &stderr); out != "" {
			return fmt.Errorf("%w: %w: %s", ErrInstallFailed, err, out)
		}
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	return nil
}
