package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// TailwindCompiler shells out to the Tailwind CLI. Content scanning is
// configured in the entry stylesheet itself (v4 style), so the adapter only
// carries input, output and the minify switch.
type TailwindCompiler struct {
	Command string
}

func NewTailwindCompiler(command string) *TailwindCompiler {
	return &TailwindCompiler{Command: command}
}

func (t *TailwindCompiler) Compile(ctx context.Context, req StyleRequest) error {
	args := []string{"-i", req.Input, "-o", req.Output}
	if req.Minify {
		args = append(args, "--minify")
	}

	cmd := exec.CommandContext(ctx, t.Command, args...)
	cmd.Dir = req.WorkingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking style compiler", logfields.Tool(t.Command), logfields.File(req.Input))

	if err := cmd.Run(); err != nil {
		if out := toolOutput(&stdout, &stderr); out != "" {
			return fmt.Errorf("%w: %w: %s", ErrStyleCompile, err, out)
		}
		return fmt.Errorf("%w: %w", ErrStyleCompile, err)
	}
	return nil
}
