package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRenderer runs a user-configured command per document, with the
// server-built module path appended to the argv. The command imports the
// module, invokes its exported render function and prints the HTML body on
// stdout. Projects configure it for real server-side rendering through
// their own Node script.
type CommandRenderer struct {
	Argv       []string
	WorkingDir string
}

func NewCommandRenderer(argv []string, workingDir string) (*CommandRenderer, error) {
	if len(argv) == 0 {
		return nil, errors.New("renderer command is empty")
	}
	return &CommandRenderer{Argv: argv, WorkingDir: workingDir}, nil
}

func (c *CommandRenderer) Render(ctx context.Context, req RenderRequest) (string, error) {
	if req.ModulePath == "" {
		return "", fmt.Errorf("%w: %s: no server module", ErrRenderFailed, req.Name)
	}

	args := append(append([]string(nil), c.Argv[1:]...), req.ModulePath)
	cmd := exec.CommandContext(ctx, c.Argv[0], args...)
	cmd.Dir = c.WorkingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if out := toolOutput(&stdout, &stderr); out != "" {
			return "", fmt.Errorf("%w: %s: %w: %s", ErrRenderFailed, req.Name, err, out)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, req.Name, err)
	}
	return stdout.String(), nil
}
