package phpcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args []string) (stdout []byte, stderr []byte, exitCode int, err error)
}

// killGrace is how long a cancelled process gets between SIGTERM and SIGKILL.
const killGrace = 2 * time.Second

// ExecRunner implements CommandRunner with os/exec. No shell is involved.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, name string, args []string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			// phpcs exits non-zero whenever it finds something.
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), -1, fmt.Errorf("exec %s: %w", name, err)
		}
	}
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitCode, nil
}
