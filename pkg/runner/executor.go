package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// CommandResult holds the output of a single engine execution.
type CommandResult struct {
	Stdout   []byte        `json:"stdout"`
	Stderr   []byte        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// CommandExecutor abstracts real vs stubbed engine execution.
// Implementations: RealExecutor, plus test doubles.
type CommandExecutor interface {
	Execute(ctx context.Context, dir, command string, args []string) (*CommandResult, error)
}

// RealExecutor runs commands via os/exec with context cancellation support.
type RealExecutor struct{}

// Execute runs a command with the given arguments, with the child's working
// directory set to dir. Stdout and stderr are fully buffered; nothing is
// inherited from or interleaved with the harness's own streams. When the
// context expires the child is killed and the partial result is still
// returned so the caller can classify the timeout.
func (r *RealExecutor) Execute(ctx context.Context, dir, command string, args []string) (*CommandResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("execute command %q: %w", command, err)
		}
	}

	return &CommandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}
