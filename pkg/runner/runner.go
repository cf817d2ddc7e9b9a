// Package runner executes the external simulation engine once per model and
// classifies the result.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ormasoftchile/simverify/pkg/config"
	"github.com/ormasoftchile/simverify/pkg/discovery"
)

// Sentinel is the literal marker the engine prints to stdout when the run's
// mass balance matched the reference artifact. A zero exit status alone is
// not proof of a match; the sentinel must also be present.
const Sentinel = "VERIFIED!"

// Outcome is the immutable result of one verification attempt.
type Outcome struct {
	Path    string `json:"path"` // model path relative to the search root
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Runner verifies models against their reference artifacts by invoking the
// external engine as a subprocess, one model at a time.
type Runner struct {
	Executor  CommandExecutor
	Engine    config.Engine
	Reference string        // reference artifact file name, resolved per model directory
	Timeout   time.Duration // per-model wall-clock bound
}

// New builds a Runner from a validated configuration, using the real
// subprocess executor.
func New(cfg *config.Config) (*Runner, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return &Runner{
		Executor:  &RealExecutor{},
		Engine:    cfg.Engine,
		Reference: cfg.Reference,
		Timeout:   timeout,
	}, nil
}

// Verify produces exactly one Outcome for m. Classification is layered so
// every failure mode yields a distinct diagnostic: reference existence,
// then timeout, then spawn fault, then exit status, then sentinel. Faults
// never propagate; a batch must survive any single model.
func (r *Runner) Verify(ctx context.Context, root string, m discovery.Model) Outcome {
	rel := RelPath(root, m.Path)

	refPath := filepath.Join(m.Dir, r.Reference)
	if _, err := os.Stat(refPath); err != nil {
		return Outcome{Path: rel, Message: fmt.Sprintf("reference artifact not found at %s", refPath)}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// The engine resolves the model by bare file name, so the child runs
	// inside the model's directory.
	args := []string{r.Engine.Subcommand, m.Name, r.Engine.VerifyFlag, r.Reference}
	result, err := r.Executor.Execute(runCtx, m.Dir, r.Engine.Binary, args)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Outcome{Path: rel, Message: "execution exceeded the time limit"}
	}
	if err != nil {
		return Outcome{Path: rel, Message: err.Error()}
	}

	if result.ExitCode == 0 {
		if strings.Contains(string(result.Stdout), Sentinel) {
			return Outcome{Path: rel, Passed: true, Message: Sentinel}
		}
		return Outcome{Path: rel, Message: "verification outcome unclear: " + excerpt(result.Stdout)}
	}

	if len(bytes.TrimSpace(result.Stderr)) > 0 {
		return Outcome{Path: rel, Message: excerpt(result.Stderr)}
	}
	return Outcome{Path: rel, Message: excerpt(result.Stdout)}
}

// RelPath returns path relative to the search root for reporting, falling
// back to the absolute path when no relative form exists.
func RelPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

const (
	excerptMaxLines = 20
	excerptMaxBytes = 2048
)

// excerpt trims and truncates captured engine output for the report,
// keeping the tail since engines print the interesting part last.
func excerpt(out []byte) string {
	s := strings.TrimSpace(string(out))
	if lines := strings.Split(s, "\n"); len(lines) > excerptMaxLines {
		s = "… " + strings.Join(lines[len(lines)-excerptMaxLines:], "\n")
	}
	if len(s) > excerptMaxBytes {
		s = "… " + s[len(s)-excerptMaxBytes:]
	}
	return s
}
