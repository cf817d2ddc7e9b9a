// Package report renders harness progress and the final summary, and owns
// the optional transcript log file.
//
// The log lifecycle is delete-first, write-last: any pre-existing log is
// removed before the run starts and the transcript is persisted in a single
// write only after the summary has been rendered. The presence of a complete
// log file is therefore proof the run reached its natural end.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ormasoftchile/simverify/pkg/runner"
)

const rule = "================================================================================"

// Reporter accumulates per-model outcomes in discovery order and mirrors
// every console line into an in-memory transcript.
type Reporter struct {
	out      io.Writer
	logPath  string // empty disables the log file
	lines    []string
	outcomes []runner.Outcome

	// Now is the clock for the summary timestamp; overridable in tests.
	Now func() time.Time
}

// New creates a Reporter writing console output to out. A non-empty logPath
// enables the persisted transcript.
func New(out io.Writer, logPath string) *Reporter {
	return &Reporter{out: out, logPath: logPath, Now: time.Now}
}

// Begin removes any stale log file and prints the run header. An aborted run
// must leave no misleading artifact, so deletion happens before any model is
// touched.
func (r *Reporter) Begin(root string) error {
	if r.logPath != "" {
		if err := os.Remove(r.logPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale log %s: %w", r.logPath, err)
		}
	}
	r.Logf("Searching for model files in: %s", root)
	r.Logf(rule)
	return nil
}

// Logf prints one transcript entry to the console and mirrors it into the
// in-memory buffer. An entry may contain embedded newlines (multi-line
// engine diagnostics); it is still stored as a single entry.
func (r *Reporter) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, line)
	r.lines = append(r.lines, line)
}

// NoModels reports the empty-discovery condition. The batch is fatal at this
// point: no per-model lines, non-zero exit, and no log file is written.
func (r *Reporter) NoModels(ext string) {
	r.Logf("No %s files found!", ext)
}

// Found announces the discovery count before the first model runs.
func (r *Reporter) Found(n int) {
	r.Logf("Found %d model file(s)\n", n)
}

// Verifying prints the progress line for the model about to run.
func (r *Reporter) Verifying(relPath string) {
	r.Logf("Verifying: %s", relPath)
}

// Record appends one outcome and prints its pass/fail line.
func (r *Reporter) Record(o runner.Outcome) {
	r.outcomes = append(r.outcomes, o)
	if o.Passed {
		r.Logf("  ✓ %s", o.Message)
	} else {
		r.Logf("  ✗ %s", o.Message)
	}
	r.Logf("")
}

// Total returns the number of recorded outcomes.
func (r *Reporter) Total() int { return len(r.outcomes) }

// Passed returns the number of successful outcomes.
func (r *Reporter) Passed() int {
	n := 0
	for _, o := range r.outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (r *Reporter) Failed() int { return r.Total() - r.Passed() }

// Summary renders the final summary block: counts, the failed-model list
// with diagnostics, and (when the log file is enabled) a completion
// timestamp.
func (r *Reporter) Summary() {
	r.Logf(rule)
	r.Logf("SUMMARY")
	r.Logf(rule)
	if r.logPath != "" {
		r.Logf("Timestamp: %s", r.Now().Format(time.RFC3339))
	}

	r.Logf("Total: %d", r.Total())
	r.Logf("Passed: %d", r.Passed())
	r.Logf("Failed: %d", r.Failed())

	if r.Failed() > 0 {
		r.Logf("\nFailed models:")
		for _, o := range r.outcomes {
			if !o.Passed {
				r.Logf("  - %s", o.Path)
				r.Logf("    %s", o.Message)
			}
		}
	} else {
		r.Logf("\n✓ All models verified successfully!")
	}
}

// Flush persists the transcript plus a trailing newline to the log file in a
// single write. It must only be called after Summary; a run that aborts
// earlier leaves no log file at all.
func (r *Reporter) Flush() error {
	if r.logPath == "" {
		return nil
	}
	if err := os.WriteFile(r.logPath, []byte(r.Transcript()), 0o644); err != nil {
		return fmt.Errorf("write log %s: %w", r.logPath, err)
	}
	return nil
}

// Transcript returns the exact console output emitted so far, with a
// trailing newline. The persisted log file is byte-identical to this.
func (r *Reporter) Transcript() string {
	return strings.Join(r.lines, "\n") + "\n"
}

// ExitCode is 0 only when at least one model was discovered and every
// outcome passed.
func (r *Reporter) ExitCode() int {
	if r.Total() == 0 || r.Failed() > 0 {
		return 1
	}
	return 0
}
