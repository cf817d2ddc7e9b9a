package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ormasoftchile/simverify/pkg/config"
	"github.com/ormasoftchile/simverify/pkg/discovery"
)

// call records one Execute invocation made against the stub.
type call struct {
	dir     string
	command string
	args    []string
}

// stubExecutor returns a canned result (or error) and records every call.
type stubExecutor struct {
	result *CommandResult
	err    error
	block  bool // wait for ctx to expire, simulating a hung engine
	calls  []call
}

func (s *stubExecutor) Execute(ctx context.Context, dir, command string, args []string) (*CommandResult, error) {
	s.calls = append(s.calls, call{dir: dir, command: command, args: args})
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.result, s.err
}

// newModel lays out a model file (and optionally its reference artifact) in
// a temp tree and returns the root and the discovered model.
func newModel(t *testing.T, withReference bool) (string, discovery.Model) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "catchment")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "model.ini")
	if err := os.WriteFile(path, []byte("[model]\n"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	if withReference {
		ref := filepath.Join(dir, "mbal_for_verification.txt")
		if err := os.WriteFile(ref, []byte("mbal\n"), 0o644); err != nil {
			t.Fatalf("write reference: %v", err)
		}
	}
	return root, discovery.Model{Path: path, Dir: dir, Name: "model.ini"}
}

func newRunner(exec CommandExecutor) *Runner {
	return &Runner{
		Executor:  exec,
		Engine:    config.Engine{Binary: "kalixcli", Subcommand: "sim", VerifyFlag: "-v"},
		Reference: "mbal_for_verification.txt",
		Timeout:   time.Second,
	}
}

func TestVerifyMissingReferenceSkipsEngine(t *testing.T) {
	root, m := newModel(t, false)
	stub := &stubExecutor{}
	r := newRunner(stub)

	o := r.Verify(context.Background(), root, m)
	if o.Passed {
		t.Error("expected failure")
	}
	wantPath := filepath.Join(m.Dir, "mbal_for_verification.txt")
	if o.Message != fmt.Sprintf("reference artifact not found at %s", wantPath) {
		t.Errorf("message = %q, want missing-reference naming %s", o.Message, wantPath)
	}
	if len(stub.calls) != 0 {
		t.Errorf("engine invoked %d times, want 0", len(stub.calls))
	}
}

func TestVerifySentinelSuccess(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{result: &CommandResult{Stdout: []byte("running...\nVERIFIED!\n")}}
	r := newRunner(stub)

	o := r.Verify(context.Background(), root, m)
	if !o.Passed {
		t.Fatalf("expected success, got failure: %s", o.Message)
	}
	if o.Message != "VERIFIED!" {
		t.Errorf("message = %q, want VERIFIED!", o.Message)
	}
	if o.Path != filepath.Join("catchment", "model.ini") {
		t.Errorf("path = %q, want root-relative", o.Path)
	}
}

func TestVerifyInvocationContract(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{result: &CommandResult{Stdout: []byte("VERIFIED!")}}
	r := newRunner(stub)

	r.Verify(context.Background(), root, m)
	if len(stub.calls) != 1 {
		t.Fatalf("engine invoked %d times, want 1", len(stub.calls))
	}
	c := stub.calls[0]
	if c.dir != m.Dir {
		t.Errorf("working directory = %q, want model dir %q", c.dir, m.Dir)
	}
	if c.command != "kalixcli" {
		t.Errorf("command = %q, want kalixcli", c.command)
	}
	// Argument order is the engine's CLI contract.
	want := []string{"sim", "model.ini", "-v", "mbal_for_verification.txt"}
	if len(c.args) != len(want) {
		t.Fatalf("args = %v, want %v", c.args, want)
	}
	for i := range want {
		if c.args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, c.args[i], want[i])
		}
	}
}

func TestVerifyAmbiguousSuccessFails(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{result: &CommandResult{Stdout: []byte("simulation complete\n")}}
	r := newRunner(stub)

	o := r.Verify(context.Background(), root, m)
	if o.Passed {
		t.Fatal("zero exit without sentinel must not pass")
	}
	if o.Message != "verification outcome unclear: simulation complete" {
		t.Errorf("message = %q", o.Message)
	}
}

func TestVerifyNonZeroExitPrefersStderr(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{result: &CommandResult{
		Stdout:   []byte("partial output\n"),
		Stderr:   []byte("error: node 4 diverged\n"),
		ExitCode: 1,
	}}
	r := newRunner(stub)

	o := r.Verify(context.Background(), root, m)
	if o.Passed {
		t.Fatal("expected failure")
	}
	if o.Message != "error: node 4 diverged" {
		t.Errorf("message = %q, want stderr diagnostic", o.Message)
	}
}

func TestVerifyNonZeroExitFallsBackToStdout(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{result: &CommandResult{
		Stdout:   []byte("usage: kalixcli sim <model>\n"),
		Stderr:   []byte("  \n"),
		ExitCode: 2,
	}}
	r := newRunner(stub)

	o := r.Verify(context.Background(), root, m)
	if o.Passed {
		t.Fatal("expected failure")
	}
	if o.Message != "usage: kalixcli sim <model>" {
		t.Errorf("message = %q, want stdout fallback", o.Message)
	}
}

func TestVerifyTimeout(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{block: true}
	r := newRunner(stub)
	r.Timeout = 20 * time.Millisecond

	start := time.Now()
	o := r.Verify(context.Background(), root, m)
	if o.Passed {
		t.Fatal("expected failure")
	}
	if o.Message != "execution exceeded the time limit" {
		t.Errorf("message = %q, want time-limit notice", o.Message)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("verify took %v, timeout not enforced", elapsed)
	}
}

func TestVerifySpawnFault(t *testing.T) {
	root, m := newModel(t, true)
	stub := &stubExecutor{err: errors.New(`execute command "kalixcli": executable file not found in $PATH`)}
	r := newRunner(stub)

	o := r.Verify(context.Background(), root, m)
	if o.Passed {
		t.Fatal("expected failure")
	}
	if !strings.Contains(o.Message, "executable file not found") {
		t.Errorf("message = %q, want fault description", o.Message)
	}
}

func TestExcerptTruncation(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "line %03d\n", i)
	}
	got := excerpt([]byte(b.String()))
	if !strings.HasPrefix(got, "… ") {
		t.Errorf("expected truncation marker, got %q", got[:20])
	}
	if !strings.Contains(got, "line 099") {
		t.Error("expected the tail to be kept")
	}
	if strings.Contains(got, "line 000") {
		t.Error("expected the head to be dropped")
	}

	long := strings.Repeat("x", 10000)
	if got := excerpt([]byte(long)); len(got) > excerptMaxBytes+4 {
		t.Errorf("excerpt length %d exceeds cap", len(got))
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if r.Timeout != 300*time.Second {
		t.Errorf("timeout = %v, want 300s", r.Timeout)
	}
	if r.Reference != "mbal_for_verification.txt" {
		t.Errorf("reference = %q", r.Reference)
	}
	if _, ok := r.Executor.(*RealExecutor); !ok {
		t.Errorf("executor = %T, want *RealExecutor", r.Executor)
	}

	cfg.Timeout = "bogus"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid timeout")
	}
}
