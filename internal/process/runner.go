// Package process runs external commands.
//
// The Runner interface keeps the compose action executor and the docker
// container runtime testable without real binaries: production code uses
// ExecRunner, tests use MockRunner.
package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes external commands.
//
// Implementations must be safe for concurrent use.
type Runner interface {
	// RunInDir runs name with args in dir and waits for it to finish.
	//
	// A nil env inherits the current process environment; a non-nil env
	// replaces it. A non-zero exit is reported both as exitCode and as a
	// non-nil err wrapping *exec.ExitError. When the command cannot be
	// started, exitCode is -1.
	RunInDir(ctx context.Context, dir string, env []string, name string, args ...string) (stdout, stderr string, exitCode int, err error)

	// RunCombined runs name with args and returns stdout and stderr
	// interleaved in the order they were written.
	RunCombined(ctx context.Context, name string, args ...string) (output []byte, exitCode int, err error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner that executes real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// RunInDir implements Runner.
func (r *ExecRunner) RunInDir(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), exitCode(err), err
}

// RunCombined implements Runner.
func (r *ExecRunner) RunCombined(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return out, exitCode(err), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Compile-time interface compliance check.
var _ Runner = (*ExecRunner)(nil)
