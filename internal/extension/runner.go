// Package extension drives the editor CLI to list and install extensions and
// builds the cross-profile extension matrix shown before an apply.
package extension

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// RunResult is the captured outcome of an external command.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs an external command and captures its output and exit code.
// A non-zero exit is reported through RunResult.ExitCode, not as an error;
// errors mean the command could not be run at all.
type Runner interface {
	Run(ctx context.Context, env []string, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Command builds the command; nil means exec.CommandContext.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Run implements Runner. env is appended to the process environment.
func (r ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) (RunResult, error) {
	newCmd := r.Command
	if newCmd == nil {
		newCmd = exec.CommandContext
	}
	cmd := newCmd(ctx, name, args...)
	if len(env) > 0 {
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = append(cmd.Env, env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("running %s: %w", name, err)
	}
	return res, nil
}
