// Package agent runs external commands for the convergence engine: the
// network configuration agent itself, OS-level queries, and the cloud
// CLI. Commands run locally or over SSH behind one Runner interface.
package agent

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/vnicctl/vnicctl/pkg/util"
)

// CommandResult is the outcome of one external command invocation.
// ExitCode is meaningful only when Err is nil; Err is set when the
// command could not run at all (spawn failure, session failure, context
// cancelled), in which case ExitCode is -1. A command that ran and
// exited non-zero has Err nil and its real exit code, because callers
// decide per call whether a non-zero exit matters.
type CommandResult struct {
	Output   []byte
	ExitCode int
	Err      error
}

// Ok reports whether the command ran and exited zero.
func (r CommandResult) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Text returns the combined output as a string.
func (r CommandResult) Text() string {
	return string(r.Output)
}

// Runner executes a command and captures its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) CommandResult
}

// DefaultTimeout bounds a single command invocation when the caller's
// context carries no deadline of its own.
const DefaultTimeout = 2 * time.Minute

// LocalRunner executes commands on this host.
type LocalRunner struct {
	// Timeout per invocation; DefaultTimeout when zero.
	Timeout time.Duration
}

// Run executes the command with combined stdout+stderr capture.
func (l *LocalRunner) Run(ctx context.Context, name string, args ...string) CommandResult {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	util.Debugf("exec: %s %s", name, strings.Join(args, " "))
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return CommandResult{Output: out, ExitCode: -1, Err: ctxErr}
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return CommandResult{Output: out, ExitCode: exitErr.ExitCode()}
		}
		return CommandResult{Output: out, ExitCode: -1, Err: err}
	}
	return CommandResult{Output: out, ExitCode: 0}
}
