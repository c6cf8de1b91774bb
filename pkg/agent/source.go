package agent

import (
	"context"
	"strings"
)

// Source invokes the report agent. One Fetch per poll cycle; the argv
// never changes between cycles.
type Source struct {
	runner Runner
	argv   []string
}

// NewSource wraps a runner with the agent's argv.
func NewSource(runner Runner, argv []string) *Source {
	return &Source{runner: runner, argv: argv}
}

// Fetch runs the agent once and returns its combined output and exit
// code. A non-zero exit is not an error here; the agent may exit
// non-zero while still emitting a usable partial report.
func (s *Source) Fetch(ctx context.Context) CommandResult {
	return s.runner.Run(ctx, s.argv[0], s.argv[1:]...)
}

// Command returns the agent invocation as a printable string.
func (s *Source) Command() string {
	return strings.Join(s.argv, " ")
}
