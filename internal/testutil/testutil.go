// Package testutil provides fakes and canned agent output for tests.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/vnicctl/vnicctl/pkg/agent"
)

// Step scripts one FakeRunner response. Match is a substring of the
// joined argv; the empty string matches any command. Each step is
// consumed once, in order.
type Step struct {
	Match  string
	Result agent.CommandResult

	used bool
}

// FakeRunner replays scripted results and records every invocation.
// Commands not covered by a step get the Default result.
type FakeRunner struct {
	mu       sync.Mutex
	Steps    []Step
	Default  agent.CommandResult
	Commands []string
}

// Run consumes the first unused step matching the command.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) agent.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := strings.Join(append([]string{name}, args...), " ")
	f.Commands = append(f.Commands, cmd)
	for i := range f.Steps {
		if f.Steps[i].used {
			continue
		}
		if f.Steps[i].Match == "" || strings.Contains(cmd, f.Steps[i].Match) {
			f.Steps[i].used = true
			return f.Steps[i].Result
		}
	}
	return f.Default
}

// CommandsMatching returns the recorded commands containing substr.
func (f *FakeRunner) CommandsMatching(substr string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Commands {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}

// Output is a successful CommandResult carrying s.
func Output(s string) agent.CommandResult {
	return agent.CommandResult{Output: []byte(s), ExitCode: 0}
}

// Fail is a ran-but-failed CommandResult with the given exit code.
func Fail(code int, s string) agent.CommandResult {
	return agent.CommandResult{Output: []byte(s), ExitCode: code}
}

// FakeProber serves per-interface address sets from a map and records
// probe order.
type FakeProber struct {
	Sets  map[string][]string
	Errs  map[string]error
	Calls []string
}

// Addrs returns the scripted set for iface.
func (f *FakeProber) Addrs(_ context.Context, iface string) ([]string, error) {
	f.Calls = append(f.Calls, iface)
	if err := f.Errs[iface]; err != nil {
		return nil, err
	}
	return f.Sets[iface], nil
}
