package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/converge"
	"github.com/vnicctl/vnicctl/pkg/osnet"
	"github.com/vnicctl/vnicctl/pkg/report"
)

// remoteFlags carries the --ssh/--ssh-key pair for commands that can
// run against a remote instance.
type remoteFlags struct {
	target string
	key    string
}

func (r *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.target, "ssh", "", "run against a remote instance: [user@]host[:port]")
	cmd.Flags().StringVar(&r.key, "ssh-key", "", "private key file for --ssh")
}

// runner returns the command runner the flags select: an SSH session
// for a remote target, the local host otherwise. The closer hangs up
// the SSH connection.
func (r *remoteFlags) runner() (agent.Runner, func(), error) {
	if r.target == "" {
		return &agent.LocalRunner{Timeout: cfg.Agent.Timeout()}, func() {}, nil
	}
	if r.key == "" {
		return nil, nil, fmt.Errorf("--ssh requires --ssh-key")
	}
	user, addr := splitTarget(r.target)
	runner, err := agent.DialSSH(addr, user, r.key)
	if err != nil {
		return nil, nil, err
	}
	return runner, func() { runner.Close() }, nil
}

// prober picks netlink for the local kernel, or ip-command probing
// through the runner when the target is remote.
func (r *remoteFlags) prober(runner agent.Runner) osnet.Prober {
	if r.target == "" {
		return osnet.NetlinkProber{}
	}
	return &osnet.CommandProber{Runner: runner}
}

// splitTarget splits [user@]host[:port], defaulting the user to opc
// (the stock user on Oracle Linux images).
func splitTarget(target string) (user, addr string) {
	user = "opc"
	addr = target
	if i := strings.Index(target, "@"); i >= 0 {
		user, addr = target[:i], target[i+1:]
	}
	return user, addr
}

// loopFlags carries command-line overrides for the convergence retry
// budget and the agent invocation.
type loopFlags struct {
	maxAttempts  int
	emptyWait    time.Duration
	mismatchWait time.Duration
	agentCmd     string
}

func (l *loopFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&l.maxAttempts, "max-attempts", 0, "maximum poll attempts (config: convergence.max_attempts)")
	cmd.Flags().DurationVar(&l.emptyWait, "empty-wait", 0, "wait after a cycle with no reported interfaces")
	cmd.Flags().DurationVar(&l.mismatchWait, "mismatch-wait", 0, "wait after a cycle with unmatched addresses")
	l.registerAgent(cmd)
}

func (l *loopFlags) registerAgent(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.agentCmd, "agent", "", "report agent command (config: agent.command)")
}

// config folds the flag overrides over the file configuration.
func (l *loopFlags) config() converge.Config {
	out := converge.Config{
		MaxAttempts:    cfg.Convergence.MaxAttempts,
		EmptyTableWait: cfg.Convergence.EmptyTableWait(),
		MismatchWait:   cfg.Convergence.MismatchWait(),
	}
	if l.maxAttempts > 0 {
		out.MaxAttempts = l.maxAttempts
	}
	if l.emptyWait > 0 {
		out.EmptyTableWait = l.emptyWait
	}
	if l.mismatchWait > 0 {
		out.MismatchWait = l.mismatchWait
	}
	return out
}

// argv is the agent command line, with the --agent override applied.
func (l *loopFlags) argv() []string {
	if l.agentCmd != "" {
		return strings.Fields(l.agentCmd)
	}
	return cfg.Agent.Command
}

// loop assembles the convergence loop over runner and prober.
func (l *loopFlags) loop(runner agent.Runner, prober osnet.Prober) *converge.Loop {
	parser := report.NewParser(cfg.Agent.NICPrefixes...)
	return converge.NewLoop(agent.NewSource(runner, l.argv()), parser, prober, l.config())
}
