package converge

import (
	"context"
	"fmt"
	"time"

	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/osnet"
	"github.com/vnicctl/vnicctl/pkg/report"
	"github.com/vnicctl/vnicctl/pkg/util"
)

// RetryReason tags why a cycle did not converge. The reason selects the
// wait before the next attempt.
type RetryReason int

const (
	// ReasonEmptyTable: the agent reported no rows. The control plane
	// is still synchronizing, so the wait is longer.
	ReasonEmptyTable RetryReason = iota
	// ReasonMismatch: rows exist but at least one address is still
	// missing. Convergence is near, so polls are eager.
	ReasonMismatch
)

func (r RetryReason) String() string {
	if r == ReasonEmptyTable {
		return "empty-table"
	}
	return "mismatch"
}

// Config bounds the reconciliation loop. Intervals are constant per
// retry reason; there is no backoff growth. The expected convergence
// window is seconds, and exponential backoff would waste the early,
// most likely to succeed retries.
type Config struct {
	MaxAttempts    int
	EmptyTableWait time.Duration
	MismatchWait   time.Duration
}

// DefaultConfig returns the stock retry budget.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    120,
		EmptyTableWait: 3 * time.Second,
		MismatchWait:   1 * time.Second,
	}
}

// Wait maps a retry reason to its pause.
func (c Config) Wait(reason RetryReason) time.Duration {
	if reason == ReasonEmptyTable {
		return c.EmptyTableWait
	}
	return c.MismatchWait
}

// ConvergenceError reports attempt exhaustion, carrying the final
// snapshot for the diagnostic reporter.
type ConvergenceError struct {
	Attempts int
	Snapshot *Snapshot
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("not converged after %d attempts (reported=%d pending=%d missing=%d)",
		e.Attempts, e.Snapshot.Result.Total, e.Snapshot.Result.MissingIP, e.Snapshot.Result.Unmatched)
}

func (e *ConvergenceError) Unwrap() error {
	return util.ErrNotConverged
}

// Loop drives repeated agent invocations through parse and evaluation
// until the OS matches the agent's table or the attempt budget is
// spent. Cycles are strictly sequential; the only suspension points are
// the fixed waits between attempts.
type Loop struct {
	Source    *agent.Source
	Parser    *report.Parser
	Evaluator *Evaluator
	Config    Config

	// sleep is replaced in tests to observe waits without serving them.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop assembles a loop from its parts.
func NewLoop(src *agent.Source, parser *report.Parser, prober osnet.Prober, cfg Config) *Loop {
	return &Loop{
		Source:    src,
		Parser:    parser,
		Evaluator: &Evaluator{Prober: prober},
		Config:    cfg,
		sleep:     sleepCtx,
	}
}

// Run polls until convergence or exhaustion and returns the last
// snapshot either way. The error is nil on convergence, a
// *ConvergenceError wrapping ErrNotConverged on exhaustion, or the
// context's error when the operator interrupts. Nothing else escapes:
// agent failures and malformed output are transient states, not errors.
func (l *Loop) Run(ctx context.Context) (*Snapshot, error) {
	cfg := l.Config
	snap := &Snapshot{}

	util.Infof("waiting for network configuration to converge (up to %d attempts)", cfg.MaxAttempts)
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return snap, err
		}

		res := l.Source.Fetch(ctx)
		if res.Err != nil {
			util.WithAttempt(attempt).Warnf("agent invocation failed: %v", res.Err)
		} else if res.ExitCode != 0 {
			// The agent may exit non-zero while still emitting a usable
			// partial report; the exit code never gates retry logic.
			util.WithAttempt(attempt).Warnf("agent exited %d, parsing output anyway", res.ExitCode)
		}

		rep := l.Parser.Parse(res.Text())
		snap = &Snapshot{Attempt: attempt, Report: rep}

		var reason RetryReason
		if rep.Empty() {
			reason = ReasonEmptyTable
			util.WithAttempt(attempt).Info("agent reported no interfaces yet")
		} else {
			result, verdicts := l.Evaluator.Evaluate(ctx, rep.Rows)
			snap.Result = result
			snap.Verdicts = verdicts

			if result.Converged() {
				util.WithAttempt(attempt).Infof("converged: %d interface(s) configured", result.Total)
				return snap, nil
			}
			reason = ReasonMismatch
			util.WithAttempt(attempt).Infof("not converged: reported=%d pending=%d missing=%d",
				result.Total, result.MissingIP, result.Unmatched)
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		util.WithAttempt(attempt).Debugf("retrying in %s (%s)", cfg.Wait(reason), reason)
		if err := l.sleep(ctx, cfg.Wait(reason)); err != nil {
			return snap, err
		}
	}

	return snap, &ConvergenceError{Attempts: cfg.MaxAttempts, Snapshot: snap}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
