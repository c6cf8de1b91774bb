// Package converge implements the convergence-polling engine: bounded
// retries of agent report fetch, parse, and OS state comparison until
// every reported interface has its expected address bound at the kernel
// level.
package converge

import (
	"github.com/vnicctl/vnicctl/pkg/report"
)

// CycleResult is the aggregate outcome of one evaluation cycle.
type CycleResult struct {
	Total     int // rows reported by the agent
	MissingIP int // rows where the agent itself has no address yet
	Unmatched int // rows whose expected address is absent from OS state
}

// Converged reports full agreement: the agent reported at least one
// row and every row's address is bound at the OS level. All three
// conditions are necessary; any one failing means retry.
func (c CycleResult) Converged() bool {
	return c.Total > 0 && c.MissingIP == 0 && c.Unmatched == 0
}

// Verdict is the per-row outcome of one cycle, kept in agent row order.
type Verdict struct {
	Row      report.Row
	Observed []string // OS addresses at probe time; nil for pending rows
	Matched  bool
}

// Status describes the row for diagnostics: "matched", "missing" (the
// expected address is not bound), or "pending" (the agent has not
// assigned an address yet).
func (v Verdict) Status() string {
	switch {
	case v.Matched:
		return "matched"
	case !v.Row.HasIP():
		return "pending"
	default:
		return "missing"
	}
}

// Snapshot is the state of the most recent poll cycle. The loop owns it
// and passes it forward; there is no package-level last-known state.
type Snapshot struct {
	Attempt  int
	Report   report.Report
	Result   CycleResult
	Verdicts []Verdict
}
