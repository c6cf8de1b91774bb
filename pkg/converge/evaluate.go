package converge

import (
	"context"
	"strings"

	"github.com/vnicctl/vnicctl/pkg/osnet"
	"github.com/vnicctl/vnicctl/pkg/report"
	"github.com/vnicctl/vnicctl/pkg/util"
)

// Evaluator cross-references agent expectation rows against live OS
// state through a Prober.
type Evaluator struct {
	Prober osnet.Prober
}

// Evaluate computes the cycle result for rows, probing the OS once per
// row with an address, in agent row order. The comparison is exact
// string membership of the expected dotted quad in the observed set; no
// subnet awareness. A probe failure degrades to an empty observed set
// and is logged; it never aborts the cycle. Given the same rows and
// observed state, Evaluate returns identical results.
func (e *Evaluator) Evaluate(ctx context.Context, rows []report.Row) (CycleResult, []Verdict) {
	result := CycleResult{Total: len(rows)}
	verdicts := make([]Verdict, 0, len(rows))

	for _, row := range rows {
		v := Verdict{Row: row}
		log := util.WithInterface(row.Name)

		if !row.HasIP() {
			result.MissingIP++
			log.Info("agent has not assigned an address yet")
			verdicts = append(verdicts, v)
			continue
		}

		observed, err := e.Prober.Addrs(ctx, row.Name)
		if err != nil {
			log.Warnf("probe failed, treating as no addresses: %v", err)
			observed = nil
		}
		v.Observed = observed
		v.Matched = containsAddr(observed, row.IP)

		if v.Matched {
			log.Infof("%s is configured", row.IP)
		} else {
			result.Unmatched++
			log.Infof("%s not configured yet (observed: %s)", row.IP, describeSet(observed))
		}
		verdicts = append(verdicts, v)
	}

	return result, verdicts
}

func containsAddr(set []string, addr string) bool {
	for _, a := range set {
		if a == addr {
			return true
		}
	}
	return false
}

func describeSet(set []string) string {
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ", ")
}
