package converge

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vnicctl/vnicctl/internal/testutil"
	"github.com/vnicctl/vnicctl/pkg/report"
)

func TestCycleResult_Converged(t *testing.T) {
	tests := []struct {
		name   string
		result CycleResult
		want   bool
	}{
		{"all matched", CycleResult{Total: 2, MissingIP: 0, Unmatched: 0}, true},
		{"zero rows never converges", CycleResult{Total: 0, MissingIP: 0, Unmatched: 0}, false},
		{"pending agent address", CycleResult{Total: 2, MissingIP: 1, Unmatched: 0}, false},
		{"unmatched address", CycleResult{Total: 2, MissingIP: 0, Unmatched: 1}, false},
		{"both failing", CycleResult{Total: 3, MissingIP: 1, Unmatched: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Converged(); got != tt.want {
				t.Errorf("Converged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_AllPendingRows(t *testing.T) {
	prober := &testutil.FakeProber{}
	e := &Evaluator{Prober: prober}
	rows := []report.Row{
		{Name: "ens3", IP: ""},
		{Name: "ens5", IP: ""},
		{Name: "ens6", IP: ""},
	}

	result, verdicts := e.Evaluate(context.Background(), rows)

	if result.MissingIP != 3 {
		t.Errorf("MissingIP = %d, want 3", result.MissingIP)
	}
	if result.Unmatched != 0 {
		t.Errorf("Unmatched = %d, want 0", result.Unmatched)
	}
	if result.Converged() {
		t.Error("cycle with pending rows must not converge")
	}
	if len(prober.Calls) != 0 {
		t.Errorf("pending rows must not be probed, got probes for %v", prober.Calls)
	}
	for _, v := range verdicts {
		if v.Status() != "pending" {
			t.Errorf("verdict for %s = %s, want pending", v.Row.Name, v.Status())
		}
	}
}

func TestEvaluator_MatchedRow(t *testing.T) {
	prober := &testutil.FakeProber{Sets: map[string][]string{
		"ens5": {"10.0.0.12"},
	}}
	e := &Evaluator{Prober: prober}
	rows := []report.Row{{Name: "ens5", IP: "10.0.0.12"}}

	result, verdicts := e.Evaluate(context.Background(), rows)

	if result.Unmatched != 0 {
		t.Errorf("Unmatched = %d, want 0", result.Unmatched)
	}
	if !result.Converged() {
		t.Error("single matched row should converge")
	}
	if !verdicts[0].Matched {
		t.Error("verdict should be matched")
	}
}

func TestEvaluator_UnmatchedRow(t *testing.T) {
	tests := []struct {
		name     string
		observed []string
	}{
		{"empty observed set", nil},
		{"different address bound", []string{"10.0.0.9"}},
		{"several wrong addresses", []string{"10.0.0.9", "10.0.0.10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &testutil.FakeProber{Sets: map[string][]string{"ens5": tt.observed}}
			e := &Evaluator{Prober: prober}
			rows := []report.Row{{Name: "ens5", IP: "10.0.0.12"}}

			result, verdicts := e.Evaluate(context.Background(), rows)

			if result.Unmatched != 1 {
				t.Errorf("Unmatched = %d, want 1", result.Unmatched)
			}
			if verdicts[0].Matched {
				t.Error("verdict should not be matched")
			}
			if verdicts[0].Status() != "missing" {
				t.Errorf("Status() = %s, want missing", verdicts[0].Status())
			}
		})
	}
}

func TestEvaluator_MixedRows(t *testing.T) {
	prober := &testutil.FakeProber{Sets: map[string][]string{
		"ens3": {"10.0.0.2"},
		"ens5": {"10.0.0.9"},
	}}
	e := &Evaluator{Prober: prober}
	rows := []report.Row{
		{Name: "ens3", IP: "10.0.0.2"}, // matched
		{Name: "ens5", IP: "10.0.0.5"}, // wrong address bound
		{Name: "ens6", IP: ""},         // agent still pending
	}

	result, _ := e.Evaluate(context.Background(), rows)

	want := CycleResult{Total: 3, MissingIP: 1, Unmatched: 1}
	if result != want {
		t.Errorf("result = %+v, want %+v", result, want)
	}
}

func TestEvaluator_Idempotent(t *testing.T) {
	rows := []report.Row{
		{Name: "ens3", IP: "10.0.0.2"},
		{Name: "ens5", IP: ""},
	}
	sets := map[string][]string{"ens3": {"10.0.0.2"}}

	e1 := &Evaluator{Prober: &testutil.FakeProber{Sets: sets}}
	r1, v1 := e1.Evaluate(context.Background(), rows)

	e2 := &Evaluator{Prober: &testutil.FakeProber{Sets: sets}}
	r2, v2 := e2.Evaluate(context.Background(), rows)

	if r1 != r2 {
		t.Errorf("results differ across identical evaluations: %+v vs %+v", r1, r2)
	}
	if !reflect.DeepEqual(v1, v2) {
		t.Errorf("verdicts differ across identical evaluations: %v vs %v", v1, v2)
	}
}

func TestEvaluator_ProbeErrorDegrades(t *testing.T) {
	prober := &testutil.FakeProber{
		Sets: map[string][]string{"ens3": {"10.0.0.2"}},
		Errs: map[string]error{"ens5": errors.New("netlink: permission denied")},
	}
	e := &Evaluator{Prober: prober}
	rows := []report.Row{
		{Name: "ens3", IP: "10.0.0.2"},
		{Name: "ens5", IP: "10.0.0.5"},
	}

	result, verdicts := e.Evaluate(context.Background(), rows)

	// The failing probe counts as an empty observed set; the cycle
	// completes and the other row still evaluates normally.
	if result.Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1", result.Unmatched)
	}
	if !verdicts[0].Matched {
		t.Error("healthy row should still match")
	}
	if verdicts[1].Matched || len(verdicts[1].Observed) != 0 {
		t.Errorf("failed probe should yield an empty observed set, got %v", verdicts[1].Observed)
	}
}

func TestEvaluator_VerdictOrderMatchesRows(t *testing.T) {
	prober := &testutil.FakeProber{Sets: map[string][]string{}}
	e := &Evaluator{Prober: prober}
	rows := []report.Row{
		{Name: "ens5", IP: "10.0.0.5"},
		{Name: "ens3", IP: "10.0.0.2"},
		{Name: "eno1", IP: "10.0.0.7"},
	}

	_, verdicts := e.Evaluate(context.Background(), rows)

	for i, v := range verdicts {
		if v.Row.Name != rows[i].Name {
			t.Errorf("verdict %d is for %s, want %s (agent row order)", i, v.Row.Name, rows[i].Name)
		}
	}
	if !reflect.DeepEqual(prober.Calls, []string{"ens5", "ens3", "eno1"}) {
		t.Errorf("probe order = %v, want agent row order", prober.Calls)
	}
}

func TestEvaluator_DuplicateRowsEvaluateIndependently(t *testing.T) {
	// Duplicate interface names each contribute their own verdict: the
	// cycle requires all of them to match.
	prober := &testutil.FakeProber{Sets: map[string][]string{
		"ens5": {"10.0.0.5"},
	}}
	e := &Evaluator{Prober: prober}
	rows := []report.Row{
		{Name: "ens5", IP: "10.0.0.5"},
		{Name: "ens5", IP: "10.0.0.6"},
	}

	result, verdicts := e.Evaluate(context.Background(), rows)

	if result.Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1 (second duplicate row misses)", result.Unmatched)
	}
	if !verdicts[0].Matched || verdicts[1].Matched {
		t.Errorf("verdicts = [%v %v], want [matched missing]",
			verdicts[0].Matched, verdicts[1].Matched)
	}
}

func TestVerdict_Status(t *testing.T) {
	tests := []struct {
		name    string
		verdict Verdict
		want    string
	}{
		{"matched", Verdict{Row: report.Row{Name: "ens5", IP: "10.0.0.5"}, Matched: true}, "matched"},
		{"pending", Verdict{Row: report.Row{Name: "ens5", IP: ""}}, "pending"},
		{"missing", Verdict{Row: report.Row{Name: "ens5", IP: "10.0.0.5"}}, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.verdict.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}
