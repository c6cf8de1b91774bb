//go:build e2e

package e2e_test

import (
	"reflect"
	"sort"
	"testing"

	"github.com/vnicctl/vnicctl/internal/testutil"
	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/converge"
	"github.com/vnicctl/vnicctl/pkg/osnet"
	"github.com/vnicctl/vnicctl/pkg/report"
)

// TestE2E_ShowCycle runs one fetch/parse/evaluate cycle against the
// real agent and kernel, asserting the structural invariants that hold
// regardless of how far along the instance's configuration is.
func TestE2E_ShowCycle(t *testing.T) {
	testutil.SkipIfNotLive(t)
	argv := testutil.AgentArgv(t)
	ctx := testutil.LiveContext(t)

	src := agent.NewSource(&agent.LocalRunner{}, argv)
	res := src.Fetch(ctx)
	if res.Err != nil {
		t.Fatalf("agent %s: %v", src.Command(), res.Err)
	}

	rep := report.Parse(res.Text())
	if rep.Empty() {
		t.Skipf("agent reported no interfaces yet:\n%s", res.Text())
	}

	ev := &converge.Evaluator{Prober: osnet.NetlinkProber{}}
	result, verdicts := ev.Evaluate(ctx, rep.Rows)

	if result.Total != len(rep.Rows) {
		t.Errorf("Total = %d, want %d (one per parsed row)", result.Total, len(rep.Rows))
	}
	if len(verdicts) != len(rep.Rows) {
		t.Fatalf("verdicts = %d, want %d", len(verdicts), len(rep.Rows))
	}
	matched := 0
	for i, v := range verdicts {
		if v.Row != rep.Rows[i] {
			t.Errorf("verdict %d is for %+v, want %+v (agent row order)", i, v.Row, rep.Rows[i])
		}
		switch v.Status() {
		case "matched":
			matched++
		case "pending", "missing":
		default:
			t.Errorf("verdict %d has unknown status %q", i, v.Status())
		}
	}
	if matched+result.MissingIP+result.Unmatched != result.Total {
		t.Errorf("counts do not partition the rows: matched=%d pending=%d missing=%d total=%d",
			matched, result.MissingIP, result.Unmatched, result.Total)
	}
	t.Logf("cycle: %d reported, %d matched, %d pending, %d missing",
		result.Total, matched, result.MissingIP, result.Unmatched)
}

// TestE2E_WaitConvergesOnSettledInstance polls a settled instance,
// which should converge within a short budget because nothing is in
// flight.
func TestE2E_WaitConvergesOnSettledInstance(t *testing.T) {
	testutil.SkipIfNotLive(t)
	argv := testutil.AgentArgv(t)
	ctx := testutil.LiveContext(t)

	cfg := converge.DefaultConfig()
	cfg.MaxAttempts = 20

	loop := converge.NewLoop(
		agent.NewSource(&agent.LocalRunner{}, argv),
		report.NewParser(),
		osnet.NetlinkProber{},
		cfg,
	)

	snap, err := loop.Run(ctx)
	if err != nil {
		t.Fatalf("settled instance did not converge in %d attempts: %v\nlast block:\n%s",
			cfg.MaxAttempts, err, snap.Report.Block)
	}
	if !snap.Result.Converged() {
		t.Errorf("nil error but result not converged: %+v", snap.Result)
	}
	t.Logf("converged after %d attempt(s), %d interface(s)", snap.Attempt, snap.Result.Total)
}

// TestE2E_ProbersAgree cross-checks the netlink prober against `ip -o
// -4 addr show` on every interface the agent reports. Both read the
// same kernel, so their observed sets must be identical.
func TestE2E_ProbersAgree(t *testing.T) {
	testutil.SkipIfNotLive(t)
	argv := testutil.AgentArgv(t)
	ctx := testutil.LiveContext(t)

	res := agent.NewSource(&agent.LocalRunner{}, argv).Fetch(ctx)
	if res.Err != nil {
		t.Fatalf("agent: %v", res.Err)
	}
	rep := report.Parse(res.Text())
	if rep.Empty() {
		t.Skip("agent reported no interfaces yet")
	}

	nl := osnet.NetlinkProber{}
	cmd := &osnet.CommandProber{Runner: &agent.LocalRunner{}}

	for _, row := range rep.Rows {
		t.Run(row.Name, func(t *testing.T) {
			fromNetlink, err := nl.Addrs(ctx, row.Name)
			if err != nil {
				t.Fatalf("netlink: %v", err)
			}
			fromCommand, err := cmd.Addrs(ctx, row.Name)
			if err != nil {
				t.Fatalf("ip command: %v", err)
			}

			sort.Strings(fromNetlink)
			sort.Strings(fromCommand)
			if !reflect.DeepEqual(fromNetlink, fromCommand) {
				t.Errorf("probers disagree: netlink=%v ip=%v", fromNetlink, fromCommand)
			}
		})
	}
}
