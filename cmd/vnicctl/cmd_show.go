package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/converge"
	"github.com/vnicctl/vnicctl/pkg/report"
	"github.com/vnicctl/vnicctl/pkg/util"
)

// showRow is the JSON view of one evaluated interface.
type showRow struct {
	Interface string   `json:"interface"`
	Expected  string   `json:"expected,omitempty"`
	Observed  []string `json:"observed,omitempty"`
	Status    string   `json:"status"`
}

// showView is the JSON view of one evaluation cycle.
type showView struct {
	Rows      []showRow `json:"rows"`
	Total     int       `json:"total"`
	Pending   int       `json:"pending"`
	Missing   int       `json:"missing"`
	Converged bool      `json:"converged"`
}

func newShowCmd() *cobra.Command {
	var remote remoteFlags
	var lf loopFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one agent report evaluated against OS state",
		Long: `Fetch the agent's report once and evaluate it against live OS state.
No polling; the exit status reflects this single cycle.

Examples:
  vnicctl show
  vnicctl show --json
  vnicctl show --ssh opc@203.0.113.7 --ssh-key ~/.ssh/id_ed25519`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			runner, closeRunner, err := remote.runner()
			if err != nil {
				return err
			}
			defer closeRunner()

			src := agent.NewSource(runner, lf.argv())
			res := src.Fetch(ctx)
			if res.Err != nil {
				return fmt.Errorf("agent %s: %w", src.Command(), res.Err)
			}
			if res.ExitCode != 0 {
				util.Warnf("agent exited %d, parsing output anyway", res.ExitCode)
			}

			rep := report.NewParser(cfg.Agent.NICPrefixes...).Parse(res.Text())

			var result converge.CycleResult
			var verdicts []converge.Verdict
			if !rep.Empty() {
				ev := &converge.Evaluator{Prober: remote.prober(runner)}
				result, verdicts = ev.Evaluate(ctx, rep.Rows)
			}

			if jsonOutput {
				if err := json.NewEncoder(os.Stdout).Encode(buildShowView(result, verdicts)); err != nil {
					return err
				}
				return cycleStatus(rep, result)
			}

			if rep.Empty() {
				fmt.Println("Agent reported no interfaces yet.")
				return cycleStatus(rep, result)
			}

			converge.WriteVerdicts(os.Stdout, verdicts)
			fmt.Println()
			if result.Converged() {
				fmt.Printf("%s %d interface(s) configured\n", green("converged:"), result.Total)
			} else {
				fmt.Printf("%s %d reported, %d awaiting agent address, %d not configured\n",
					yellow("not converged:"), result.Total, result.MissingIP, result.Unmatched)
			}
			return cycleStatus(rep, result)
		},
	}

	lf.registerAgent(cmd)
	remote.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	return cmd
}

func buildShowView(result converge.CycleResult, verdicts []converge.Verdict) showView {
	view := showView{
		Rows:      make([]showRow, 0, len(verdicts)),
		Total:     result.Total,
		Pending:   result.MissingIP,
		Missing:   result.Unmatched,
		Converged: result.Converged(),
	}
	for _, v := range verdicts {
		view.Rows = append(view.Rows, showRow{
			Interface: v.Row.Name,
			Expected:  v.Row.IP,
			Observed:  v.Observed,
			Status:    v.Status(),
		})
	}
	return view
}

// cycleStatus translates the single cycle into the process exit: nil
// when converged, ErrNotConverged otherwise.
func cycleStatus(rep report.Report, result converge.CycleResult) error {
	if !rep.Empty() && result.Converged() {
		return nil
	}
	return util.ErrNotConverged
}
