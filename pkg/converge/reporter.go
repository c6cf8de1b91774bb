package converge

import (
	"fmt"
	"io"
	"strings"

	"github.com/vnicctl/vnicctl/pkg/cli"
	"github.com/vnicctl/vnicctl/pkg/report"
)

// WriteReport renders the terminal outcome for the operator. On
// convergence it prints a one-line confirmation. On exhaustion it prints
// the last recognized block verbatim, the cycle counts, and a per-row
// verdict table so a human can see which interfaces never matched.
func WriteReport(w io.Writer, snap *Snapshot, converged bool) {
	if converged {
		fmt.Fprintf(w, "%s network configuration converged after %d attempt(s): %d interface(s) configured\n",
			cli.Green("ok:"), snap.Attempt, snap.Result.Total)
		return
	}

	fmt.Fprintf(w, "%s network configuration did not converge after %d attempt(s)\n",
		cli.Red("error:"), snap.Attempt)

	fmt.Fprintf(w, "\nLast agent report:\n")
	if snap.Report.Block == "" {
		fmt.Fprintf(w, "  %s\n", cli.Dim("(no recognized configuration block)"))
	} else {
		for _, line := range strings.Split(snap.Report.Block, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d\n", cli.DotPad("interfaces reported", 28), snap.Result.Total)
	fmt.Fprintf(w, "%s %d\n", cli.DotPad("awaiting agent address", 28), snap.Result.MissingIP)
	fmt.Fprintf(w, "%s %d\n", cli.DotPad("address not configured", 28), snap.Result.Unmatched)

	WriteVerdicts(w, snap.Verdicts)
}

// WriteVerdicts renders the per-row verdict table. No output for an
// empty verdict list.
func WriteVerdicts(w io.Writer, verdicts []Verdict) {
	if len(verdicts) == 0 {
		return
	}
	fmt.Fprintln(w)
	tbl := cli.NewTable(w, "IFACE", "EXPECTED", "OBSERVED", "STATUS")
	for _, v := range verdicts {
		expected := v.Row.IP
		if expected == "" {
			expected = report.NoIPSentinel
		}
		tbl.Row(v.Row.Name, expected, strings.Join(v.Observed, ", "), colorStatus(v.Status()))
	}
	tbl.Flush()
}

func colorStatus(status string) string {
	switch status {
	case "matched":
		return cli.Green(status)
	case "pending":
		return cli.Yellow(status)
	default:
		return cli.Red(status)
	}
}
