package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnicctl/vnicctl/pkg/converge"
)

func newWaitCmd() *cobra.Command {
	var remote remoteFlags
	var lf loopFlags

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Poll until OS network configuration converges",
		Long: `Poll the network configuration agent's report against live OS state
until every reported interface has its expected address bound, or the
attempt budget is spent.

Empty reports wait longer between polls (the control plane is still
synchronizing); mismatched reports poll eagerly. Exit 0 on convergence,
1 on exhaustion.

Examples:
  vnicctl wait
  vnicctl wait --max-attempts 60 --mismatch-wait 2s
  vnicctl wait --ssh opc@203.0.113.7 --ssh-key ~/.ssh/id_ed25519`,
		RunE: func(cmd *cobra.Command, args []string) error {
			enableProgressLogs()

			runner, closeRunner, err := remote.runner()
			if err != nil {
				return err
			}
			defer closeRunner()

			loop := lf.loop(runner, remote.prober(runner))
			snap, err := loop.Run(context.Background())
			if err != nil {
				var convErr *converge.ConvergenceError
				if errors.As(err, &convErr) {
					converge.WriteReport(os.Stdout, snap, false)
				}
				return err
			}

			converge.WriteReport(os.Stdout, snap, true)
			return nil
		},
	}

	lf.register(cmd)
	remote.register(cmd)
	return cmd
}
