package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnicctl/vnicctl/pkg/audit"
	"github.com/vnicctl/vnicctl/pkg/cli"
)

func newAuditCmd() *cobra.Command {
	var (
		operation  string
		instance   string
		userFilter string
		last       string
		limit      int
		failures   bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the provisioning journal",
		Long: `Query the journal of provisioning actions. Every control-plane call
and convergence wait is recorded with user, operation, outcome, and
duration.

Examples:
  vnicctl audit
  vnicctl audit --operation vnic.attach
  vnicctl audit --failures --last 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := audit.Filter{
				Operation:   operation,
				Instance:    instance,
				User:        userFilter,
				Limit:       limit,
				FailureOnly: failures,
			}
			if last != "" {
				d, err := time.ParseDuration(last)
				if err != nil {
					return fmt.Errorf("invalid duration: %s", last)
				}
				filter.StartTime = time.Now().Add(-d)
			}

			events, err := audit.Query(filter)
			if err != nil {
				return fmt.Errorf("querying journal: %w", err)
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(events)
			}

			if len(events) == 0 {
				fmt.Println("No journal events found")
				return nil
			}

			tbl := cli.NewTable(os.Stdout, "TIMESTAMP", "USER", "OPERATION", "TARGET", "STATUS")
			for _, e := range events {
				target := e.Vnic
				if target == "" {
					target = e.PublicIP
				}
				status := green("ok")
				if !e.Success {
					status = red("failed")
				}
				tbl.Row(e.Timestamp.Format("2006-01-02 15:04:05"), e.User, e.Operation, target, status)
			}
			tbl.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "filter by operation (e.g. vnic.attach)")
	cmd.Flags().StringVar(&instance, "instance", "", "filter by instance OCID")
	cmd.Flags().StringVar(&userFilter, "user", "", "filter by user")
	cmd.Flags().StringVar(&last, "last", "", "events from the last duration (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum events to show")
	cmd.Flags().BoolVar(&failures, "failures", false, "show only failed operations")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	return cmd
}
