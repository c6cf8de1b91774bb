package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/cloud"
	"github.com/vnicctl/vnicctl/pkg/converge"
	"github.com/vnicctl/vnicctl/pkg/metadata"
	"github.com/vnicctl/vnicctl/pkg/osnet"
	"github.com/vnicctl/vnicctl/pkg/provision"
)

// buildProvisioner assembles the workflow orchestrator against the real
// collaborators: IMDS metadata, the oci CLI, and the configured journal.
func buildProvisioner() *provision.Provisioner {
	runner := &agent.LocalRunner{Timeout: cfg.Agent.Timeout()}
	cli := cloud.NewCLIClient(runner)
	cli.Bin = cfg.Cloud.Bin
	cli.Auth = cfg.Cloud.Auth
	cli.Profile = cfg.Cloud.Profile

	return &provision.Provisioner{
		Meta:     metadata.NewClient(),
		Cloud:    cli,
		User:     currentUser(),
		LockPath: cfg.LockPath,
	}
}

func newProvisionCmd() *cobra.Command {
	var executeMode bool
	var skipWait bool
	var subnetID string
	var vnicName string
	var lf loopFlags

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a secondary VNIC with a reserved public IP",
		Long: `Reserve a public IP, attach a secondary VNIC, assign the IP to the
VNIC's primary private address, then poll the OS until the address is
bound.

Without -x: preview the plan. With -x: execute it.
The new VNIC joins the primary VNIC's subnet unless --subnet is given.

Examples:
  vnicctl provision                          # preview
  vnicctl provision -x                       # execute and wait for the OS
  vnicctl provision -x --skip-wait           # execute, skip the convergence wait
  vnicctl provision -x --subnet ocid1.subnet.oc1..example`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			p := buildProvisioner()
			if !skipWait {
				// Provisioning always runs on the instance itself, so the
				// wait probes the local kernel.
				runner := &agent.LocalRunner{Timeout: cfg.Agent.Timeout()}
				loop := lf.loop(runner, osnet.NetlinkProber{})
				p.Wait = loop.Run
			}

			plan, err := p.Plan(ctx, provision.Request{
				SubnetID:    subnetID,
				DisplayName: vnicName,
			})
			if err != nil {
				return err
			}

			fmt.Println("Provisioning plan:")
			fmt.Print(plan.String())

			if !executeMode {
				printDryRunNotice()
				return nil
			}

			enableProgressLogs()
			res, err := p.Apply(ctx, plan)
			if err != nil {
				printPartial(res)
				var convErr *converge.ConvergenceError
				if errors.As(err, &convErr) {
					converge.WriteReport(os.Stdout, convErr.Snapshot, false)
				}
				return err
			}

			printResult(res)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "execute the plan (default is dry-run)")
	cmd.Flags().BoolVar(&skipWait, "skip-wait", false, "skip the OS convergence wait after provisioning")
	cmd.Flags().StringVar(&subnetID, "subnet", "", "subnet OCID for the new VNIC (default: primary VNIC's subnet)")
	cmd.Flags().StringVar(&vnicName, "name", "", "display name for the created resources")
	lf.register(cmd)
	return cmd
}

func printResult(res *provision.Result) {
	fmt.Println()
	fmt.Printf("%s secondary VNIC provisioned\n", green("ok:"))
	fmt.Printf("  VNIC:       %s\n", res.Attachment.VnicID)
	if res.Vnic != nil {
		fmt.Printf("  MAC:        %s\n", res.Vnic.MAC)
	}
	fmt.Printf("  Private IP: %s\n", res.PrivateIP.Address)
	fmt.Printf("  Public IP:  %s (%s)\n", res.PublicIP.Address, res.PublicIP.ID)
	if res.Snapshot != nil {
		fmt.Println()
		converge.WriteReport(os.Stdout, res.Snapshot, true)
	}
}

// printPartial lists resources created before a failure so the
// operator can tear them down.
func printPartial(res *provision.Result) {
	if res == nil || (res.PublicIP == nil && res.Attachment == nil) {
		return
	}
	fmt.Println("\nCreated before the failure:")
	if res.PublicIP != nil {
		fmt.Printf("  public IP %s (%s)\n", res.PublicIP.Address, res.PublicIP.ID)
	}
	if res.Attachment != nil {
		fmt.Printf("  VNIC %s (attachment %s)\n", res.Attachment.VnicID, res.Attachment.ID)
	}
	fmt.Println("Clean up with: vnicctl deprovision -x --vnic <ocid> [--public-ip <ocid>]")
}

func newDeprovisionCmd() *cobra.Command {
	var executeMode bool
	var vnicID string
	var publicIPID string

	cmd := &cobra.Command{
		Use:   "deprovision",
		Short: "Detach a secondary VNIC and release its reserved IP",
		Long: `Detach the named secondary VNIC and, when --public-ip is given,
release the reserved public IP. The primary VNIC is refused.

Examples:
  vnicctl deprovision --vnic ocid1.vnic.oc1..example
  vnicctl deprovision -x --vnic ocid1.vnic.oc1..example --public-ip ocid1.publicip.oc1..example`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if vnicID == "" {
				return fmt.Errorf("--vnic is required")
			}

			fmt.Printf("Will detach VNIC %s\n", vnicID)
			if publicIPID != "" {
				fmt.Printf("Will release public IP %s\n", publicIPID)
			}

			if !executeMode {
				printDryRunNotice()
				return nil
			}

			enableProgressLogs()
			p := buildProvisioner()
			if err := p.Deprovision(context.Background(), provision.TeardownRequest{
				VnicID:     vnicID,
				PublicIPID: publicIPID,
			}); err != nil {
				return err
			}

			fmt.Printf("%s teardown complete\n", green("ok:"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "execute the teardown (default is dry-run)")
	cmd.Flags().StringVar(&vnicID, "vnic", "", "VNIC OCID to detach")
	cmd.Flags().StringVar(&publicIPID, "public-ip", "", "reserved public IP OCID to release")
	return cmd
}
