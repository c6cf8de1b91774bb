// Vnicctl - secondary VNIC provisioning for OCI compute instances
//
// vnicctl reserves a public IP, attaches a secondary VNIC, points the
// IP at the VNIC's primary private address, and then polls the host OS
// until the kernel's interface configuration matches what the network
// configuration agent expects.
//
// Workflow commands preview by default and require -x to execute:
//
//	vnicctl provision                  Preview the provisioning plan
//	vnicctl provision -x               Execute: reserve, attach, assign, wait
//	vnicctl deprovision -x --vnic <ocid>   Teardown
//
// Convergence commands run against the local instance, or a remote one
// with --ssh:
//
//	vnicctl wait                       Poll until converged (exit 0) or budget spent (exit 1)
//	vnicctl show                       One report/evaluation cycle, no loop
//	vnicctl show --ssh opc@203.0.113.7 --ssh-key ~/.ssh/id_ed25519
//	vnicctl audit --failures           Query the provisioning journal
package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/vnicctl/vnicctl/pkg/audit"
	"github.com/vnicctl/vnicctl/pkg/cli"
	"github.com/vnicctl/vnicctl/pkg/config"
	"github.com/vnicctl/vnicctl/pkg/util"
	"github.com/vnicctl/vnicctl/pkg/version"
)

var (
	cfgPath string
	verbose bool

	// cfg is loaded in PersistentPreRunE and read by every command.
	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "vnicctl",
	Short:             "Secondary VNIC provisioning and OS convergence",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Vnicctl provisions a secondary VNIC with a reserved public IP on an
OCI compute instance and waits for the OS to pick the address up.

Provisioning previews by default; use -x to execute. The convergence
wait polls the network configuration agent's report against live kernel
state until every reported interface has its address bound.

  vnicctl provision -x
  vnicctl wait --max-attempts 60`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isHelpOrVersion(cmd) {
			return nil
		}

		// Quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		var err error
		if cfgPath != "" {
			cfg, err = config.LoadFrom(cfgPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		journal, err := audit.NewFileLogger(cfg.Journal.Path, audit.RotationConfig{
			MaxSize:    cfg.Journal.MaxSizeBytes(),
			MaxBackups: cfg.Journal.MaxBackups,
		})
		if err != nil {
			util.Warnf("Could not initialize journal: %v", err)
		} else {
			audit.SetDefaultLogger(journal)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newProvisionCmd(),
		newDeprovisionCmd(),
		newWaitCmd(),
		newShowCmd(),
		newAuditCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version.Version == "dev" {
				fmt.Println("vnicctl dev build (use 'make build' for version info)")
			} else {
				fmt.Printf("vnicctl %s (%s)\n", version.Version, version.GitCommit)
			}
		},
	}
}

// isHelpOrVersion checks whether cmd (or any ancestor) is a help or
// version command, which run without configuration.
func isHelpOrVersion(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version":
			return true
		}
	}
	return false
}

// enableProgressLogs raises logging to info so long-running commands
// stream per-attempt progress to stderr; -v already shows everything.
func enableProgressLogs() {
	if !verbose {
		util.SetLogLevel("info")
	}
}

// currentUser resolves the invoking user for journal events.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// printDryRunNotice reminds the operator that nothing happened.
func printDryRunNotice() {
	fmt.Println("\n" + yellow("DRY-RUN: No changes applied. Use -x to execute."))
}

// Color helpers backed by pkg/cli.
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
