//go:build e2e

package e2e_test

import (
	"os"
	"testing"

	"github.com/vnicctl/vnicctl/pkg/util"
)

func TestMain(m *testing.M) {
	// Live runs are long; stream the loop's per-attempt progress so a
	// hung convergence is visible while it happens.
	util.SetLogLevel("info")
	if os.Getenv("VNICCTL_E2E_VERBOSE") != "" {
		util.SetLogLevel("debug")
	}

	os.Exit(m.Run())
}
