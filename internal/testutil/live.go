//go:build e2e

package testutil

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// Live tests run on a real OCI compute instance and are opted into with
// VNICCTL_E2E=1. Tests that create billable cloud resources additionally
// require VNICCTL_E2E_SUBNET.

const metadataProbeURL = "http://169.254.169.254/opc/v2/instance/"

// SkipIfNotLive skips the test unless VNICCTL_E2E is set and the
// instance metadata service answers, which only happens on a real
// instance.
func SkipIfNotLive(t *testing.T) {
	t.Helper()

	if os.Getenv("VNICCTL_E2E") == "" {
		t.Skip("live test: set VNICCTL_E2E=1 to run on a compute instance")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataProbeURL, nil)
	if err != nil {
		t.Fatalf("building metadata probe: %v", err)
	}
	req.Header.Set("Authorization", "Bearer Oracle")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Skipf("metadata service not reachable, not on an instance: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("metadata service returned %s", resp.Status)
	}
}

// AgentArgv returns the report agent command for live tests, skipping
// when the binary is not installed. VNICCTL_E2E_AGENT overrides the
// stock invocation.
func AgentArgv(t *testing.T) []string {
	t.Helper()

	argv := []string{"oci-network-config", "show"}
	if cmd := os.Getenv("VNICCTL_E2E_AGENT"); cmd != "" {
		argv = strings.Fields(cmd)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		t.Skipf("agent %s not installed: %v", argv[0], err)
	}
	return argv
}

// E2ESubnet returns the subnet OCID for provisioning lifecycle tests.
// These tests attach real VNICs and reserve real public IPs, so they
// stay skipped until an operator names a subnet to use.
func E2ESubnet(t *testing.T) string {
	t.Helper()

	subnet := os.Getenv("VNICCTL_E2E_SUBNET")
	if subnet == "" {
		t.Skip("provisioning test: set VNICCTL_E2E_SUBNET to a subnet OCID")
	}
	return subnet
}

// RequireOCI skips the test when the oci CLI is not installed.
func RequireOCI(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("oci"); err != nil {
		t.Skipf("oci CLI not installed: %v", err)
	}
}

// LiveContext returns a context generous enough for a control-plane
// call plus a full convergence wait.
func LiveContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	t.Cleanup(cancel)
	return ctx
}
