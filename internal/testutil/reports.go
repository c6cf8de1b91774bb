package testutil

import (
	"fmt"
	"strings"
)

// ReportRow is one interface line for AgentReport. An empty IP renders
// the agent's "-" placeholder.
type ReportRow struct {
	Iface string
	IP    string
}

// AgentReport renders realistic agent output: a VNIC summary, the
// OS-level configuration block with the given rows, and trailing text
// after the block's terminating blank line.
func AgentReport(rows ...ReportRow) string {
	var b strings.Builder
	b.WriteString("Virtual Network Interface Cards Information:\n")
	b.WriteString("\n")
	for i := range rows {
		fmt.Fprintf(&b, "VNIC %d:\n  MAC: 02:00:17:00:%02x:%02x\n", i+1, i, i)
	}
	b.WriteString("\n")
	b.WriteString("Operating System level network configuration:\n")
	b.WriteString("CONFIG ADDR SPREFIX SBITS VIRTRT NS IND IFACE VLTAG VLAN STATE MAC VNIC\n")
	for i, row := range rows {
		addr := row.IP
		state := "UP"
		if addr == "" {
			addr = "-"
			state = "PROVISIONING"
		}
		fmt.Fprintf(&b, "ADD %s 10.0.0.0 24 10.0.0.1 - %d %s - - %s 02:00:17:00:%02x:%02x ocid1.vnic.oc1.iad.%04d\n",
			addr, i, row.Iface, state, i, i, i)
	}
	b.WriteString("\n")
	b.WriteString("end of report\n")
	return b.String()
}

// AgentReportNoHeader is agent output whose OS-level section never
// appears; the parser must treat it as "not ready".
const AgentReportNoHeader = `Virtual Network Interface Cards Information:

VNIC 1:
  MAC: 02:00:17:00:00:00

still waiting for network configuration
`
