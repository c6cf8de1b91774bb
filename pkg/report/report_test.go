package report

import (
	"reflect"
	"strings"
	"testing"
)

// agentOutput is a realistic full report in the agent's shape: a VNIC
// summary section, the OS-level block, then unrelated trailing text.
const agentOutput = `Virtual Network Interface Cards Information:

VNIC 1: primary
  OCID: ocid1.vnic.oc1.iad.aaaa
  MAC: 02:00:17:00:11:22

Operating System level network configuration:
CONFIG ADDR SPREFIX SBITS VIRTRT NS IND IFACE VLTAG VLAN STATE MAC VNIC
ADD 10.0.0.2 10.0.0.0 24 10.0.0.1 - 0 ens3 - - UP 02:00:17:00:11:22 ocid1.vnic.oc1.iad.aaaa
ADD 10.0.0.5 10.0.0.0 24 10.0.0.1 - 1 ens5 - - UP 02:00:17:00:33:44 ocid1.vnic.oc1.iad.bbbb

Some unrelated trailing section:
MORE x x x x x x ens7 y y
`

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantRows []Row
	}{
		{
			name: "realistic report",
			raw:  agentOutput,
			wantRows: []Row{
				{Name: "ens3", IP: "10.0.0.2"},
				{Name: "ens5", IP: "10.0.0.5"},
			},
		},
		{
			name:     "header absent yields no rows",
			raw:      "VNIC information only\nno os section here\n",
			wantRows: nil,
		},
		{
			name:     "empty input",
			raw:      "",
			wantRows: nil,
		},
		{
			name: "sentinel address means no IP yet",
			raw: Header + "\n" +
				"ADD - 10.0.0.0 24 10.0.0.1 - 1 ens5 - - PROVISIONING 02:00:17:00:33:44 ocid1.vnic.oc1.iad.bbbb\n",
			wantRows: []Row{{Name: "ens5", IP: ""}},
		},
		{
			name: "seven column row rejected",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f ens5\n",
			wantRows: nil,
		},
		{
			name: "eight column row accepted",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g ens5\n",
			wantRows: []Row{{Name: "ens5", IP: "10.0.0.5"}},
		},
		{
			name: "unrecognized interface name rejected",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g docker0\n" +
				"a 10.0.0.6 c d e f g lo\n",
			wantRows: nil,
		},
		{
			name: "interface-like strings in other columns do not qualify a row",
			raw: "preamble mentioning ens3 - eno1 192.168.1.5\n" +
				Header + "\n" +
				"ens3 10.0.0.5 eno1 eth2 enp0s1 f g ens5 extra\n",
			wantRows: []Row{{Name: "ens5", IP: "10.0.0.5"}},
		},
		{
			name: "rows after blank line ignored",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g ens5\n" +
				"\n" +
				"a 10.0.0.9 c d e f g ens6\n",
			wantRows: []Row{{Name: "ens5", IP: "10.0.0.5"}},
		},
		{
			name: "whitespace-only line ends the block",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g ens5\n" +
				"   \t \n" +
				"a 10.0.0.9 c d e f g ens6\n",
			wantRows: []Row{{Name: "ens5", IP: "10.0.0.5"}},
		},
		{
			name: "header then EOF with no blank line consumes to EOF",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g ens5\n" +
				"a 10.0.0.9 c d e f g ens6",
			wantRows: []Row{
				{Name: "ens5", IP: "10.0.0.5"},
				{Name: "ens6", IP: "10.0.0.9"},
			},
		},
		{
			name: "first header wins",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g ens5\n" +
				"\n" +
				Header + "\n" +
				"a 10.0.0.9 c d e f g ens6\n",
			wantRows: []Row{{Name: "ens5", IP: "10.0.0.5"}},
		},
		{
			name: "duplicate interface names yield independent rows",
			raw: Header + "\n" +
				"a 10.0.0.5 c d e f g ens5\n" +
				"a 10.0.0.6 c d e f g ens5\n",
			wantRows: []Row{
				{Name: "ens5", IP: "10.0.0.5"},
				{Name: "ens5", IP: "10.0.0.6"},
			},
		},
		{
			name: "header embedded in longer line still starts the block",
			raw: "note: " + Header + " (agent v2)\n" +
				"a 10.0.0.5 c d e f g ens5\n",
			wantRows: []Row{{Name: "ens5", IP: "10.0.0.5"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewParser().Parse(tt.raw)
			if !reflect.DeepEqual(got.Rows, tt.wantRows) {
				t.Errorf("Parse() rows = %v, want %v", got.Rows, tt.wantRows)
			}
		})
	}
}

func TestParser_BlockVerbatim(t *testing.T) {
	rep := NewParser().Parse(agentOutput)

	// The block carries every line between header and blank line,
	// including the column header that is not a data row.
	if !strings.Contains(rep.Block, "CONFIG ADDR SPREFIX") {
		t.Errorf("block should include the non-qualifying column header:\n%s", rep.Block)
	}
	if !strings.Contains(rep.Block, "ens3") || !strings.Contains(rep.Block, "ens5") {
		t.Errorf("block should include the data rows:\n%s", rep.Block)
	}
	if strings.Contains(rep.Block, Header) {
		t.Errorf("block should start after the header line:\n%s", rep.Block)
	}
	if strings.Contains(rep.Block, "unrelated trailing") {
		t.Errorf("block should end at the first blank line:\n%s", rep.Block)
	}
}

func TestParser_MissingHeaderEmptyBlock(t *testing.T) {
	rep := NewParser().Parse("no header anywhere\nens5 rows that look real do not count\n")
	if !rep.Empty() {
		t.Errorf("expected empty report, got %d rows", len(rep.Rows))
	}
	if rep.Block != "" {
		t.Errorf("expected empty block, got %q", rep.Block)
	}
}

func TestParser_CustomPrefixes(t *testing.T) {
	raw := Header + "\n" +
		"a 10.0.0.5 c d e f g em1\n" +
		"a 10.0.0.6 c d e f g ens5\n"

	got := NewParser("em").Parse(raw)
	want := []Row{{Name: "em1", IP: "10.0.0.5"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Parse() rows = %v, want %v", got.Rows, want)
	}
}

func TestRow_HasIP(t *testing.T) {
	if (Row{Name: "ens5", IP: "10.0.0.5"}).HasIP() != true {
		t.Error("row with address should have IP")
	}
	if (Row{Name: "ens5", IP: ""}).HasIP() != false {
		t.Error("row parsed from sentinel should not have IP")
	}
}

func TestParse_DefaultPrefixes(t *testing.T) {
	got := Parse(agentOutput)
	if len(got.Rows) != 2 {
		t.Errorf("Parse() rows = %d, want 2", len(got.Rows))
	}
}
