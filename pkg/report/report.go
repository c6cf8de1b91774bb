// Package report parses the network configuration agent's textual output
// into typed interface expectation rows.
//
// The agent prints a free-form report; the only part consumed here is the
// block that follows the OS-level configuration header and ends at the
// first blank line. Everything else is discarded without comment.
package report

// Row is one interface expectation from the agent's table.
type Row struct {
	Name string // interface name, e.g. "ens5"
	IP   string // expected IPv4 address; empty when the agent printed "-"
}

// HasIP reports whether the agent has assigned an address to this
// interface yet. Rows without an address count as agent-side
// incompleteness, not as an OS mismatch.
func (r Row) HasIP() bool {
	return r.IP != ""
}

// Report is the parsed form of one agent invocation's output. Rows keep
// the agent's order. Block holds the recognized block verbatim,
// including lines that did not qualify as data rows; it is empty when
// the header never appeared.
type Report struct {
	Rows  []Row
	Block string
}

// Empty reports whether no qualifying rows were found. A missing header
// and an agent that has not populated its table yet look identical here;
// both mean "not ready", never an error.
func (r Report) Empty() bool {
	return len(r.Rows) == 0
}
