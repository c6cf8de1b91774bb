package report

import (
	"strings"

	"github.com/vnicctl/vnicctl/pkg/util"
)

// Header marks the start of the OS-level configuration block in the
// agent's output.
const Header = "Operating System level network configuration:"

// NoIPSentinel is the agent's address-column placeholder for an
// interface with no IP assigned yet.
const NoIPSentinel = "-"

// DefaultNICPrefixes are the physical-interface name prefixes accepted
// in the interface column. Anything else (lo, docker0, bridges) is not a
// VNIC-backed NIC and is skipped.
var DefaultNICPrefixes = []string{"ens", "enp", "eno", "eth"}

// Data rows have at least minColumns whitespace-delimited fields;
// the address is column 2 and the interface name column 8 (1-indexed).
const (
	minColumns = 8
	colAddr    = 1
	colIface   = 7
)

// Parser extracts interface expectation rows from raw agent output.
type Parser struct {
	prefixes []string
}

// NewParser returns a parser accepting the given interface name
// prefixes, or DefaultNICPrefixes when none are given.
func NewParser(prefixes ...string) *Parser {
	if len(prefixes) == 0 {
		prefixes = DefaultNICPrefixes
	}
	return &Parser{prefixes: prefixes}
}

// Parse scans raw output for the block after the first occurrence of
// Header, up to (excluding) the first line with zero whitespace-delimited
// tokens, and extracts qualifying data rows. The scan stops at that
// blank line; later text, including repeated headers, is ignored. A
// missing header yields an empty Report.
func (p *Parser) Parse(raw string) Report {
	var rep Report
	var block []string
	inBlock := false
	for _, line := range strings.Split(raw, "\n") {
		if !inBlock {
			if strings.Contains(line, Header) {
				inBlock = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			break
		}
		block = append(block, line)
		if row, ok := p.parseRow(fields); ok {
			rep.Rows = append(rep.Rows, row)
		}
	}
	rep.Block = strings.Join(block, "\n")
	return rep
}

// parseRow turns one tokenized block line into a Row. Lines with too few
// columns or an unrecognized interface name are not data rows.
func (p *Parser) parseRow(fields []string) (Row, bool) {
	if len(fields) < minColumns {
		return Row{}, false
	}
	name := fields[colIface]
	if !util.HasNICPrefix(name, p.prefixes) {
		return Row{}, false
	}
	ip := fields[colAddr]
	if ip == NoIPSentinel {
		ip = ""
	}
	return Row{Name: name, IP: ip}, true
}

// Parse parses raw agent output with the default NIC prefixes.
func Parse(raw string) Report {
	return NewParser().Parse(raw)
}
