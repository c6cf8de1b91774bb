package cli

import (
	"fmt"
	"io"
	"strings"
)

// colGap is the space between adjacent columns.
const colGap = 2

// Table collects rows and renders them column-aligned on Flush. Headers
// and a dash divider are written lazily, so empty tables produce no
// output. When a maximum width is set, cells in the widest column
// word-wrap within their column instead of overflowing the line.
type Table struct {
	w        io.Writer
	headers  []string
	rows     [][]string
	prefix   string
	maxWidth int
}

// NewTable creates a table with the given column headers, writing to w.
// The maximum line width defaults to the terminal width (no limit when
// output is not a terminal).
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{
		w:        w,
		headers:  headers,
		maxWidth: TerminalWidth(),
	}
}

// WithPrefix sets a string prepended to each line (headers, divider, rows).
// Useful for indenting sub-tables within larger output.
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// WithMaxWidth overrides the detected terminal width. Zero disables wrapping.
func (t *Table) WithMaxWidth(width int) *Table {
	t.maxWidth = width
	return t
}

// Row adds a row. Rows shorter than the header count render empty
// trailing cells; extra cells are dropped.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush renders headers, divider, and all buffered rows. If no rows were
// added, nothing is printed.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	widths := t.columnWidths()
	if t.maxWidth > 0 {
		widths = capWidths(widths, t.headers, t.maxWidth, len(t.prefix))
	}
	t.writeLine(t.headers, widths)
	dividers := make([]string, len(t.headers))
	for i, h := range t.headers {
		dividers[i] = strings.Repeat("-", len(h))
	}
	t.writeLine(dividers, widths)
	for _, row := range t.rows {
		t.writeLine(row, widths)
	}
}

// columnWidths returns the natural width of each column: the widest cell
// or header, measured without ANSI escapes.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if l := visualLen(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}
	return widths
}

// writeLine emits one logical row, which may span several physical lines
// when a cell wraps. Continuation lines leave the other columns blank.
func (t *Table) writeLine(cells []string, widths []int) {
	wrapped := make([][]string, len(widths))
	height := 1
	for i := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		wrapped[i] = wrapCell(cell, widths[i])
		if len(wrapped[i]) > height {
			height = len(wrapped[i])
		}
	}
	for ln := 0; ln < height; ln++ {
		var b strings.Builder
		b.WriteString(t.prefix)
		for i := range widths {
			var piece string
			if ln < len(wrapped[i]) {
				piece = wrapped[i][ln]
			}
			b.WriteString(piece)
			if i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-visualLen(piece)+colGap))
			}
		}
		fmt.Fprintln(t.w, strings.TrimRight(b.String(), " "))
	}
}

// capWidths reduces column widths so a full line (prefix + columns +
// gaps) fits in termWidth. The widest column shrinks first, never below
// its header's width. When every column is at its minimum the line may
// still exceed termWidth.
func capWidths(widths []int, headers []string, termWidth, prefixLen int) []int {
	out := make([]int, len(widths))
	copy(out, widths)
	mins := make([]int, len(headers))
	for i, h := range headers {
		mins[i] = visualLen(h)
	}
	total := func() int {
		sum := prefixLen + colGap*(len(out)-1)
		for _, w := range out {
			sum += w
		}
		return sum
	}
	for total() > termWidth {
		widest := -1
		for i, w := range out {
			if w > mins[i] && (widest < 0 || w > out[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		out[widest]--
	}
	return out
}

// visualLen counts display characters, skipping ANSI escape sequences.
func visualLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			n++
		}
	}
	return n
}

// wrapCell word-wraps s to the given width. Words longer than the width
// are hard-broken. Strings that already fit are returned unchanged, so
// ANSI-colored cells pass through intact as long as they fit.
func wrapCell(s string, width int) []string {
	if width <= 0 || visualLen(s) <= width {
		return []string{s}
	}
	var lines []string
	var line string
	flush := func() {
		lines = append(lines, line)
		line = ""
	}
	for _, word := range strings.Fields(s) {
		for visualLen(word) > width {
			if line != "" {
				flush()
			}
			line = word[:width]
			flush()
			word = word[width:]
		}
		switch {
		case line == "":
			line = word
		case visualLen(line)+1+visualLen(word) <= width:
			line += " " + word
		default:
			flush()
			line = word
		}
	}
	if line != "" {
		flush()
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
