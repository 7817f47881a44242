// Package render turns the reconciled model into the refreshing terminal
// report. It only consumes display-ready rows; all derivation happens in
// the stats package.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnGap = "  "

// leftAlignedTail is how many trailing columns are left-justified; every
// other column is right-justified. The textual columns (user, name) sit at
// the end of each row.
const leftAlignedTail = 2

var headerStyle = lipgloss.NewStyle().Bold(true)

// Table is one header row of labels plus data rows with the same column
// count.
type Table struct {
	Header []string
	Rows   [][]string
}

// Write renders the table with column-width alignment.
func (t Table) Write(w io.Writer) error {
	if len(t.Header) == 0 {
		return nil
	}

	widths := make([]int, len(t.Header))
	measure := func(row []string) error {
		if len(row) != len(t.Header) {
			return fmt.Errorf("row has %d columns, header has %d", len(row), len(t.Header))
		}
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		return nil
	}
	if err := measure(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := measure(row); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, headerStyle.Render(t.formatRow(t.Header, widths))+"\n"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := io.WriteString(w, t.formatRow(row, widths)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (t Table) formatRow(row []string, widths []int) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		align := lipgloss.Right
		if i >= len(row)-leftAlignedTail {
			align = lipgloss.Left
		}
		style := lipgloss.NewStyle().Width(widths[i]).Align(align)
		cells[i] = style.Render(cell)
	}
	// The last column is left-aligned; trim its padding so lines do not
	// run to the terminal edge.
	return strings.TrimRight(strings.Join(cells, columnGap), " ")
}

// ClearScreen wipes the terminal and homes the cursor before a refresh.
func ClearScreen(w io.Writer) {
	io.WriteString(w, "\033[H\033[2J")
}
