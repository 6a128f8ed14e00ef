package export

import "fmt"

// Table is an ordered grid ready to be rendered.
type Table struct {
	Title   string
	Headers []string
	// Widths are relative column weights; empty means equal columns.
	Widths []float64
	Rows   [][]string
}

func (t Table) validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table requires at least one header")
	}
	if len(t.Widths) > 0 && len(t.Widths) != len(t.Headers) {
		return fmt.Errorf("table has %d widths for %d headers", len(t.Widths), len(t.Headers))
	}
	for i, row := range t.Rows {
		if len(row) > len(t.Headers) {
			return fmt.Errorf("row %d has %d cells for %d headers", i, len(row), len(t.Headers))
		}
	}
	return nil
}

// cell returns the value at column i, blank when the row is short.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
