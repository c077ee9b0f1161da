package aggregate

import (
	"fmt"
	"sort"

	"vizboard/internal/table"
)

// PivotSummary is a dense rows x columns grid of means.
// Combinations that never occur hold 0.
type PivotSummary struct {
	Rows     []string
	Columns  []string
	Cells    [][]float64 // Cells[row][col]
	observed [][]bool
}

// PivotMean averages valueCol for every (rowCol, colCol) pair.
// Row and column keys are sorted ascending.
func PivotMean(t *table.Table, rowCol, colCol, valueCol string) (*PivotSummary, error) {
	rowKeys, err := t.Strings(rowCol)
	if err != nil {
		return nil, fmt.Errorf("pivot mean: %w", err)
	}
	colKeys, err := t.Strings(colCol)
	if err != nil {
		return nil, fmt.Errorf("pivot mean: %w", err)
	}
	values, err := t.Floats(valueCol)
	if err != nil {
		return nil, fmt.Errorf("pivot mean: %w", err)
	}

	rows := distinctSorted(rowKeys)
	cols := distinctSorted(colKeys)
	rowIndex := indexOf(rows)
	colIndex := indexOf(cols)

	acc := make([][]mean, len(rows))
	for i := range acc {
		acc[i] = make([]mean, len(cols))
	}
	for i := range values {
		acc[rowIndex[rowKeys[i]]][colIndex[colKeys[i]]].add(values[i])
	}

	p := &PivotSummary{
		Rows:     rows,
		Columns:  cols,
		Cells:    make([][]float64, len(rows)),
		observed: make([][]bool, len(rows)),
	}
	for r := range rows {
		p.Cells[r] = make([]float64, len(cols))
		p.observed[r] = make([]bool, len(cols))
		for c := range cols {
			if acc[r][c].count == 0 {
				continue
			}
			p.Cells[r][c] = acc[r][c].value()
			p.observed[r][c] = true
		}
	}
	return p, nil
}

// Value returns the cell for (row, col), 0 when either key is unknown
func (p *PivotSummary) Value(row, col string) float64 {
	r, c, ok := p.locate(row, col)
	if !ok {
		return 0
	}
	return p.Cells[r][c]
}

// Range returns min and max over observed cells
func (p *PivotSummary) Range() (lo, hi float64, ok bool) {
	for r := range p.Cells {
		for c, v := range p.Cells[r] {
			if !p.observed[r][c] {
				continue
			}
			if !ok || v < lo {
				lo = v
			}
			if !ok || v > hi {
				hi = v
			}
			ok = true
		}
	}
	return lo, hi, ok
}

func (p *PivotSummary) locate(row, col string) (int, int, bool) {
	r := sort.SearchStrings(p.Rows, row)
	c := sort.SearchStrings(p.Columns, col)
	if r >= len(p.Rows) || p.Rows[r] != row || c >= len(p.Columns) || p.Columns[c] != col {
		return 0, 0, false
	}
	return r, c, true
}

func distinctSorted(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func indexOf(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}
