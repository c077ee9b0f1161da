// Package table holds the in-memory tabular dataset shared by loaders and aggregators.
// A Table wraps a gota DataFrame, so every column has the same length by construction.
package table

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ParseError reports an input that could not be turned into a Table.
type ParseError struct {
	Source  string   // file name or "api"
	Missing []string // required columns that were not found
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("parse %s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	case e.Err != nil:
		return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("parse %s: invalid table", e.Source)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Table is a read-only view over a DataFrame.
type Table struct {
	df     dataframe.DataFrame
	source string
}

// FromDataFrame wraps df. A DataFrame carrying an error becomes a ParseError.
func FromDataFrame(source string, df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, &ParseError{Source: source, Err: df.Err}
	}
	return &Table{df: df, source: source}, nil
}

// FromRecords builds a Table from a header row followed by data rows.
// Short rows are padded with empty cells, long rows are an error.
func FromRecords(source string, records [][]string, options ...dataframe.LoadOption) (*Table, error) {
	if len(records) < 2 {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("no data rows")}
	}
	width := len(records[0])
	padded := make([][]string, len(records))
	for i, row := range records {
		if len(row) > width {
			return nil, &ParseError{Source: source, Err: fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), width)}
		}
		if len(row) < width {
			full := make([]string, width)
			copy(full, row)
			row = full
		}
		padded[i] = row
	}
	return FromDataFrame(source, dataframe.LoadRecords(padded, options...))
}

// FromColumns builds a Table from already typed series.
func FromColumns(source string, columns ...series.Series) (*Table, error) {
	return FromDataFrame(source, dataframe.New(columns...))
}

// Source is the name the table was loaded from.
func (t *Table) Source() string { return t.source }

// Len is the number of rows.
func (t *Table) Len() int { return t.df.Nrow() }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.df.Names() }

// Has reports whether the column exists.
func (t *Table) Has(col string) bool {
	for _, name := range t.df.Names() {
		if name == col {
			return true
		}
	}
	return false
}

// Require returns a ParseError listing every missing column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, col := range cols {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &ParseError{Source: t.source, Missing: missing}
	}
	return nil
}

// Strings returns the column rendered as strings.
func (t *Table) Strings(col string) ([]string, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}
	return t.df.Col(col).Records(), nil
}

// Floats returns a numeric column; missing cells are NaN.
func (t *Table) Floats(col string) ([]float64, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}
	s := t.df.Col(col)
	switch s.Type() {
	case series.Float, series.Int:
		return s.Float(), nil
	default:
		return nil, &ParseError{Source: t.source, Err: fmt.Errorf("column %q is %s, not numeric", col, s.Type())}
	}
}
