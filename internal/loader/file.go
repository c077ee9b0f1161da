package loader

// File mode loader
// Reads a delimited (.csv, .txt) or Excel (.xlsx) file into a Table
// Required columns are checked up front, numeric columns are forced to float

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vizboard/internal/infra/log"
	"vizboard/internal/table"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// FileOptions describes which columns the caller relies on
type FileOptions struct {
	Required []string // columns that must be present
	Numeric  []string // columns parsed as float, unparseable cells become NaN
}

// LoadFile opens path and parses it according to its extension
func LoadFile(path string, opts FileOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &table.ParseError{Source: path, Err: err}
	}
	defer f.Close()

	return LoadReader(f, path, opts)
}

// LoadReader parses r; name is only used for the format and error messages
func LoadReader(r io.Reader, name string, opts FileOptions) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("read: %w", err)}
	}
	// Excel writes a UTF-8 BOM in front of CSV exports
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("file is empty")}
	}

	var t *table.Table
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt", "":
		t, err = parseDelimited(data, name, opts)
	case ".xlsx":
		t, err = parseWorkbook(data, name, opts)
	case ".xls":
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("legacy .xls workbooks are not supported, save as .xlsx or .csv")}
	default:
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("unsupported file type %q", ext)}
	}
	if err != nil {
		return nil, err
	}

	if err := t.Require(opts.Required...); err != nil {
		return nil, err
	}

	log.LogInfo("Table loaded",
		zap.String("source", name),
		zap.Int("rows", t.Len()),
		zap.Strings("columns", t.Columns()))
	return t, nil
}

func parseDelimited(data []byte, name string, opts FileOptions) (*table.Table, error) {
	df := dataframe.ReadCSV(bytes.NewReader(data), loadOptions(opts)...)
	return table.FromDataFrame(name, df)
}

func parseWorkbook(data []byte, name string, opts FileOptions) (*table.Table, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, &table.ParseError{Source: name, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}

	// Trailing blank rows are common in hand-edited sheets
	for len(rows) > 0 && isBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}

	return table.FromRecords(name, rows, loadOptions(opts)...)
}

func loadOptions(opts FileOptions) []dataframe.LoadOption {
	if len(opts.Numeric) == 0 {
		return nil
	}
	types := make(map[string]series.Type, len(opts.Numeric))
	for _, col := range opts.Numeric {
		types[col] = series.Float
	}
	return []dataframe.LoadOption{dataframe.WithTypes(types)}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
