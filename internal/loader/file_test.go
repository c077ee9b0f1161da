package loader_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vizboard/internal/loader"
	"vizboard/internal/table"
)

var fruitOptions = loader.FileOptions{
	Required: []string{"Fruit", "Form", "CupEquivalentPrice"},
	Numeric:  []string{"CupEquivalentPrice"},
}

const fruitCSV = `Fruit,Form,RetailPrice,CupEquivalentPrice
Apple,Fresh,1.5,1.0
Apple,Fresh,1.9,3.0
Banana,Frozen,0.6,2.0
Cherry,Canned,n/a,
`

func TestLoadReader_CSV(t *testing.T) {
	tbl, err := loader.LoadReader(strings.NewReader(fruitCSV), "prices.csv", fruitOptions)
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"Fruit", "Form", "RetailPrice", "CupEquivalentPrice"}, tbl.Columns())

	fruits, err := tbl.Strings("Fruit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Apple", "Banana", "Cherry"}, fruits)

	prices, err := tbl.Floats("CupEquivalentPrice")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 3.0, 2.0}, prices[:3])
	assert.True(t, math.IsNaN(prices[3]), "empty cell should be NaN")
}

func TestLoadReader_CSVWithBOM(t *testing.T) {
	tbl, err := loader.LoadReader(strings.NewReader("\ufeff"+fruitCSV), "prices.csv", fruitOptions)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fruit", "Form", "RetailPrice", "CupEquivalentPrice"}, tbl.Columns())
	fruits, err := tbl.Strings("Fruit")
	require.NoError(t, err)
	assert.Equal(t, "Apple", fruits[0])
}

func TestLoadFile_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Fruit-Prices-2022.csv")
	require.NoError(t, os.WriteFile(path, []byte(fruitCSV), 0o644))

	tbl, err := loader.LoadFile(path, fruitOptions)
	require.NoError(t, err)
	assert.Equal(t, path, tbl.Source())
	assert.Equal(t, 4, tbl.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "nope.csv"), fruitOptions)
	require.Error(t, err)

	var parseErr *table.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadReader_MissingColumns(t *testing.T) {
	_, err := loader.LoadReader(strings.NewReader("Fruit,Price\nApple,1.0\n"), "prices.csv", fruitOptions)
	require.Error(t, err)

	var parseErr *table.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, []string{"Form", "CupEquivalentPrice"}, parseErr.Missing)
	assert.Contains(t, err.Error(), "Form, CupEquivalentPrice")
}

func TestLoadReader_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "empty", file: "prices.csv", content: "  \n"},
		{name: "ragged rows", file: "prices.csv", content: "Fruit,Form,CupEquivalentPrice\nApple,Fresh,1.0,extra,cells\n"},
		{name: "legacy xls", file: "prices.xls", content: "binary"},
		{name: "unknown extension", file: "prices.json", content: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadReader(strings.NewReader(tt.content), tt.file, fruitOptions)
			require.Error(t, err)

			var parseErr *table.ParseError
			assert.True(t, errors.As(err, &parseErr), "want ParseError, got %T", err)
		})
	}
}

func TestLoadReader_XLSX(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()

	rows := [][]interface{}{
		{"Fruit", "Form", "CupEquivalentPrice"},
		{"Apple", "Fresh", 1.0},
		{"Banana", "Frozen", 2.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := loader.LoadReader(buf, "prices.xlsx", fruitOptions)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	prices, err := tbl.Floats("CupEquivalentPrice")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 2.5}, prices)

	forms, err := tbl.Strings("Form")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fresh", "Frozen"}, forms)
}
