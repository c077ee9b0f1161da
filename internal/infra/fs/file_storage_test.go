package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vizboard/internal/infra/fs"
)

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := fs.SaveFile(dir, "chart.png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	_, err = fs.SaveFile(dir, "empty.png", nil)
	assert.Error(t, err)
}

func TestOutputDir_Default(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	tmp := t.TempDir()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	dir, err := fs.OutputDir("")
	require.NoError(t, err)
	assert.Equal(t, "out", dir)
	assert.DirExists(t, filepath.Join(tmp, "out"))
}

func TestSaveWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	err := fs.SaveWorkbook(path,
		fs.Sheet{
			Name:    "Counts",
			Headers: []string{"Form", "Count"},
			Rows:    [][]interface{}{{"Fresh", 2}, {"Frozen", 1}},
		},
		fs.Sheet{
			Name:    "Mean price",
			Headers: []string{"Form", "CupEquivalentPrice"},
			Rows:    [][]interface{}{{"Fresh", 2.5}},
		},
	)
	require.NoError(t, err)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Counts", "Mean price"}, wb.GetSheetList())

	rows, err := wb.GetRows("Counts")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Form", "Count"}, {"Fresh", "2"}, {"Frozen", "1"}}, rows)

	price, err := wb.GetCellValue("Mean price", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2.5", price)
}

func TestSaveWorkbook_NoSheets(t *testing.T) {
	assert.Error(t, fs.SaveWorkbook(filepath.Join(t.TempDir(), "x.xlsx")))
}
