package fs

// Output storage
// Everything a run writes goes under one output directory

import (
	"fmt"
	"os"
	"path/filepath"

	"vizboard/internal/infra/log"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// OutputDir resolves dir (default "out") and makes sure it exists
func OutputDir(dir string) (string, error) {
	if dir == "" {
		dir = "out"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

// SaveFile writes data under dir and refuses to leave an empty file behind
func SaveFile(dir, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to save empty %s", filename)
	}
	if _, err := OutputDir(dir); err != nil {
		return "", err
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", filename, err)
	}
	return fullPath, nil
}

// Sheet is one worksheet of an exported workbook
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// SaveWorkbook writes the sheets, in order, into an .xlsx file
func SaveWorkbook(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	headerStyle, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := wb.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := wb.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := wb.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", sheet.Name, err)
		}

		header := make([]interface{}, len(sheet.Headers))
		for j, h := range sheet.Headers {
			header[j] = h
		}
		if err := wb.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of %q: %w", sheet.Name, err)
		}
		if len(sheet.Headers) > 0 {
			last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
			if err != nil {
				return err
			}
			if err := wb.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
				return fmt.Errorf("failed to style header of %q: %w", sheet.Name, err)
			}
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			row := row
			if err := wb.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d of %q: %w", r+1, sheet.Name, err)
			}
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	log.LogInfo("Workbook saved", zap.String("path", path), zap.Int("sheets", len(sheets)))
	return nil
}
