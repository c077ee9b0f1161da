// Package fruitprices builds the fruit-price dashboard:
// load the price table, summarise it by form and fruit, draw pie, bar and heatmap.
package fruitprices

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"

	"vizboard/internal/features/aggregate"
	"vizboard/internal/features/charts"
	"vizboard/internal/features/page"
	"vizboard/internal/infra/config"
	"vizboard/internal/infra/fs"
	"vizboard/internal/infra/log"
	"vizboard/internal/infra/terminal"
	"vizboard/internal/loader"

	"go.uber.org/zap"
)

const (
	pieTitle     = "Most Common Form of Fruit"
	barTitle     = "Most Expensive Form of Fruit Based on Cup Equivalent Price"
	barYLabel    = "Average Cup Equivalent Price (US dollars)"
	heatmapTitle = "Most Expensive Fruit Based on Cup Equivalent Price (US dollars)"
)

// Result is what a dashboard run produced
type Result struct {
	Source   string
	Rows     int
	Counts   aggregate.GroupSummary
	Means    aggregate.GroupSummary
	Pivot    *aggregate.PivotSummary
	Charts   []Chart
	Page     string
	Workbook string
}

// Chart is one rendered PNG
type Chart struct {
	Title string
	Path  string
}

// Run executes load -> aggregate -> render once. Summary tables go to stdout
// when output.summary is set.
func Run(cfg *config.Config, stdout io.Writer) (*Result, error) {
	fc := cfg.Fruits
	path := fc.File
	if path == "" {
		path = fc.DefaultPath
		log.LogInfo("No file given, using default path", zap.String("path", path))
	}

	t, err := loader.LoadFile(path, loader.FileOptions{
		Required: []string{fc.ItemColumn, fc.CategoryColumn, fc.PriceColumn},
		Numeric:  []string{fc.PriceColumn},
	})
	if err != nil {
		return nil, fmt.Errorf("load fruit prices: %w", err)
	}

	res := &Result{Source: path, Rows: t.Len()}
	if res.Counts, err = aggregate.CategoryCounts(t, fc.CategoryColumn); err != nil {
		return nil, err
	}
	if res.Means, err = aggregate.MeanByCategory(t, fc.CategoryColumn, fc.PriceColumn); err != nil {
		return nil, err
	}
	if res.Pivot, err = aggregate.PivotMean(t, fc.ItemColumn, fc.CategoryColumn, fc.PriceColumn); err != nil {
		return nil, err
	}

	palette, err := charts.NewPalette(PaletteEntries(cfg.Palette), cfg.Palette.Fallback)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}

	pie, err := charts.BuildPie(res.Counts, palette, pieTitle)
	if err != nil {
		return nil, err
	}
	bar, err := charts.BuildBar(res.Means, palette, barTitle, fc.CategoryColumn, barYLabel)
	if err != nil {
		return nil, err
	}
	heatmap, err := charts.BuildHeatmap(res.Pivot, charts.HeatmapOptions{
		Title:  heatmapTitle,
		XLabel: fc.CategoryColumn,
		YLabel: fc.ItemColumn,
		Width:  cfg.Render.HeatmapWidth,
		Height: cfg.Render.HeatmapHeight,
	})
	if err != nil {
		return nil, err
	}

	outDir, err := fs.OutputDir(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}

	renderer := charts.NewRenderer(cfg.Render.FontPaths)
	pngs := make(map[charts.Kind][]byte, 3)
	for _, spec := range []*charts.ChartSpec{pie, bar, heatmap} {
		data, err := renderer.EncodePNG(spec)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", spec.Kind, err)
		}
		p, err := fs.SaveFile(outDir, "fruit_"+string(spec.Kind)+".png", data)
		if err != nil {
			return nil, err
		}
		pngs[spec.Kind] = data
		res.Charts = append(res.Charts, Chart{Title: spec.Title, Path: p})
	}

	dashboard := &page.Dashboard{
		Title:   fc.Title,
		Caption: fc.Source,
		Pie:     pngs[charts.KindPie],
		Bar:     pngs[charts.KindBar],
		Heatmap: pngs[charts.KindHeatmap],
	}
	res.Page = filepath.Join(outDir, "fruit_dashboard.html")
	if err := dashboard.Write(res.Page); err != nil {
		return nil, err
	}

	if cfg.Output.Summary {
		if err := terminal.Print(stdout, SummaryTables(res, fc)...); err != nil {
			return nil, fmt.Errorf("print summary: %w", err)
		}
	}
	if cfg.Output.XLSX {
		res.Workbook = filepath.Join(outDir, "fruit_summary.xlsx")
		if err := fs.SaveWorkbook(res.Workbook, Sheets(res, fc)...); err != nil {
			return nil, err
		}
	}

	fields := []zap.Field{
		zap.String("page", res.Page),
		zap.Int("rows", res.Rows),
		zap.Strings("forms", res.Counts.Keys()),
		zap.Int("fruits", len(res.Pivot.Rows)),
	}
	if lo, hi, ok := res.Pivot.Range(); ok {
		fields = append(fields, zap.Float64("min_price", lo), zap.Float64("max_price", hi))
	}
	log.LogSuccess("Fruit dashboard ready", fields...)
	return res, nil
}

// PaletteEntries converts configured colours for the chart palette
func PaletteEntries(pc config.PaletteConfig) []charts.PaletteEntry {
	entries := make([]charts.PaletteEntry, len(pc.Colors))
	for i, c := range pc.Colors {
		entries[i] = charts.PaletteEntry{Category: c.Category, Color: c.Color}
	}
	return entries
}

// SummaryTables renders the three summaries for the terminal
func SummaryTables(res *Result, fc config.FruitsConfig) []terminal.Table {
	counts := terminal.Table{
		Title:   pieTitle,
		Headers: []string{fc.CategoryColumn, "Count"},
		Numeric: []bool{false, true},
	}
	for _, g := range res.Counts {
		counts.Rows = append(counts.Rows, []string{g.Key, strconv.Itoa(int(g.Value))})
	}
	counts.Rows = append(counts.Rows, []string{"Total", strconv.Itoa(int(res.Counts.Total()))})

	means := terminal.Table{
		Title:   barTitle,
		Headers: []string{fc.CategoryColumn, barYLabel},
		Numeric: []bool{false, true},
	}
	for _, g := range res.Means {
		means.Rows = append(means.Rows, []string{g.Key, page.FormatNumber(g.Value, 2)})
	}

	pivot := terminal.Table{
		Title:   heatmapTitle,
		Headers: append([]string{fc.ItemColumn}, res.Pivot.Columns...),
		Numeric: []bool{false},
	}
	for range res.Pivot.Columns {
		pivot.Numeric = append(pivot.Numeric, true)
	}
	for r, name := range res.Pivot.Rows {
		row := []string{name}
		for _, v := range res.Pivot.Cells[r] {
			row = append(row, page.FormatNumber(v, 2))
		}
		pivot.Rows = append(pivot.Rows, row)
	}
	return []terminal.Table{counts, means, pivot}
}

// Sheets lays the summaries out for the workbook export
func Sheets(res *Result, fc config.FruitsConfig) []fs.Sheet {
	counts := fs.Sheet{Name: "Counts", Headers: []string{fc.CategoryColumn, "Count"}}
	for _, g := range res.Counts {
		counts.Rows = append(counts.Rows, []interface{}{g.Key, int(g.Value)})
	}

	means := fs.Sheet{Name: "Mean price", Headers: []string{fc.CategoryColumn, fc.PriceColumn}}
	for _, g := range res.Means {
		means.Rows = append(means.Rows, []interface{}{g.Key, cellValue(g.Value)})
	}

	pivot := fs.Sheet{Name: "Pivot", Headers: append([]string{fc.ItemColumn}, res.Pivot.Columns...)}
	for r, name := range res.Pivot.Rows {
		row := []interface{}{name}
		for _, v := range res.Pivot.Cells[r] {
			row = append(row, v)
		}
		pivot.Rows = append(pivot.Rows, row)
	}
	return []fs.Sheet{counts, means, pivot}
}

// cellValue leaves NaN cells blank
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
