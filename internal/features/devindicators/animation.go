// Package devindicators builds the development indicators animation:
// fetch indicators per country, reshape to one row per country and year,
// then draw one scatter frame per year.
package devindicators

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"vizboard/internal/clients_api/worldbank"
	"vizboard/internal/features/charts"
	"vizboard/internal/features/page"
	"vizboard/internal/infra/config"
	"vizboard/internal/infra/fs"
	"vizboard/internal/infra/log"
	"vizboard/internal/infra/terminal"
	"vizboard/internal/loader"

	"go.uber.org/zap"
)

const outputBase = "indicators"

// Result is what an animation run produced
type Result struct {
	Data      *loader.IndicatorResult
	Animation *charts.Animation
	Page      string
	Workbook  string
}

// NewFetcher builds the World Bank client from config
func NewFetcher(wc config.WorldBankConfig) *worldbank.Client {
	return worldbank.NewClient(worldbank.Options{
		BaseURL:    wc.BaseURL,
		Timeout:    time.Duration(wc.RequestTimeout) * time.Second,
		MaxRetries: wc.MaxRetries,
		RateLimit:  wc.RateLimit,
		PerPage:    wc.PerPage,
	})
}

// Run fetches, reshapes and renders once
func Run(ctx context.Context, cfg *config.Config, fetcher loader.IndicatorFetcher, stdout io.Writer) (*Result, error) {
	ic := cfg.Indicators
	req := loader.IndicatorRequest{
		Countries: ic.Countries,
		StartYear: ic.StartYear,
		EndYear:   ic.EndYear,
	}
	for _, ind := range ic.List {
		req.Indicators = append(req.Indicators, loader.Indicator{Code: ind.Code, Name: ind.Name})
	}

	data, err := loader.LoadIndicators(ctx, fetcher, req)
	if err != nil {
		return nil, fmt.Errorf("load indicators: %w", err)
	}
	res := &Result{Data: data}

	for axis, column := range map[string]string{"x": ic.X, "y": ic.Y, "size": ic.Size} {
		if !data.Table.Has(column) {
			return nil, fmt.Errorf("indicator %q for the %s axis was not loaded", column, axis)
		}
	}

	var extra []string
	for _, column := range data.Columns {
		if column != ic.X && column != ic.Y {
			extra = append(extra, column)
		}
	}

	spec, err := charts.BuildScatter(data.Table, charts.ScatterOptions{
		EntityColumn: loader.CountryColumn,
		FrameColumn:  loader.YearColumn,
		X:            ic.X,
		Y:            ic.Y,
		Size:         ic.Size,
		Extra:        extra,
		Title:        ic.Title,
		XLabel:       ic.XLabel,
		YLabel:       ic.YLabel,
		LegendTitle:  "Country",
		SizeMax:      cfg.Render.MarkerSizeMax,
	})
	if err != nil {
		return nil, err
	}

	outDir, err := fs.OutputDir(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}

	frameDuration := time.Duration(cfg.Render.FrameDuration) * time.Millisecond
	renderer := charts.NewRenderer(cfg.Render.FontPaths)
	res.Animation, err = renderer.SaveAnimation(spec, outDir, outputBase, frameDuration)
	if err != nil {
		return nil, err
	}

	frames := make([][]byte, len(res.Animation.Frames))
	for i, path := range res.Animation.Frames {
		if frames[i], err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
	}
	player, err := page.NewAnimation(spec, frames, frameDuration)
	if err != nil {
		return nil, err
	}
	res.Page = filepath.Join(outDir, outputBase+".html")
	if err := player.Write(res.Page); err != nil {
		return nil, err
	}

	if cfg.Output.Summary {
		if err := terminal.Print(stdout, SummaryTables(req, data)...); err != nil {
			return nil, fmt.Errorf("print summary: %w", err)
		}
	}
	if cfg.Output.XLSX {
		res.Workbook = filepath.Join(outDir, outputBase+".xlsx")
		sheet, err := Sheet(data)
		if err != nil {
			return nil, err
		}
		if err := fs.SaveWorkbook(res.Workbook, sheet); err != nil {
			return nil, err
		}
	}

	log.LogSuccess("Indicator animation ready",
		zap.String("page", res.Page),
		zap.String("gif", res.Animation.GIF),
		zap.Int("frames", len(res.Animation.Frames)),
		zap.Int("skipped", len(data.Skipped)))
	return res, nil
}

// SummaryTables lists which indicators made it into the table
func SummaryTables(req loader.IndicatorRequest, data *loader.IndicatorResult) []terminal.Table {
	skipped := make(map[string]error, len(data.Skipped))
	for _, s := range data.Skipped {
		skipped[s.Indicator.Code] = s.Err
	}
	loaded := make(map[string]bool, len(data.Columns))
	for _, c := range data.Columns {
		loaded[c] = true
	}

	status := terminal.Table{
		Title:   "Indicators",
		Headers: []string{"Code", "Name", "Status"},
	}
	for _, ind := range req.Indicators {
		state := "loaded"
		switch err, failed := skipped[ind.Code]; {
		case failed:
			state = "skipped: " + err.Error()
		case !loaded[ind.Name]:
			state = "no data"
		}
		status.Rows = append(status.Rows, []string{ind.Code, ind.Name, state})
	}

	shape := terminal.Table{
		Title:   "Table",
		Headers: []string{"Rows", "Countries", "Columns"},
		Numeric: []bool{true, true, true},
	}
	countries, _ := data.Table.Strings(loader.CountryColumn)
	distinct := make(map[string]bool)
	for _, c := range countries {
		distinct[c] = true
	}
	shape.Rows = [][]string{{
		strconv.Itoa(data.Table.Len()),
		strconv.Itoa(len(distinct)),
		strconv.Itoa(len(data.Columns)),
	}}
	return []terminal.Table{status, shape}
}

// Sheet exports the filled wide table
func Sheet(data *loader.IndicatorResult) (fs.Sheet, error) {
	t := data.Table
	sheet := fs.Sheet{Name: "Indicators", Headers: t.Columns()}

	countries, err := t.Strings(loader.CountryColumn)
	if err != nil {
		return sheet, err
	}
	years, err := t.Floats(loader.YearColumn)
	if err != nil {
		return sheet, err
	}
	values := make([][]float64, len(data.Columns))
	for i, c := range data.Columns {
		if values[i], err = t.Floats(c); err != nil {
			return sheet, err
		}
	}

	for r := range countries {
		row := []interface{}{countries[r], int(years[r])}
		for i := range data.Columns {
			v := values[i][r]
			if math.IsNaN(v) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}
