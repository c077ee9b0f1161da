package loader

// API mode loader
// Fetches each indicator separately, skips the ones that fail, then pivots the
// long observations into one row per (country, year) and fills gaps per country

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"vizboard/internal/clients_api/worldbank"
	"vizboard/internal/infra/log"
	"vizboard/internal/table"

	"github.com/go-gota/gota/series"
	"go.uber.org/zap"
)

// Key columns of the wide indicator table
const (
	CountryColumn = "country"
	YearColumn    = "year"
)

// ErrNoIndicators is returned when every requested indicator failed
var ErrNoIndicators = errors.New("no indicators could be fetched")

// Indicator is a provider code plus the column name it gets in the table
type Indicator struct {
	Code string
	Name string
}

// IndicatorRequest describes one API mode load
type IndicatorRequest struct {
	Indicators []Indicator
	Countries  []string // ISO3 codes
	StartYear  int
	EndYear    int
}

// IndicatorFetcher is satisfied by *worldbank.Client
type IndicatorFetcher interface {
	GetIndicator(ctx context.Context, code string, countries []string, startYear, endYear int) ([]worldbank.Observation, error)
}

// SkippedIndicator records an indicator that was left out and why
type SkippedIndicator struct {
	Indicator Indicator
	Err       error
}

// IndicatorResult is the wide table plus bookkeeping about what made it in
type IndicatorResult struct {
	Table   *table.Table
	Columns []string // indicator columns, sorted
	Skipped []SkippedIndicator
}

type longRow struct {
	country string
	year    int
	column  string
	value   float64
}

// LoadIndicators fetches every requested indicator and builds the filled wide table.
// A failing indicator is logged and skipped; if all of them fail ErrNoIndicators is returned.
func LoadIndicators(ctx context.Context, fetcher IndicatorFetcher, req IndicatorRequest) (*IndicatorResult, error) {
	if len(req.Indicators) == 0 {
		return nil, fmt.Errorf("%w: none requested", ErrNoIndicators)
	}
	if req.StartYear > req.EndYear {
		return nil, fmt.Errorf("start year %d is after end year %d", req.StartYear, req.EndYear)
	}

	result := &IndicatorResult{}
	var rows []longRow
	fetched := 0

	for _, ind := range req.Indicators {
		observations, err := fetcher.GetIndicator(ctx, ind.Code, req.Countries, req.StartYear, req.EndYear)
		if err != nil {
			// Cancellation is not a per-indicator failure
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.LogWarn("Skipping indicator",
				zap.String("code", ind.Code),
				zap.String("name", ind.Name),
				zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedIndicator{Indicator: ind, Err: err})
			continue
		}
		fetched++

		column := columnName(ind, observations)
		for _, obs := range observations {
			if obs.Year < req.StartYear || obs.Year > req.EndYear {
				continue
			}
			rows = append(rows, longRow{
				country: obs.Country,
				year:    obs.Year,
				column:  column,
				value:   obs.Value,
			})
		}
		log.LogInfo("Indicator loaded",
			zap.String("code", ind.Code),
			zap.String("column", column),
			zap.Int("observations", len(observations)))
	}

	if fetched == 0 {
		return nil, ErrNoIndicators
	}

	columns := indicatorColumns(req.Indicators, result.Skipped, rows)
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: fetched indicators have no values", ErrNoIndicators)
	}

	t, columns, err := pivotWide(rows, columns)
	if err != nil {
		return nil, err
	}
	result.Table = t
	result.Columns = columns
	return result, nil
}

func columnName(ind Indicator, observations []worldbank.Observation) string {
	if ind.Name != "" {
		return ind.Name
	}
	for _, obs := range observations {
		if obs.IndicatorName != "" {
			return obs.IndicatorName
		}
	}
	return ind.Code
}

// indicatorColumns returns the sorted columns that have at least one value
func indicatorColumns(requested []Indicator, skipped []SkippedIndicator, rows []longRow) []string {
	observed := make(map[string]bool)
	for _, r := range rows {
		if !math.IsNaN(r.value) {
			observed[r.column] = true
		} else if _, ok := observed[r.column]; !ok {
			observed[r.column] = false
		}
	}

	columns := make([]string, 0, len(observed))
	for column, ok := range observed {
		if ok {
			columns = append(columns, column)
		} else {
			log.LogWarn("Indicator has no values in range, dropping column", zap.String("column", column))
		}
	}

	// fetched but returned nothing at all
	skippedCodes := make(map[string]bool, len(skipped))
	for _, s := range skipped {
		skippedCodes[s.Indicator.Code] = true
	}
	for _, ind := range requested {
		if skippedCodes[ind.Code] || ind.Name == "" {
			continue
		}
		if _, ok := observed[ind.Name]; !ok {
			log.LogWarn("Indicator returned no observations", zap.String("code", ind.Code))
		}
	}

	sort.Strings(columns)
	return columns
}

type cellKey struct {
	country string
	year    int
}

type accumulator struct {
	sum   float64
	count int
}

// pivotWide turns long rows into one row per (country, year) with at least one value.
// Duplicate observations for the same cell are averaged.
func pivotWide(rows []longRow, columns []string) (*table.Table, []string, error) {
	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c] = i
	}

	cells := make(map[cellKey][]accumulator)
	for _, r := range rows {
		idx, ok := colIndex[r.column]
		if !ok || math.IsNaN(r.value) {
			continue
		}
		key := cellKey{country: r.country, year: r.year}
		acc, ok := cells[key]
		if !ok {
			acc = make([]accumulator, len(columns))
			cells[key] = acc
		}
		acc[idx].sum += r.value
		acc[idx].count++
	}

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].country != keys[j].country {
			return keys[i].country < keys[j].country
		}
		return keys[i].year < keys[j].year
	})

	countries := make([]string, len(keys))
	years := make([]int, len(keys))
	values := make([][]float64, len(columns))
	for c := range values {
		values[c] = make([]float64, len(keys))
	}
	for i, k := range keys {
		countries[i] = k.country
		years[i] = k.year
		for c, acc := range cells[k] {
			if acc.count == 0 {
				values[c][i] = math.NaN()
				continue
			}
			values[c][i] = acc.sum / float64(acc.count)
		}
	}

	for c := range values {
		FillByGroup(countries, values[c])
	}

	cols := []series.Series{
		series.New(countries, series.String, CountryColumn),
		series.New(years, series.Int, YearColumn),
	}
	for c, name := range columns {
		cols = append(cols, series.New(values[c], series.Float, name))
	}

	t, err := table.FromColumns("api", cols...)
	if err != nil {
		return nil, nil, err
	}
	return t, columns, nil
}

// FillByGroup forward-fills then backward-fills values within each run of equal
// group keys. Rows must already be ordered by group then time.
func FillByGroup(groups []string, values []float64) {
	start := 0
	for i := 1; i <= len(groups); i++ {
		if i < len(groups) && groups[i] == groups[start] {
			continue
		}
		fillRange(values[start:i])
		start = i
	}
}

func fillRange(values []float64) {
	last := math.NaN()
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = last
			continue
		}
		last = v
	}
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
			continue
		}
		next = values[i]
	}
}
