package devindicators_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizboard/internal/features/devindicators"
	"vizboard/internal/infra/config"
	"vizboard/internal/loader"
)

// values per indicator code, country name and year; nil means null
var worldBank = map[string]map[string]map[int]*float64{
	"NY.GDP.PCAP.CD": {
		"Brazil": {2000: f(3749.7), 2001: f(3156.8)},
		"India":  {2000: f(442.0), 2001: nil},
	},
	"SP.DYN.LE00.IN": {
		"Brazil": {2000: f(70.1), 2001: f(70.4)},
		"India":  {2000: f(62.5), 2001: f(63.0)},
	},
	"SH.XPD.CHEX.GD.ZS": {
		"India": {2001: f(4.1)},
	},
}

func f(v float64) *float64 { return &v }

func iso3(country string) string { return strings.ToUpper(country[:3]) }

func worldBankServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		code := parts[len(parts)-1]

		series, ok := worldBank[code]
		if !ok {
			fmt.Fprint(w, `[{"message":[{"id":"120","key":"Invalid value","value":"The provided parameter value is not valid"}]}]`)
			return
		}

		var rows []string
		for country, years := range series {
			for year, v := range years {
				value := "null"
				if v != nil {
					value = fmt.Sprintf("%g", *v)
				}
				rows = append(rows, fmt.Sprintf(
					`{"indicator":{"id":%q,"value":"x"},"country":{"id":"XX","value":%q},"countryiso3code":%q,"date":"%d","value":%s}`,
					code, country, iso3(country), year, value))
			}
		}
		fmt.Fprintf(w, `[{"page":1,"pages":1,"per_page":1000,"total":%d},[%s]]`, len(rows), strings.Join(rows, ","))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	cfg.WorldBank.BaseURL = baseURL
	cfg.WorldBank.MaxRetries = 0
	cfg.WorldBank.RateLimit = 0
	cfg.Indicators.Countries = []string{"BRA", "IND"}
	cfg.Indicators.StartYear = 2000
	cfg.Indicators.EndYear = 2001
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Render.FontPaths = []string{filepath.Join(t.TempDir(), "none.ttf")}
	return cfg
}

func TestRun_SkipsFailingIndicator(t *testing.T) {
	server := worldBankServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Output.Summary = true
	cfg.Output.XLSX = true

	var stdout bytes.Buffer
	res, err := devindicators.Run(context.Background(), cfg, devindicators.NewFetcher(cfg.WorldBank), &stdout)
	require.NoError(t, err)

	// education spending is unknown to the fake provider
	require.Len(t, res.Data.Skipped, 1)
	assert.Equal(t, "SE.XPD.TOTL.GD.ZS", res.Data.Skipped[0].Indicator.Code)
	assert.Equal(t, []string{
		"GDP per capita (current US$)",
		"Health spending (% of GDP)",
		"Life expectancy at birth (years)",
	}, res.Data.Columns)
	assert.False(t, res.Data.Table.Has("Education spending (% of GDP)"))

	gdp, err := res.Data.Table.Floats("GDP per capita (current US$)")
	require.NoError(t, err)
	assert.Equal(t, []float64{3749.7, 3156.8, 442.0, 442.0}, gdp)

	assert.Equal(t, []string{"2000", "2001"}, res.Animation.Labels)
	assert.FileExists(t, res.Animation.GIF)
	assert.FileExists(t, res.Page)
	assert.FileExists(t, res.Workbook)

	assert.Contains(t, stdout.String(), "skipped")
	assert.Contains(t, stdout.String(), "SE.XPD.TOTL.GD.ZS")
}

func TestRun_NoIndicators(t *testing.T) {
	server := worldBankServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Indicators.List = []config.Indicator{{Code: "BAD.CODE", Name: "Bad"}}

	_, err := devindicators.Run(context.Background(), cfg, devindicators.NewFetcher(cfg.WorldBank), &bytes.Buffer{})
	assert.ErrorIs(t, err, loader.ErrNoIndicators)
}

func TestRun_AxisIndicatorMissing(t *testing.T) {
	server := worldBankServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Indicators.X = "Education spending (% of GDP)"

	_, err := devindicators.Run(context.Background(), cfg, devindicators.NewFetcher(cfg.WorldBank), &bytes.Buffer{})
	assert.ErrorContains(t, err, "was not loaded")
}
