package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory so no config.yaml or .env leaks in
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "data/Fruit-Prices-2022.csv", cfg.Fruits.DefaultPath)
	assert.Equal(t, "Form", cfg.Fruits.CategoryColumn)
	assert.Equal(t, "CupEquivalentPrice", cfg.Fruits.PriceColumn)
	require.Len(t, cfg.Palette.Colors, 6)
	assert.Equal(t, PaletteEntry{Category: "Fresh", Color: "#66C5CC"}, cfg.Palette.Colors[0])

	require.Len(t, cfg.Indicators.List, 4)
	assert.Equal(t, "NY.GDP.PCAP.CD", cfg.Indicators.List[0].Code)
	assert.Equal(t, []string{"USA", "CHN", "IND", "BRA", "ZAF", "DEU", "JPN"}, cfg.Indicators.Countries)
	assert.Equal(t, 2000, cfg.Indicators.StartYear)
	assert.Equal(t, 2022, cfg.Indicators.EndYear)

	assert.Equal(t, 500, cfg.Render.FrameDuration)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.False(t, cfg.Telegram.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
palette:
  colors:
    - category: Fresh
      color: "#000000"
    - category: Pickled
      color: "#112233"
  fallback: "#cccccc"
indicators:
  countries: [NGA, KEN]
  start_year: 2010
  end_year: 2015
output:
  dir: build
`), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []PaletteEntry{
		{Category: "Fresh", Color: "#000000"},
		{Category: "Pickled", Color: "#112233"},
	}, cfg.Palette.Colors)
	assert.Equal(t, "#cccccc", cfg.Palette.Fallback)
	assert.Equal(t, []string{"NGA", "KEN"}, cfg.Indicators.Countries)
	assert.Equal(t, 2010, cfg.Indicators.StartYear)
	assert.Equal(t, "build", cfg.Output.Dir)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_EnvAliases(t *testing.T) {
	isolate(t)
	t.Setenv("VIZBOARD_TELEGRAM_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("FRUIT_PRICES_CSV", "/srv/prices.csv")
	t.Setenv("VIZBOARD_INDICATORS_COUNTRIES", "USA, BRA")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "-100200", cfg.Telegram.ChatID)
	assert.Equal(t, "/srv/prices.csv", cfg.Fruits.DefaultPath)
	assert.Equal(t, []string{"USA", "BRA"}, cfg.Indicators.Countries)
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("out", "", "")
	flags.String("countries", "", "")
	flags.Int("start-year", 0, "")
	flags.Int("end-year", 0, "")
	flags.Bool("summary", false, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Flags(t *testing.T) {
	isolate(t)

	cfg, err := Load("", newFlags(t, "--out=charts", "--countries=IND,ZAF", "--start-year=2005", "--summary"))
	require.NoError(t, err)

	assert.Equal(t, "charts", cfg.Output.Dir)
	assert.Equal(t, []string{"IND", "ZAF"}, cfg.Indicators.Countries)
	assert.Equal(t, 2005, cfg.Indicators.StartYear)
	assert.Equal(t, 2022, cfg.Indicators.EndYear, "unset flags keep the default")
	assert.True(t, cfg.Output.Summary)
}

func TestLoad_FlagsFailValidation(t *testing.T) {
	isolate(t)

	_, err := Load("", newFlags(t, "--start-year=2020", "--end-year=2010"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_year")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "empty palette",
			mutate: func(c *Config) { c.Palette.Colors = nil },
			want:   "palette.colors",
		},
		{
			name:   "palette entry without color",
			mutate: func(c *Config) { c.Palette.Colors[1].Color = "" },
			want:   "palette.colors[1]",
		},
		{
			name:   "indicator without code",
			mutate: func(c *Config) { c.Indicators.List[2].Code = "" },
			want:   "indicators.list[2]",
		},
		{
			name:   "duplicate indicator name",
			mutate: func(c *Config) { c.Indicators.List[3].Name = c.Indicators.List[0].Name },
			want:   "indicators.list[3]: name \"GDP per capita (current US$)\" already used by indicators.list[0]",
		},
		{
			name:   "missing column",
			mutate: func(c *Config) { c.Fruits.PriceColumn = "" },
			want:   "fruits.price_column",
		},
		{
			name:   "per page",
			mutate: func(c *Config) { c.WorldBank.PerPage = 0 },
			want:   "per_page",
		},
		{
			name: "telegram without token",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.ChatID = "1"
			},
			want: "telegram",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			require.NoError(t, Validate(cfg))

			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
