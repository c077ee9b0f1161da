package config

// Layered configuration
// 1. defaults
// 2. config.yaml (current dir) or the file given by --config
// 3. .env file
// 4. environment (VIZBOARD_<SECTION>_<KEY> and short aliases)
// 5. command flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Fruits     FruitsConfig     `mapstructure:"fruits"`
	Palette    PaletteConfig    `mapstructure:"palette"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	WorldBank  WorldBankConfig  `mapstructure:"worldbank"`
	Render     RenderConfig     `mapstructure:"render"`
	Output     OutputConfig     `mapstructure:"output"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Log        LogConfig        `mapstructure:"log"`
}

// FruitsConfig - fruit price dashboard input and labels
type FruitsConfig struct {
	File           string `mapstructure:"file"`         // uploaded file, takes precedence over DefaultPath
	DefaultPath    string `mapstructure:"default_path"` // used when no file is given
	ItemColumn     string `mapstructure:"item_column"`
	CategoryColumn string `mapstructure:"category_column"`
	PriceColumn    string `mapstructure:"price_column"`
	Title          string `mapstructure:"title"`
	Source         string `mapstructure:"source"` // markdown caption under the charts
}

// PaletteEntry maps one category to a hex color.
// Kept as a list because viper lowercases map keys.
type PaletteEntry struct {
	Category string `mapstructure:"category"`
	Color    string `mapstructure:"color"`
}

type PaletteConfig struct {
	Colors   []PaletteEntry `mapstructure:"colors"`
	Fallback string         `mapstructure:"fallback"` // empty - unknown categories are an error
}

type Indicator struct {
	Code string `mapstructure:"code"`
	Name string `mapstructure:"name"`
}

// IndicatorsConfig - development indicators animation
type IndicatorsConfig struct {
	List      []Indicator `mapstructure:"list"`
	Countries []string    `mapstructure:"countries"`
	StartYear int         `mapstructure:"start_year"`
	EndYear   int         `mapstructure:"end_year"`
	X         string      `mapstructure:"x"`    // indicator name on the x axis
	Y         string      `mapstructure:"y"`    // indicator name on the y axis
	Size      string      `mapstructure:"size"` // indicator name driving marker size
	XLabel    string      `mapstructure:"x_label"`
	YLabel    string      `mapstructure:"y_label"`
	Title     string      `mapstructure:"title"`
}

type WorldBankConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	RequestTimeout int     `mapstructure:"request_timeout"` // seconds
	MaxRetries     int     `mapstructure:"max_retries"`
	RateLimit      float64 `mapstructure:"rate_limit"` // requests per second
	PerPage        int     `mapstructure:"per_page"`
}

type RenderConfig struct {
	FontPaths     []string `mapstructure:"font_paths"`
	FrameDuration int      `mapstructure:"frame_duration"` // milliseconds per animation frame
	HeatmapWidth  int      `mapstructure:"heatmap_width"`
	HeatmapHeight int      `mapstructure:"heatmap_height"`
	MarkerSizeMax float64  `mapstructure:"marker_size_max"`
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Open    bool   `mapstructure:"open"`
	Summary bool   `mapstructure:"summary"`
	XLSX    bool   `mapstructure:"xlsx"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Endpoint string `mapstructure:"endpoint"` // Bot API endpoint format, "%s" token and method
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

// flagKeys maps command flag names to config keys
var flagKeys = map[string]string{
	"file":        "fruits.file",
	"out":         "output.dir",
	"open":        "output.open",
	"summary":     "output.summary",
	"xlsx":        "output.xlsx",
	"telegram":    "telegram.enabled",
	"log-level":   "log.level",
	"log-dir":     "log.dir",
	"countries":   "indicators.countries",
	"start-year":  "indicators.start_year",
	"end-year":    "indicators.end_year",
	"fallback":    "palette.fallback",
	"base-url":    "worldbank.base_url",
	"max-retries": "worldbank.max_retries",
}

// Load reads configuration. configFile may be empty; flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.SetEnvPrefix("VIZBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Comma separated lists from env or flags arrive as a single string
	cfg.Indicators.Countries = splitList(cfg.Indicators.Countries)
	cfg.Render.FontPaths = splitList(cfg.Render.FontPaths)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("failed to bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("telegram.bot_token", "VIZBOARD_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "VIZBOARD_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	v.BindEnv("fruits.default_path", "VIZBOARD_FRUITS_DEFAULT_PATH", "FRUIT_PRICES_CSV")
	v.BindEnv("worldbank.base_url", "VIZBOARD_WORLDBANK_BASE_URL", "WORLDBANK_BASE_URL")
	v.BindEnv("log.level", "VIZBOARD_LOG_LEVEL", "LOG_LEVEL")
}

func setDefaults(v *viper.Viper) {
	// Fruits
	v.SetDefault("fruits.file", "")
	v.SetDefault("fruits.default_path", "data/Fruit-Prices-2022.csv")
	v.SetDefault("fruits.item_column", "Fruit")
	v.SetDefault("fruits.category_column", "Form")
	v.SetDefault("fruits.price_column", "CupEquivalentPrice")
	v.SetDefault("fruits.title", "📊 Fruit Price Analysis Dashboard")
	v.SetDefault("fruits.source", "**Data Source:** [USDA - Fruit and Vegetable Prices](https://www.ers.usda.gov/data-products/fruit-and-vegetable-prices)")

	// Palette (plotly Pastel 0..5)
	v.SetDefault("palette.colors", []map[string]string{
		{"category": "Fresh", "color": "#66C5CC"},
		{"category": "Frozen", "color": "#F6CF71"},
		{"category": "Canned", "color": "#F89C74"},
		{"category": "Dried", "color": "#DCB0F2"},
		{"category": "Juice", "color": "#87C55F"},
		{"category": "Other", "color": "#9EB9F3"},
	})
	v.SetDefault("palette.fallback", "")

	// Indicators
	v.SetDefault("indicators.list", []map[string]string{
		{"code": "NY.GDP.PCAP.CD", "name": "GDP per capita (current US$)"},
		{"code": "SP.DYN.LE00.IN", "name": "Life expectancy at birth (years)"},
		{"code": "SE.XPD.TOTL.GD.ZS", "name": "Education spending (% of GDP)"},
		{"code": "SH.XPD.CHEX.GD.ZS", "name": "Health spending (% of GDP)"},
	})
	v.SetDefault("indicators.countries", []string{"USA", "CHN", "IND", "BRA", "ZAF", "DEU", "JPN"})
	v.SetDefault("indicators.start_year", 2000)
	v.SetDefault("indicators.end_year", 2022)
	v.SetDefault("indicators.x", "GDP per capita (current US$)")
	v.SetDefault("indicators.y", "Life expectancy at birth (years)")
	v.SetDefault("indicators.size", "GDP per capita (current US$)")
	v.SetDefault("indicators.x_label", "GDP per Capita (USD)")
	v.SetDefault("indicators.y_label", "Life Expectancy (years)")
	v.SetDefault("indicators.title", "Development Indicators (2000-2022)")

	// World Bank
	v.SetDefault("worldbank.base_url", "https://api.worldbank.org/v2")
	v.SetDefault("worldbank.request_timeout", 30)
	v.SetDefault("worldbank.max_retries", 3)
	v.SetDefault("worldbank.rate_limit", 5.0)
	v.SetDefault("worldbank.per_page", 1000)

	// Render
	v.SetDefault("render.font_paths", []string{})
	v.SetDefault("render.frame_duration", 500)
	v.SetDefault("render.heatmap_width", 1500)
	v.SetDefault("render.heatmap_height", 1000)
	v.SetDefault("render.marker_size_max", 50.0)

	// Output
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.open", false)
	v.SetDefault("output.summary", false)
	v.SetDefault("output.xlsx", false)

	// Telegram
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.endpoint", "")

	// Log
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
}

// Validate checks cross-field constraints
func Validate(cfg *Config) error {
	if cfg.Fruits.CategoryColumn == "" || cfg.Fruits.ItemColumn == "" || cfg.Fruits.PriceColumn == "" {
		return fmt.Errorf("fruits.item_column, fruits.category_column and fruits.price_column are required")
	}
	if len(cfg.Palette.Colors) == 0 {
		return fmt.Errorf("palette.colors must list at least one category")
	}
	for i, e := range cfg.Palette.Colors {
		if e.Category == "" || e.Color == "" {
			return fmt.Errorf("palette.colors[%d]: category and color are required", i)
		}
	}
	if cfg.Indicators.StartYear > cfg.Indicators.EndYear {
		return fmt.Errorf("indicators.start_year (%d) is after indicators.end_year (%d)",
			cfg.Indicators.StartYear, cfg.Indicators.EndYear)
	}
	names := make(map[string]int, len(cfg.Indicators.List))
	for i, ind := range cfg.Indicators.List {
		if ind.Code == "" || ind.Name == "" {
			return fmt.Errorf("indicators.list[%d]: code and name are required", i)
		}
		// the name is the column, two indicators must not share one
		if prev, dup := names[ind.Name]; dup {
			return fmt.Errorf("indicators.list[%d]: name %q already used by indicators.list[%d]", i, ind.Name, prev)
		}
		names[ind.Name] = i
	}
	if cfg.WorldBank.PerPage <= 0 {
		return fmt.Errorf("worldbank.per_page must be positive")
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "") {
		return fmt.Errorf("telegram is enabled but telegram.bot_token or telegram.chat_id is empty")
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
