package commands

// Root command for Cobra CLI
// Loads configuration and logging once for every subcommand
// Registers all subcommands (fruits, indicators)

import (
	"fmt"

	"vizboard/internal/infra/config"
	logging "vizboard/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vizboard",
	Short: "vizboard - fruit price dashboard and development indicators animation",
	Long: `vizboard renders two standalone visualizations:
a fruit price dashboard (pie, bar and heatmap) from a CSV or XLSX file, and an
animated scatter of World Bank development indicators.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile, cmd.Flags())
		if err != nil {
			logging.LogError("Failed to load config", zap.Error(err))
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logging.Setup(cfg.Log.Dir, cfg.Log.Level); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	flags.String("out", "", "output directory")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-dir", "", "directory for app.log, empty disables file logging")
	flags.Bool("open", false, "open the generated page in the browser")
	flags.Bool("summary", false, "print summary tables to the terminal")
	flags.Bool("xlsx", false, "export summaries to an Excel workbook")
	flags.Bool("telegram", false, "send the charts to the configured Telegram chat")

	rootCmd.AddCommand(fruitsCmd)
	rootCmd.AddCommand(indicatorsCmd)
}
