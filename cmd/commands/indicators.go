package commands

// Command to render the development indicators animation
// Fetches from the World Bank API, cancels on SIGINT/SIGTERM

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vizboard/internal/features/devindicators"
	logging "vizboard/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Render the development indicators animation",
	Long:  `Fetch development indicators from the World Bank API, fill gaps per country and render an animated scatter with one frame per year.`,
	RunE:  runIndicators,
}

func init() {
	flags := indicatorsCmd.Flags()
	flags.String("countries", "", "comma separated ISO3 country codes")
	flags.Int("start-year", 0, "first year")
	flags.Int("end-year", 0, "last year")
	flags.String("base-url", "", "World Bank API base URL")
	flags.Int("max-retries", 0, "retries per request on 429/5xx")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher := devindicators.NewFetcher(cfg.WorldBank)
	res, err := devindicators.Run(ctx, cfg, fetcher, cmd.OutOrStdout())
	if err != nil {
		logging.LogError("Indicator animation failed", zap.Error(err))
		return fmt.Errorf("indicator animation: %w", err)
	}

	return publish(res.Page, []attachment{{
		path:      res.Animation.GIF,
		caption:   cfg.Indicators.Title,
		animation: true,
	}})
}
