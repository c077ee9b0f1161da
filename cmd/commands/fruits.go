package commands

// Command to render the fruit price dashboard
// Reads --file or the configured default path

import (
	"fmt"

	"vizboard/internal/features/fruitprices"
	logging "vizboard/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fruitsCmd = &cobra.Command{
	Use:   "fruits",
	Short: "Render the fruit price dashboard",
	Long:  `Load fruit prices from a CSV or XLSX file and render category counts, mean price per form and a fruit x form price heatmap.`,
	RunE:  runFruits,
}

func init() {
	fruitsCmd.Flags().String("file", "", "price file (.csv, .txt or .xlsx); defaults to fruits.default_path")
	fruitsCmd.Flags().String("fallback", "", "hex colour for forms missing from the palette")
}

func runFruits(cmd *cobra.Command, args []string) error {
	res, err := fruitprices.Run(cfg, cmd.OutOrStdout())
	if err != nil {
		logging.LogError("Fruit dashboard failed", zap.Error(err))
		return fmt.Errorf("fruit dashboard: %w", err)
	}

	var charts []attachment
	for _, c := range res.Charts {
		charts = append(charts, attachment{path: c.Path, caption: c.Title})
	}
	return publish(res.Page, charts)
}
