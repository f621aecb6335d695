package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"thermogrid/internal/config"
	"thermogrid/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "thermogrid",
	Short: "Global land-surface temperature heatmap",
	Long: `Thermogrid fetches the monthly global land-surface temperature dataset
once and renders it as a year by month heatmap, either served over HTTP
with hover tooltips or written to a standalone SVG or HTML file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
		setLogger(os.Stdout)
		return nil
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables override it)")
}

func setLogger(w io.Writer) {
	slog.SetDefault(logging.New(cfg, version, w))
}
