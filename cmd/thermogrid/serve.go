package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"thermogrid/internal/app"
	"thermogrid/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the heatmap HTTP service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("starting",
			"app", logging.AppName,
			"version", version,
			"env", cfg.AppEnv,
			"log_level", cfg.LogLevel.String(),
		)

		if err := app.Run(cmd.Context(), cfg); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("run failed", "err", err)
			return err
		}

		slog.Info("shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
