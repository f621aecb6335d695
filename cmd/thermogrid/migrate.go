package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thermogrid/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applied, err := app.Migrate(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "database is up to date")
			return nil
		}
		for _, m := range applied {
			fmt.Fprintf(out, "applied %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
