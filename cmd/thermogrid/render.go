package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"thermogrid/internal/app"
)

var (
	renderSource string
	renderOut    string
	renderFormat string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the heatmap once to a file or stdout",
	Long: `Fetches the dataset from --source (an http(s) URL or a local JSON file,
DATASET_URL by default) and writes the heatmap as SVG or as an HTML page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout may carry the rendered document
		setLogger(os.Stderr)

		if renderOut == "" || renderOut == "-" {
			return app.Render(cmd.Context(), cfg, renderSource, cmd.OutOrStdout(), renderFormat)
		}

		f, err := os.CreateTemp(filepath.Dir(renderOut), ".thermogrid-*")
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer os.Remove(f.Name())

		if err := f.Chmod(0o644); err != nil {
			_ = f.Close()
			return fmt.Errorf("create output: %w", err)
		}
		if err := app.Render(cmd.Context(), cfg, renderSource, f, renderFormat); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write %s: %w", renderOut, err)
		}
		if err := os.Rename(f.Name(), renderOut); err != nil {
			return fmt.Errorf("write %s: %w", renderOut, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", renderOut)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderSource, "source", "", "dataset URL or file (default DATASET_URL)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "-", "output file, - for stdout")
	renderCmd.Flags().StringVar(&renderFormat, "format", app.FormatSVG, "output format: svg or html")
	rootCmd.AddCommand(renderCmd)
}
