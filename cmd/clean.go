package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"immo-map/services"
	"immo-map/storage"
)

var cleanOutput string

// cleanCmd turns a raw export into the listings table
var cleanCmd = &cobra.Command{
	Use:   "clean <raw.csv>",
	Short: "Clean a raw listings export",
	Long: `Trim column names, drop rows without a numeric price or sold as a life
annuity, drop the sale-type columns and write the result to
CLEANED_OUTPUT_PATH (or --output).`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "output path (default CLEANED_OUTPUT_PATH)")
}

func runClean(cmd *cobra.Command, args []string) error {
	raw, err := storage.LoadRawListings(args[0])
	if err != nil {
		return err
	}

	res := services.NewCleaner(logger).Clean(raw)
	if len(res.Rows) == 0 {
		return fmt.Errorf("all %d listings were dropped during cleaning", len(raw))
	}

	path := cfg.CleanedOutputPath
	if cleanOutput != "" {
		path = cleanOutput
	}

	w, err := storage.NewCSVWriter(path, res.Header)
	if err != nil {
		return err
	}
	if err := w.WriteRows(res.Rows); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("[clean] Cleaned listings saved to %s", path)
	return nil
}
