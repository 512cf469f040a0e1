package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"immo-map/models"
	"immo-map/services"
)

var (
	aggGroup  string
	aggMetric string
	aggJSON   bool
	aggReport bool
)

// aggregateCmd prints one aggregate table
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Print average prices or listing counts per city or province",
	Long: `Aggregate the listings by city or province.

Examples:
  immo-map aggregate
  immo-map aggregate --group province --metric count
  immo-map aggregate --json > prices.json
  immo-map aggregate --summary`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggGroup, "group", "g", string(models.GroupByCity), "group key (city, province)")
	aggregateCmd.Flags().StringVarP(&aggMetric, "metric", "m", string(models.MetricAveragePrice), "metric (average_price, count)")
	aggregateCmd.Flags().BoolVar(&aggJSON, "json", false, "print rows as JSON")
	aggregateCmd.Flags().BoolVar(&aggReport, "summary", false, "print a dataset summary instead")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	key, err := models.ParseGroupKey(aggGroup)
	if err != nil {
		return err
	}
	metric, err := models.ParseMetric(aggMetric)
	if err != nil {
		return err
	}

	ctx := context.Background()
	src, err := listingSource(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	listings, err := src.FetchListings(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	insights := services.NewInsightService(logger)
	if aggReport {
		insights.Print(out, insights.Generate(listings))
		return nil
	}

	rows, err := services.NewAggregator(logger).Aggregate(listings, key, metric)
	if err != nil {
		return err
	}

	if aggJSON {
		if rows == nil {
			rows = []models.AggregateRow{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	insights.PrintRows(out, key, metric, rows)
	return nil
}
