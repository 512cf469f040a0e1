// Package cmd provides the CLI commands for immo-map.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"immo-map/config"
	"immo-map/pipeline"
	"immo-map/storage"
	"immo-map/utils"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

var (
	envFile string
	verbose bool

	cfg    *config.Config
	logger *utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "immo-map",
	Short: "Map Belgian real-estate prices by municipality and province",
	Long: `immo-map joins a listings table to municipality boundaries and draws
average prices and listing counts as choropleth maps.

Examples:
  immo-map clean ./data/raw/houses.csv
  immo-map aggregate --group province --metric count
  immo-map provinces --rebuild
  immo-map serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return err
		}
		if verbose {
			c.LogLevel = "debug"
		}
		cfg = c
		logger = utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is ./.env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(provincesCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

// listingSource opens the configured listings source.
func listingSource(ctx context.Context) (storage.ListingSource, error) {
	switch cfg.ListingsSource {
	case "postgres":
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		}
		return storage.NewPostgresReader(ctx, cfg.DSN(), retry)
	case "csv":
		return storage.CSVSource{Path: cfg.ListingsPath}, nil
	}
	return nil, fmt.Errorf("unknown listings source %q", cfg.ListingsSource)
}

// openSession loads the configured dataset.
func openSession(ctx context.Context, rebuild bool) (*pipeline.Session, error) {
	src, err := listingSource(ctx)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return pipeline.Open(ctx, src, cfg.MunicipalitiesPath, pipeline.Options{
		ProvincesPath: cfg.ProvincesPath,
		Rebuild:       rebuild || cfg.RebuildProvinces,
		Policy:        cfg.ConflictPolicy(),
	}, logger)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "immo-map version %s\n", Version)
	},
}
