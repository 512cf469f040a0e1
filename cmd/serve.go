package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"immo-map/server"
)

var serveAddr string

// serveCmd starts the dashboard
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map dashboard and JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := openSession(ctx, false)
	if err != nil {
		return err
	}

	presets, err := cfg.Presets()
	if err != nil {
		return err
	}

	addr := cfg.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	logger.Info("=== immo-map dashboard starting ===")
	logger.Info("Config — listings: %s | municipalities: %s | presets: %d",
		cfg.ListingsSource, cfg.MunicipalitiesPath, len(presets))

	return server.New(session, presets, Version, logger).Run(ctx, addr)
}
