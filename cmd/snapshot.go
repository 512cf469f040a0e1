package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"immo-map/render"
)

var snapshotPresets []string

// snapshotCmd writes PNG maps
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render map presets to PNG files with headless Chrome",
	Long: `Render each preset as a static map and capture it with headless Chrome into
SNAPSHOT_DIR/<preset>.png. All presets are rendered unless --preset is given.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringSliceVarP(&snapshotPresets, "preset", "p", nil, "preset names to render")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presets, err := cfg.Presets()
	if err != nil {
		return err
	}
	if len(snapshotPresets) > 0 {
		selected := make([]render.Preset, 0, len(snapshotPresets))
		for _, name := range snapshotPresets {
			p, ok := render.FindPreset(presets, name)
			if !ok {
				return fmt.Errorf("unknown preset %q", name)
			}
			selected = append(selected, p)
		}
		presets = selected
	}

	session, err := openSession(ctx, false)
	if err != nil {
		return err
	}

	jobs := make([]render.Job, 0, len(presets))
	for _, p := range presets {
		m, err := session.Map(p.Options)
		if err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
		jobs = append(jobs, render.Job{
			Name:    p.Name,
			Page:    render.Page{Title: p.Title, Map: m},
			OutPath: filepath.Join(cfg.SnapshotDir, p.Name+".png"),
		})
	}

	errs := render.NewSnapshotter(cfg.SnapshotConfig(), logger).CaptureAll(ctx, jobs)
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d snapshots failed: %w", len(errs), len(jobs), errs[0])
	}
	logger.Info("[snapshot] Wrote %d maps to %s", len(jobs), cfg.SnapshotDir)
	return nil
}
