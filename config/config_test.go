package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-map/models"
	"immo-map/render"
	"immo-map/services"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.ListingsSource)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, services.ConflictError, cfg.ConflictPolicy())

	opts := cfg.MapOptions()
	assert.Equal(t, render.DefaultOptions(), opts)

	presets, err := cfg.Presets()
	require.NoError(t, err)
	assert.Len(t, presets, 4)
}

func TestLoadReadsEnvFileAndEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"MAP_ZOOM=10\nMAP_COLOR_SCALE=Viridis\nPROVINCE_CONFLICTS=last-wins\n"), 0644))

	// Real environment variables win over the file.
	t.Setenv("MAP_ZOOM", "7")
	t.Setenv("REBUILD_PROVINCES", "true")
	t.Setenv("MAP_OPACITY", "0.8")
	t.Setenv("POSTGRES_DB", "houses")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("MAP_COLOR_SCALE")
		os.Unsetenv("PROVINCE_CONFLICTS")
	})

	assert.Equal(t, 7, cfg.MapZoom)
	assert.Equal(t, render.Viridis, cfg.MapOptions().ColorScale)
	assert.Equal(t, services.ConflictLastWins, cfg.ConflictPolicy())
	assert.True(t, cfg.RebuildProvinces)
	assert.Equal(t, 0.8, cfg.MapOpacity)
	assert.Contains(t, cfg.DSN(), "dbname=houses")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"source":      {"LISTINGS_SOURCE", "excel"},
		"conflicts":   {"PROVINCE_CONFLICTS", "first-wins"},
		"log level":   {"LOG_LEVEL", "loud"},
		"scale":       {"MAP_COLOR_SCALE", "rainbow"},
		"opacity":     {"MAP_OPACITY", "3"},
		"concurrency": {"MAX_CONCURRENCY", "0"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.True(t, errors.Is(err, models.ErrInvalidOption), "got %v", err)
		})
	}
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("IMMO_TEST_INT", "abc")
	t.Setenv("IMMO_TEST_FLOAT", "1.5")
	t.Setenv("IMMO_TEST_BOOL", "maybe")

	assert.Equal(t, 4, getEnvInt("IMMO_TEST_INT", 4))
	assert.Equal(t, 1.5, getEnvFloat("IMMO_TEST_FLOAT", 0))
	assert.False(t, getEnvBool("IMMO_TEST_BOOL", false))
	assert.Equal(t, "x", getEnv("IMMO_TEST_UNSET", "x"))
}
