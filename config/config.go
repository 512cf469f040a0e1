package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"immo-map/models"
	"immo-map/render"
	"immo-map/services"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ListingsSource     string `validate:"oneof=csv postgres"`
	ListingsPath       string `validate:"required_if=ListingsSource csv"`
	MunicipalitiesPath string `validate:"required"`
	ProvincesPath      string
	CleanedOutputPath  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	HTTPAddr  string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=console json"`

	ProvinceConflicts string `validate:"oneof=error last-wins"`
	RebuildProvinces  bool

	MapColorScale string
	MapRangeMax   float64
	MapZoom       int
	MapOpacity    float64
	MapCenterLat  float64
	MapCenterLon  float64
	MapPresets    string

	SnapshotDir string
	ChromeBin   string

	MaxConcurrency int `validate:"gte=1"`
	RateLimitMs    int `validate:"gte=0"`
	MaxRetries     int `validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the .env file when present and returns a validated Config.
// envFiles overrides the default ".env" lookup.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		ListingsSource:     getEnv("LISTINGS_SOURCE", "csv"),
		ListingsPath:       getEnv("LISTINGS_PATH", "./data/cleaned/houses.csv"),
		MunicipalitiesPath: getEnv("MUNICIPALITIES_PATH", "./data/geo/communes.geojson"),
		ProvincesPath:      getEnv("PROVINCES_PATH", "./data/processed/provinces.geojson"),
		CleanedOutputPath:  getEnv("CLEANED_OUTPUT_PATH", "./data/cleaned/houses.csv"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "immo"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "immo123"),
		PostgresDB:       getEnv("POSTGRES_DB", "immo_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),

		ProvinceConflicts: getEnv("PROVINCE_CONFLICTS", string(services.ConflictError)),
		RebuildProvinces:  getEnvBool("REBUILD_PROVINCES", false),

		MapColorScale: getEnv("MAP_COLOR_SCALE", string(render.RdYlBu)),
		MapRangeMax:   getEnvFloat("MAP_RANGE_MAX", 2500000),
		MapZoom:       getEnvInt("MAP_ZOOM", 8),
		MapOpacity:    getEnvFloat("MAP_OPACITY", 0.5),
		MapCenterLat:  getEnvFloat("MAP_CENTER_LAT", 50.8503),
		MapCenterLon:  getEnvFloat("MAP_CENTER_LON", 4.3517),
		MapPresets:    getEnv("MAP_PRESETS_PATH", ""),

		SnapshotDir: getEnv("SNAPSHOT_DIR", "./output/maps"),
		ChromeBin:   getEnv("CHROME_BIN", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w: %v", models.ErrInvalidOption, err)
	}
	if err := cfg.MapOptions().Validate(); err != nil {
		return nil, fmt.Errorf("config: map defaults: %w", err)
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// MapOptions returns the default rendering options.
func (c *Config) MapOptions() render.Options {
	o := render.DefaultOptions()
	o.ColorScale = render.ColorScale(c.MapColorScale)
	o.RangeMax = c.MapRangeMax
	o.Zoom = c.MapZoom
	o.Opacity = c.MapOpacity
	o.CenterLat = c.MapCenterLat
	o.CenterLon = c.MapCenterLon
	return o
}

// Presets loads MAP_PRESETS_PATH, or derives the standard presets from the
// map defaults when it is unset.
func (c *Config) Presets() ([]render.Preset, error) {
	if c.MapPresets == "" {
		return render.DefaultPresets(c.MapOptions()), nil
	}
	return render.LoadPresets(c.MapPresets, c.MapOptions())
}

// ConflictPolicy returns the configured province conflict policy.
func (c *Config) ConflictPolicy() services.ConflictPolicy {
	return services.ConflictPolicy(c.ProvinceConflicts)
}

// SnapshotConfig returns the headless browser settings.
func (c *Config) SnapshotConfig() render.SnapshotConfig {
	return render.SnapshotConfig{
		ChromeBin:      c.ChromeBin,
		Timeout:        60 * time.Second,
		MaxConcurrency: c.MaxConcurrency,
		RateLimitMs:    c.RateLimitMs,
		MaxRetries:     c.MaxRetries,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
