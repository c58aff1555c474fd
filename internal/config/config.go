package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"propgen/internal/blob"
	"propgen/internal/database"
)

// Config represents the full application configuration surface.
type Config struct {
	Generate GenerateConfig
	Grid     GridConfig
	Server   ServerConfig
	Metrics  MetricsConfig
	S3       blob.Config
	Oracle   database.DBConfig
	Sheets   SheetsConfig
	Log      LogConfig
}

// GenerateConfig holds the options of one generation run.
type GenerateConfig struct {
	Input    string
	Output   string
	Count    int
	Table    string
	Truncate bool
	// PicksFile stores the record ids bookmarked in browse mode.
	PicksFile string
}

// GridConfig tunes shapefile and ArcGIS grid sources.
type GridConfig struct {
	USNGField      string
	ArcGISEnvelope []float64
	ArcGISPageSize int
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	RefreshSchedule string
}

// MetricsConfig holds the Prometheus textfile target for batch runs.
type MetricsConfig struct {
	Textfile string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// a missing .env is fine when settings come from the environment
		_ = godotenv.Load()
	}

	count, err := getenvInt("PROPGEN_COUNT", 100)
	if err != nil {
		return nil, err
	}
	truncate, err := getenvBool("PROPGEN_TRUNCATE", false)
	if err != nil {
		return nil, err
	}
	pageSize, err := getenvInt("PROPGEN_ARCGIS_PAGE_SIZE", 2000)
	if err != nil {
		return nil, err
	}
	envelope, err := parseEnvelope(os.Getenv("PROPGEN_ARCGIS_ENVELOPE"))
	if err != nil {
		return nil, err
	}
	pathStyle, err := getenvBool("PROPGEN_S3_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Generate: GenerateConfig{
			Input:     getenvWithDefault("PROPGEN_INPUT", "prisma/grid_Ksquares.json"),
			Output:    getenvWithDefault("PROPGEN_OUTPUT", "prisma/properties.json"),
			Count:     count,
			Table:     getenvWithDefault("PROPGEN_TABLE", "properties"),
			Truncate:  truncate,
			PicksFile: getenvWithDefault("PROPGEN_PICKS_FILE", "prisma/picks.txt"),
		},
		Grid: GridConfig{
			USNGField:      getenvWithDefault("PROPGEN_USNG_FIELD", "USNG"),
			ArcGISEnvelope: envelope,
			ArcGISPageSize: pageSize,
		},
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			RefreshSchedule: os.Getenv("PROPGEN_REFRESH_SCHEDULE"),
		},
		Metrics: MetricsConfig{
			Textfile: os.Getenv("PROPGEN_METRICS_TEXTFILE"),
		},
		S3: blob.Config{
			Region:          getenvWithDefault("PROPGEN_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("PROPGEN_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("PROPGEN_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("PROPGEN_S3_SECRET_ACCESS_KEY"),
			PathStyle:       pathStyle,
		},
		Oracle: database.DBConfig{
			Dialect:        database.Oracle,
			Host:           getenvWithDefault("DB_HOST", "localhost"),
			Port:           getenvWithDefault("DB_PORT", "1521"),
			Service:        getenvWithDefault("DB_SERVICE", "XE"),
			Username:       os.Getenv("DB_USERNAME"),
			Password:       os.Getenv("DB_PASSWORD"),
			WalletLocation: os.Getenv("DB_WALLET_LOCATION"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
		},
		Log: LogConfig{
			Level:  getenvWithDefault("LOG_LEVEL", "info"),
			Format: getenvWithDefault("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case strings.TrimSpace(c.Generate.Input) == "":
		return errors.New("PROPGEN_INPUT must be provided")
	case strings.TrimSpace(c.Generate.Output) == "":
		return errors.New("PROPGEN_OUTPUT must be provided")
	case c.Generate.Count <= 0:
		return fmt.Errorf("PROPGEN_COUNT must be positive, got %d", c.Generate.Count)
	case c.Generate.Table == "":
		return errors.New("PROPGEN_TABLE must not be empty")
	}

	if c.Grid.ArcGISPageSize <= 0 {
		return fmt.Errorf("PROPGEN_ARCGIS_PAGE_SIZE must be positive, got %d", c.Grid.ArcGISPageSize)
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("APP_PORT must be a port number, got %q", c.Server.Port)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format)
	}
	if level := strings.TrimSpace(c.Log.Level); level != "" {
		if _, err := zapcore.ParseLevel(strings.ToLower(level)); err != nil {
			return fmt.Errorf("LOG_LEVEL is not a log level, got %q", c.Log.Level)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

// parseEnvelope reads "xmin,ymin,xmax,ymax".
func parseEnvelope(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("PROPGEN_ARCGIS_ENVELOPE needs xmin,ymin,xmax,ymax, got %q", raw)
	}
	env := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("PROPGEN_ARCGIS_ENVELOPE: %w", err)
		}
		env[i] = v
	}
	if env[0] >= env[2] || env[1] >= env[3] {
		return nil, fmt.Errorf("PROPGEN_ARCGIS_ENVELOPE min must be below max, got %q", raw)
	}
	return env, nil
}
