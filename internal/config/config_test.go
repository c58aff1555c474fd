package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var managedKeys = []string{
	"PROPGEN_INPUT", "PROPGEN_OUTPUT", "PROPGEN_COUNT", "PROPGEN_TABLE", "PROPGEN_TRUNCATE",
	"PROPGEN_PICKS_FILE", "PROPGEN_USNG_FIELD", "PROPGEN_ARCGIS_ENVELOPE", "PROPGEN_ARCGIS_PAGE_SIZE",
	"PROPGEN_METRICS_TEXTFILE", "PROPGEN_REFRESH_SCHEDULE", "APP_PORT",
	"PROPGEN_S3_REGION", "PROPGEN_S3_ENDPOINT", "PROPGEN_S3_PATH_STYLE",
	"PROPGEN_S3_ACCESS_KEY_ID", "PROPGEN_S3_SECRET_ACCESS_KEY",
	"DB_HOST", "DB_PORT", "DB_SERVICE", "DB_USERNAME", "DB_PASSWORD", "DB_WALLET_LOCATION",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every key Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := cfg.Generate
	if g.Input != "prisma/grid_Ksquares.json" || g.Output != "prisma/properties.json" || g.Count != 100 {
		t.Fatalf("generate defaults = %+v", g)
	}
	if g.Table != "properties" || g.Truncate {
		t.Fatalf("table defaults = %+v", g)
	}
	if cfg.Server.Port != "8080" || cfg.Grid.USNGField != "USNG" || cfg.Grid.ArcGISPageSize != 2000 {
		t.Fatalf("server/grid defaults = %+v %+v", cfg.Server, cfg.Grid)
	}
	if cfg.Oracle.Host != "localhost" || cfg.Oracle.Port != "1521" || cfg.Oracle.Service != "XE" {
		t.Fatalf("oracle defaults = %+v", cfg.Oracle)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	body := strings.Join([]string{
		"PROPGEN_INPUT=data/USNG_PR.shp",
		"PROPGEN_OUTPUT=sqlite://props.db",
		"PROPGEN_COUNT=250",
		"PROPGEN_TRUNCATE=true",
		"PROPGEN_ARCGIS_ENVELOPE=-67.3,17.9,-65.2,18.6",
		"PROPGEN_S3_PATH_STYLE=1",
		"LOG_FORMAT=json",
	}, "\n")
	if err := os.WriteFile(envFile, []byte(body), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generate.Input != "data/USNG_PR.shp" || cfg.Generate.Count != 250 || !cfg.Generate.Truncate {
		t.Fatalf("generate = %+v", cfg.Generate)
	}
	env := cfg.Grid.ArcGISEnvelope
	if len(env) != 4 || env[0] != -67.3 || env[3] != 18.6 {
		t.Fatalf("envelope = %v", env)
	}
	if !cfg.S3.PathStyle || cfg.Log.Format != "json" {
		t.Fatalf("s3/log = %+v %+v", cfg.S3, cfg.Log)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PROPGEN_COUNT":            "0",
		"PROPGEN_ARCGIS_PAGE_SIZE": "-1",
		"PROPGEN_TRUNCATE":         "maybe",
		"PROPGEN_ARCGIS_ENVELOPE":  "1,2,3",
		"APP_PORT":                 "http",
		"LOG_FORMAT":               "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(missingEnvFile(t)); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
	t.Run("count not a number", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PROPGEN_COUNT", "ten")
		if _, err := Load(missingEnvFile(t)); err == nil || !strings.Contains(err.Error(), "PROPGEN_COUNT") {
			t.Fatalf("expected PROPGEN_COUNT error, got %v", err)
		}
	})
}

func TestValidateAfterOverride(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Generate.Count = -5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative count must fail validation")
	}
	cfg.Generate.Count = 1
	cfg.Generate.Output = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("blank output must fail validation")
	}
	cfg.Generate.Output = "properties.json"
	cfg.Log.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown log level must fail validation")
	}
	for _, level := range []string{"", "DEBUG", "warn"} {
		cfg.Log.Level = level
		if err := cfg.Validate(); err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
	}
	var nilCfg *Config
	if err := nilCfg.Validate(); err == nil {
		t.Fatalf("nil config must fail validation")
	}
}

func TestParseEnvelope(t *testing.T) {
	if env, err := parseEnvelope(""); err != nil || env != nil {
		t.Fatalf("empty = %v, %v", env, err)
	}
	if _, err := parseEnvelope("5,0,1,1"); err == nil {
		t.Fatalf("inverted envelope must fail")
	}
	if _, err := parseEnvelope("a,b,c,d"); err == nil {
		t.Fatalf("non-numeric envelope must fail")
	}
}
