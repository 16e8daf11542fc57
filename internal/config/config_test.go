package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != ":8080" {
		t.Errorf("Server.Port = %q, want :8080", cfg.Server.Port)
	}
	if cfg.Mobility.GeohashPrecision != 6 {
		t.Errorf("GeohashPrecision = %d, want 6", cfg.Mobility.GeohashPrecision)
	}
	if cfg.Mobility.LatitudePrefix != 5 || cfg.Mobility.LongitudePrefix != 7 {
		t.Errorf("prefixes = %d/%d, want 5/7", cfg.Mobility.LatitudePrefix, cfg.Mobility.LongitudePrefix)
	}
	if cfg.Mobility.TimestampPrefix != 10 {
		t.Errorf("TimestampPrefix = %d, want 10", cfg.Mobility.TimestampPrefix)
	}
	if cfg.Source.Table != "location_pings" {
		t.Errorf("Source.Table = %q", cfg.Source.Table)
	}
	if cfg.Security.JWTSecret != "" {
		t.Errorf("JWTSecret should be empty by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("MOBILITY_DAY_HOURS", "09, 10,11")
	t.Setenv("MOBILITY_NIGHT_HOURS", "23,00")
	t.Setenv("MOBILITY_GEOHASH_PRECISION", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != ":9090" {
		t.Errorf("Server.Port = %q, want :9090", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if want := []string{"09", "10", "11"}; !reflect.DeepEqual(cfg.Mobility.DayHours, want) {
		t.Errorf("DayHours = %v, want %v", cfg.Mobility.DayHours, want)
	}
	if want := []string{"23", "00"}; !reflect.DeepEqual(cfg.Mobility.NightHours, want) {
		t.Errorf("NightHours = %v, want %v", cfg.Mobility.NightHours, want)
	}
	if cfg.Mobility.GeohashPrecision != 7 {
		t.Errorf("GeohashPrecision = %d, want 7", cfg.Mobility.GeohashPrecision)
	}
	if cfg.Server.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v, want 30s", cfg.Server.RateLimitWindow)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source:
  driver: clickhouse
  table: ddmr_stge.stge_lctn
  clickhouse:
    addr: ["ch-1:9000", "ch-2:9000"]
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Driver != "clickhouse" {
		t.Errorf("Source.Driver = %q", cfg.Source.Driver)
	}
	if cfg.Source.Table != "ddmr_stge.stge_lctn" {
		t.Errorf("Source.Table = %q", cfg.Source.Table)
	}
	if len(cfg.Source.ClickHouse.Addr) != 2 {
		t.Errorf("ClickHouse.Addr = %v", cfg.Source.ClickHouse.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	// untouched keys keep their defaults
	if cfg.Source.SubscriberColumn != "msisdn_no" {
		t.Errorf("SubscriberColumn = %q", cfg.Source.SubscriberColumn)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"precision too high", func(c *Config) { c.Mobility.GeohashPrecision = 13 }, "geohash_precision"},
		{"precision zero", func(c *Config) { c.Mobility.GeohashPrecision = 0 }, "geohash_precision"},
		{"bad driver", func(c *Config) { c.Source.Driver = "spark" }, "unknown source.driver"},
		{"clickhouse without addr", func(c *Config) {
			c.Source.Driver = "clickhouse"
			c.Source.ClickHouse.Addr = nil
		}, "clickhouse.addr"},
		{"overlapping hours", func(c *Config) { c.Mobility.NightHours = []string{"12"} }, "both day and night"},
		{"bad hour label", func(c *Config) { c.Mobility.DayHours = []string{"9"} }, "invalid day hour"},
		{"no db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" 01, ,02,03 ")
	want := []string{"01", "02", "03"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}
