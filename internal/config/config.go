package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Source   SourceConfig   `koanf:"source"`
	Mobility MobilityConfig `koanf:"mobility"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port            string        `koanf:"port"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	MaxMemory       int64         `koanf:"max_memory"` // 最大内存使用（字节）
}

// DatabaseConfig SQLite 配置
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SourceConfig describes where location pings are read from
type SourceConfig struct {
	Driver           string           `koanf:"driver"` // sqlite or clickhouse
	Table            string           `koanf:"table"`
	SubscriberColumn string           `koanf:"subscriber_column"`
	LatitudeColumn   string           `koanf:"latitude_column"`
	LongitudeColumn  string           `koanf:"longitude_column"`
	TimestampColumn  string           `koanf:"timestamp_column"`
	ClickHouse       ClickHouseConfig `koanf:"clickhouse"`
}

// ClickHouseConfig 数仓连接配置
type ClickHouseConfig struct {
	Addr        []string      `koanf:"addr"`
	Database    string        `koanf:"database"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// MobilityConfig holds the pipeline constants
type MobilityConfig struct {
	GeohashPrecision int      `koanf:"geohash_precision"`
	TimestampPrefix  int      `koanf:"timestamp_prefix"`
	LatitudePrefix   int      `koanf:"latitude_prefix"`
	LongitudePrefix  int      `koanf:"longitude_prefix"`
	DayHours         []string `koanf:"day_hours"`
	NightHours       []string `koanf:"night_hours"`
}

// SecurityConfig 鉴权配置，JWTSecret 为空时关闭鉴权
type SecurityConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			MaxMemory:       1024 * 1024 * 800, // 800MB
		},
		Database: DatabaseConfig{
			Path: "./data/mobility/mobility.db",
		},
		Source: SourceConfig{
			Driver:           "sqlite",
			Table:            "location_pings",
			SubscriberColumn: "msisdn_no",
			LatitudeColumn:   "lat_id",
			LongitudeColumn:  "long_id",
			TimestampColumn:  "srce_file_ts",
			ClickHouse: ClickHouseConfig{
				Addr:        []string{"127.0.0.1:9000"},
				Database:    "default",
				Username:    "default",
				DialTimeout: 10 * time.Second,
			},
		},
		Mobility: MobilityConfig{
			GeohashPrecision: 6,
			TimestampPrefix:  10,
			LatitudePrefix:   5,
			LongitudePrefix:  7,
			DayHours:         []string{"10", "11", "12", "13", "14", "15", "16"},
			NightHours:       []string{"22", "23", "00", "01", "02", "03", "04", "05", "06"},
		},
		Security: SecurityConfig{
			TokenTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 加载配置: defaults, then optional YAML file, then environment
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Server.Port != "" && !strings.Contains(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":                       "server.port",
	"rate_limit_reqs":            "server.rate_limit_reqs",
	"rate_limit_window":          "server.rate_limit_window",
	"db_path":                    "database.path",
	"jwt_secret":                 "security.jwt_secret",
	"token_ttl":                  "security.token_ttl",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
	"log_caller":                 "logging.caller",
	"source_driver":              "source.driver",
	"source_table":               "source.table",
	"source_subscriber_column":   "source.subscriber_column",
	"source_latitude_column":     "source.latitude_column",
	"source_longitude_column":    "source.longitude_column",
	"source_timestamp_column":    "source.timestamp_column",
	"clickhouse_addr":            "source.clickhouse.addr",
	"clickhouse_database":        "source.clickhouse.database",
	"clickhouse_username":        "source.clickhouse.username",
	"clickhouse_password":        "source.clickhouse.password",
	"clickhouse_dial_timeout":    "source.clickhouse.dial_timeout",
	"mobility_geohash_precision": "mobility.geohash_precision",
	"mobility_timestamp_prefix":  "mobility.timestamp_prefix",
	"mobility_latitude_prefix":   "mobility.latitude_prefix",
	"mobility_longitude_prefix":  "mobility.longitude_prefix",
	"mobility_day_hours":         "mobility.day_hours",
	"mobility_night_hours":       "mobility.night_hours",
}

// envTransformFunc maps known environment variables to config paths and drops the rest
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var sliceConfigPaths = []string{
	"mobility.day_hours",
	"mobility.night_hours",
	"source.clickhouse.addr",
}

// processSliceFields splits comma-separated env values into slices
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		if err := k.Set(path, SplitList(s)); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	var errs []error

	m := c.Mobility
	if m.GeohashPrecision < 1 || m.GeohashPrecision > 12 {
		errs = append(errs, fmt.Errorf("mobility.geohash_precision must be 1-12, got %d", m.GeohashPrecision))
	}
	if m.TimestampPrefix < 2 || m.LatitudePrefix < 1 || m.LongitudePrefix < 1 {
		errs = append(errs, errors.New("mobility prefix lengths must be positive (timestamp at least 2)"))
	}
	if err := ValidateHourSets(m.DayHours, m.NightHours); err != nil {
		errs = append(errs, err)
	}

	switch c.Source.Driver {
	case "sqlite":
	case "clickhouse":
		if len(c.Source.ClickHouse.Addr) == 0 {
			errs = append(errs, errors.New("source.clickhouse.addr is required for the clickhouse driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.driver %q", c.Source.Driver))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	return errors.Join(errs...)
}

// ValidateHourSets checks that hour labels are two characters and that the sets are disjoint
func ValidateHourSets(day, night []string) error {
	seen := make(map[string]bool, len(day))
	for _, h := range day {
		if len(h) != 2 {
			return fmt.Errorf("invalid day hour label %q", h)
		}
		seen[h] = true
	}
	for _, h := range night {
		if len(h) != 2 {
			return fmt.Errorf("invalid night hour label %q", h)
		}
		if seen[h] {
			return fmt.Errorf("hour %q is in both day and night sets", h)
		}
	}
	return nil
}
