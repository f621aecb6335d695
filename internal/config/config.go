package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultDatasetURL = "https://raw.githubusercontent.com/freeCodeCamp/ProjectReferenceData/master/global-temperature.json"
	DefaultMQTTTopic  = "thermogrid/datasets/loaded"
)

// keys lists every recognised setting by its environment name. The YAML
// file uses the same names lower-cased (http_addr, sqlite_path, ...).
var keys = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "STATIC_DIR", "CORS_ORIGINS",
	"DATASET_URL", "FETCH_TIMEOUT", "CACHE_DATASET",
	"DB_DRIVER", "SQLITE_DSN", "SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "SQL_LOG",
	"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_TOPIC",
	"CHART_WIDTH", "CHART_HEIGHT", "CHART_PADDING", "LEGEND_SWATCHES",
}

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StaticDir is the absolute path to the directory served at /static/.
	// Relative STATIC_DIR values are resolved against the working directory.
	StaticDir   string
	CORSOrigins []string

	DatasetURL   string
	FetchTimeout time.Duration
	CacheDataset bool

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLLog                bool

	// MQTTBroker empty disables the announcement.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string

	ChartWidth     int
	ChartHeight    int
	ChartPadding   int
	LegendSwatches int
}

// LoadFromEnv reads the configuration from the environment only.
func LoadFromEnv() (Config, error) {
	return Load("")
}

// Load reads the YAML file at path (skipped when path is empty), then
// overlays non-empty environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	known := make(map[string]bool, len(keys))
	for _, key := range keys {
		known[key] = true
	}
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if !known[key] || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading env overrides: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (Config, error) {
	get := func(key, def string) string {
		v := strings.TrimSpace(k.String(strings.ToLower(key)))
		if v == "" {
			return def
		}
		return v
	}

	var errs []error
	atoi := func(key, def string) int {
		s := get(key, def)
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, s, err))
		}
		return n
	}
	duration := func(key, def string) time.Duration {
		s := get(key, def)
		d, err := time.ParseDuration(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, s, err))
		}
		return d
	}
	boolean := func(key, def string) bool {
		s := get(key, def)
		b, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, s, err))
		}
		return b
	}

	appEnv := get("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	staticDir, err := filepath.Abs(get("STATIC_DIR", "static"))
	if err != nil {
		return Config{}, fmt.Errorf("STATIC_DIR %q: %w", get("STATIC_DIR", "static"), err)
	}

	clientID := get("MQTT_CLIENT_ID", "")
	if clientID == "" {
		clientID = "thermogrid-" + uuid.NewString()
	}

	cfg := Config{
		AppEnv:      appEnv,
		LogLevel:    level,
		HTTPAddr:    get("HTTP_ADDR", ":8080"),
		StaticDir:   staticDir,
		CORSOrigins: corsOrigins(k, get("CORS_ORIGINS", "*")),

		DatasetURL:   get("DATASET_URL", DefaultDatasetURL),
		FetchTimeout: duration("FETCH_TIMEOUT", "15s"),
		CacheDataset: boolean("CACHE_DATASET", "true"),

		SQLiteDriver:          get("DB_DRIVER", "sqlite3"),
		SQLiteDSN:             get("SQLITE_DSN", ""),
		SQLitePath:            get("SQLITE_PATH", "data/thermogrid.db"),
		SQLiteMaxOpenConns:    atoi("DB_MAX_OPEN_CONNS", "1"),
		SQLiteMaxIdleConns:    atoi("DB_MAX_IDLE_CONNS", "1"),
		SQLiteConnMaxLifetime: duration("DB_CONN_MAX_LIFETIME", "0s"),
		SQLLog:                boolean("SQL_LOG", "false"),

		MQTTBroker:   get("MQTT_BROKER", ""),
		MQTTPort:     atoi("MQTT_PORT", "1883"),
		MQTTClientID: clientID,
		MQTTTopic:    get("MQTT_TOPIC", DefaultMQTTTopic),

		ChartWidth:     atoi("CHART_WIDTH", "1400"),
		ChartHeight:    atoi("CHART_HEIGHT", "600"),
		ChartPadding:   atoi("CHART_PADDING", "60"),
		LegendSwatches: atoi("LEGEND_SWATCHES", "9"),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid FETCH_TIMEOUT %s (must be > 0)", cfg.FetchTimeout)
	}
	if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d", cfg.MQTTPort)
	}
	return cfg, nil
}

// MQTTEnabled reports whether a broker is configured.
func (c Config) MQTTEnabled() bool { return c.MQTTBroker != "" }

// corsOrigins accepts a YAML list or a comma separated string.
func corsOrigins(k *koanf.Koanf, raw string) []string {
	if list, ok := k.Get("cors_origins").([]interface{}); ok {
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return splitList(raw)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
