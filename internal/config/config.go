// Package config loads quirkdb's TOML configuration file via viper,
// layered under QUIRKDB_-prefixed environment variables, and supports
// hot-reload via fsnotify for long-running daemons.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	envPrefix = "QUIRKDB"

	defaultConfigName = "quirkdb"
	defaultConfigType = "toml"
)

// Config is the fully resolved engine configuration.
type Config struct {
	Storage   StorageConfig
	Schema    SchemaConfig
	Telemetry TelemetryConfig
}

// StorageConfig selects and parameterizes a storage.Storage backend.
type StorageConfig struct {
	Backend string // "bbolt" | "sql" | "memory"
	Path    string // bbolt file path
	DSN     string // database/sql DSN, backend "sql" only
}

// SchemaConfig locates the table-schema file.
type SchemaConfig struct {
	Path string
}

// TelemetryConfig controls OpenTelemetry wiring.
type TelemetryConfig struct {
	Enabled  bool
	Exporter string // "stdout" | "otlp" | "none"
	// OTLPEndpoint is the collector host:port for Exporter == "otlp",
	// passed to otlpmetrichttp.WithEndpoint.
	OTLPEndpoint string
}

var knownBackends = map[string]bool{"bbolt": true, "sql": true, "memory": true}

// Load reads configPath (if non-empty) or searches the working directory
// for quirkdb.toml, applies QUIRKDB_-prefixed environment overrides, and
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType(defaultConfigType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{
		Storage: StorageConfig{
			Backend: v.GetString("storage.backend"),
			Path:    v.GetString("storage.path"),
			DSN:     v.GetString("storage.dsn"),
		},
		Schema: SchemaConfig{
			Path: v.GetString("schema.path"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("telemetry.enabled"),
			Exporter:     v.GetString("telemetry.exporter"),
			OTLPEndpoint: v.GetString("telemetry.otlpEndpoint"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "bbolt")
	v.SetDefault("storage.path", "./data/quirkdb.db")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("schema.path", "./schema.json")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.otlpEndpoint", "localhost:4318")
}

func (c *Config) validate() error {
	if !knownBackends[c.Storage.Backend] {
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "sql" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required for backend = \"sql\"")
	}
	if c.Telemetry.Exporter == "otlp" && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("config: telemetry.otlpEndpoint is required for exporter = \"otlp\"")
	}
	return nil
}

// WatchFunc is called with the reloaded Config whenever the config file
// changes on disk.
type WatchFunc func(*Config)

// Watch re-invokes onChange with a freshly loaded Config whenever
// configPath changes, for daemons that want to pick up edits without a
// restart. Load errors on reload are swallowed; the previous Config stays
// in effect until a valid reload succeeds.
func Watch(configPath string, onChange WatchFunc) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := Load(configPath)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
