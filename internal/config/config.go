// Package config provides configuration loading for the cordon CLI and
// gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// Endpoint is the gateway URL the CLI talks to.
	Endpoint string `mapstructure:"endpoint"`

	// Auth configuration
	Auth AuthConfig `mapstructure:"auth"`

	// Screening configuration
	Screening ScreeningConfig `mapstructure:"screening"`

	// Sources the registry is built from.
	Sources []SourceConfig `mapstructure:"sources"`

	// Storage configuration (run history)
	Storage StorageConfig `mapstructure:"storage"`

	// Server configuration (for gateway)
	Server ServerConfig `mapstructure:"server"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Token string `mapstructure:"token"`
}

// ScreeningConfig holds screening defaults.
type ScreeningConfig struct {
	// Source is the default source name when none is given.
	Source string `mapstructure:"source"`
}

// SourceConfig describes one source in the registry. Engine selects the
// store implementation; the remaining fields apply per engine.
type SourceConfig struct {
	Name   string `mapstructure:"name"`
	Engine string `mapstructure:"engine"`

	// Local engines (sqlite, duckdb)
	Path string `mapstructure:"path"`

	// postgres
	DSN string `mapstructure:"dsn"`

	// trino
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Catalog string `mapstructure:"catalog"`
	Schema  string `mapstructure:"schema"`
	User    string `mapstructure:"user"`

	// snowflake
	Account   string `mapstructure:"account"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	Warehouse string `mapstructure:"warehouse"`
	Role      string `mapstructure:"role"`

	// bigquery
	Project         string `mapstructure:"project"`
	Dataset         string `mapstructure:"dataset"`
	Location        string `mapstructure:"location"`
	CredentialsJSON string `mapstructure:"credentials_json"`

	// Feeds override the default feed queries per feed name.
	Feeds FeedsConfig `mapstructure:"feeds"`
}

// FeedsConfig holds per-source feed query overrides. Empty fields keep
// the defaults.
type FeedsConfig struct {
	Intake       string `mapstructure:"intake"`
	Surveillance string `mapstructure:"surveillance"`
	Biometrics   string `mapstructure:"biometrics"`
}

// StorageConfig holds run history configuration.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`

	// Path is the sqlite database file.
	Path string `mapstructure:"path"`

	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	ReadTimeout  string `mapstructure:"readTimeout"`
	WriteTimeout string `mapstructure:"writeTimeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a configuration with default values: a demo
// in-memory source and local sqlite run history.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8080",
		Auth: AuthConfig{
			Token: "",
		},
		Screening: ScreeningConfig{
			Source: "demo",
		},
		Sources: []SourceConfig{
			{Name: "demo", Engine: "inline"},
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "cordon.db",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "30s",
			WriteTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".cordon"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CORDON")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// A config file that names no sources still gets the demo source.
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultConfig().Sources
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "http://localhost:8080")
	v.SetDefault("auth.token", "")
	v.SetDefault("screening.source", "demo")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "cordon.db")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
