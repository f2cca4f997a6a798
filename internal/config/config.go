// Package config loads snowglobe's server configuration.
//
// Per spec.md §6: configuration is driven by environment variables with
// fixed, literal names (PORT, HTTPS_PORT, HOST, DATA_DIR, ENABLE_HTTPS,
// CERT_PATH, KEY_PATH, LOG_LEVEL, QUERY_DEADLINE_SECONDS). viper is the
// loading mechanism; the wire contract is the literal env var names, so
// environment variables are bound unprefixed rather than under a
// "SNOWGLOBE_" namespace.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds snowglobe server configuration.
type Config struct {
	Port                 int    `mapstructure:"port"`
	HTTPSPort            int    `mapstructure:"https_port"`
	Host                 string `mapstructure:"host"`
	DataDir              string `mapstructure:"data_dir"`
	EnableHTTPS          bool   `mapstructure:"enable_https"`
	CertPath             string `mapstructure:"cert_path"`
	KeyPath              string `mapstructure:"key_path"`
	LogLevel             string `mapstructure:"log_level"`
	QueryDeadlineSeconds int    `mapstructure:"query_deadline_seconds"`

	// SessionIdleTimeoutSeconds is an ambient-stack addition: 0 means
	// sessions never expire, matching spec.md §4.2's stated default.
	SessionIdleTimeoutSeconds int `mapstructure:"session_idle_timeout_seconds"`

	// ShutdownGraceSeconds bounds graceful shutdown per spec.md §5.
	ShutdownGraceSeconds int `mapstructure:"shutdown_grace_seconds"`

	// HistoryCapacity bounds the query history ring per spec.md §4.6.
	HistoryCapacity int `mapstructure:"history_capacity"`

	// LogCapacity bounds the log sink per spec.md §4.7.
	LogCapacity int `mapstructure:"log_capacity"`
}

// Default returns the configuration defaults prescribed by spec.md §6.
func Default() *Config {
	return &Config{
		Port:                      8084,
		HTTPSPort:                 8443,
		Host:                      "0.0.0.0",
		DataDir:                   "./data",
		EnableHTTPS:               false,
		LogLevel:                  "info",
		QueryDeadlineSeconds:      300,
		SessionIdleTimeoutSeconds: 0,
		ShutdownGraceSeconds:      30,
		HistoryCapacity:           1000,
		LogCapacity:               1000,
	}
}

// Load reads configuration from an optional YAML file and from the
// environment, in that precedence order (env wins). configPath may be
// empty, in which case ./snowglobe.yaml is tried and silently skipped if
// absent.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("snowglobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: error reading config file: %w", err)
		}
	}

	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: error parsing config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("https_port", d.HTTPSPort)
	v.SetDefault("host", d.Host)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("enable_https", d.EnableHTTPS)
	v.SetDefault("cert_path", d.CertPath)
	v.SetDefault("key_path", d.KeyPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("query_deadline_seconds", d.QueryDeadlineSeconds)
	v.SetDefault("session_idle_timeout_seconds", d.SessionIdleTimeoutSeconds)
	v.SetDefault("shutdown_grace_seconds", d.ShutdownGraceSeconds)
	v.SetDefault("history_capacity", d.HistoryCapacity)
	v.SetDefault("log_capacity", d.LogCapacity)
}

// bindEnv binds each key to its literal spec.md §6 environment variable
// name — no prefix, unlike a typical viper.SetEnvPrefix setup.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("https_port", "HTTPS_PORT")
	_ = v.BindEnv("host", "HOST")
	_ = v.BindEnv("data_dir", "DATA_DIR")
	_ = v.BindEnv("enable_https", "ENABLE_HTTPS")
	_ = v.BindEnv("cert_path", "CERT_PATH")
	_ = v.BindEnv("key_path", "KEY_PATH")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("query_deadline_seconds", "QUERY_DEADLINE_SECONDS")
}

// EnsureDataDir creates the data directory if it does not yet exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}

// CatalogPath returns the path to the persisted catalog snapshot.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.json")
}

// WorksheetsPath returns the path to the persisted worksheet store.
func (c *Config) WorksheetsPath() string {
	return filepath.Join(c.DataDir, "worksheets.json")
}

// EnginePath returns the path to the embedded engine's own database file.
func (c *Config) EnginePath() string {
	return filepath.Join(c.DataDir, "engine.db")
}

// TLSConfigured reports whether the configuration declares both a
// certificate and a key path.
func (c *Config) TLSConfigured() bool {
	return c.CertPath != "" && c.KeyPath != ""
}
