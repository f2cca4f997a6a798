package cli

import (
	"strings"

	"github.com/spf13/viper"
)

// cliConfig holds snowglobectl's own settings, distinct from the server's
// internal/config.Config: a CLI talking to the unauthenticated operator
// surface only needs an endpoint and an output default.
type cliConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	OutputFormat string `mapstructure:"outputFormat"`
}

func defaultCLIConfig() *cliConfig {
	return &cliConfig{
		Endpoint:     "http://localhost:8084",
		OutputFormat: "table",
	}
}

// loadConfig reads snowglobectl.yaml (or the file at configPath) plus
// SNOWGLOBECTL_-prefixed environment variables, falling back to defaults
// when no config file exists.
func loadConfig(configPath string) (*cliConfig, error) {
	cfg := defaultCLIConfig()

	v := viper.New()
	v.SetEnvPrefix("SNOWGLOBECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("snowglobectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.snowglobectl")
	}

	v.SetDefault("endpoint", cfg.Endpoint)
	v.SetDefault("outputFormat", cfg.OutputFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg.Endpoint = v.GetString("endpoint")
	cfg.OutputFormat = v.GetString("outputFormat")
	return cfg, nil
}
