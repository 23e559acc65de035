package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so the key
// job_service.base_url is read from LECGEN_JOB_SERVICE_BASE_URL.
const EnvPrefix = "LECGEN"

// ConfigFileEnv names an explicit config file, overriding the search path.
const ConfigFileEnv = "LECGEN_CONFIG"

var defaults = map[string]any{
	"server.port":                      8080,
	"server.log_level":                 "info",
	"server.shutdown_timeout":          "10s",
	"job_service.base_url":             "http://localhost:8000",
	"database.url":                     "",
	"preferences.theme":                "dark",
	"preferences.language":             "en",
	"preferences.notifications.email":  true,
	"preferences.notifications.push":   false,
	"preferences.notifications.weekly": true,
	"preferences_file":                 "",
}

// Load configuration from defaults, an optional config file, and
// environment variables, in increasing order of precedence.
// Returns a populated Config or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.lecgen")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
