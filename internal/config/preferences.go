package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadPreferences reads saved preferences from path. A missing file yields
// fallback; a present but invalid one is an error.
func LoadPreferences(path string, fallback PreferencesConfig) (PreferencesConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fallback, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	setPreferences(v, fallback)
	if err := v.ReadInConfig(); err != nil {
		return PreferencesConfig{}, fmt.Errorf("failed to read preferences file %s: %w", path, err)
	}

	var prefs PreferencesConfig
	if err := v.Unmarshal(&prefs); err != nil {
		return PreferencesConfig{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if err := validator.New().Struct(prefs); err != nil {
		return PreferencesConfig{}, fmt.Errorf("preferences validation failed: %w", err)
	}
	return prefs, nil
}

// SavePreferences writes prefs to path. The format follows the file
// extension (yaml, json or toml).
func SavePreferences(path string, prefs PreferencesConfig) error {
	v := viper.New()
	setPreferences(v, prefs)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to save preferences to %s: %w", path, err)
	}
	return nil
}

func setPreferences(v *viper.Viper, prefs PreferencesConfig) {
	v.SetDefault("theme", prefs.Theme)
	v.SetDefault("language", prefs.Language)
	v.SetDefault("notifications.email", prefs.Notifications.Email)
	v.SetDefault("notifications.push", prefs.Notifications.Push)
	v.SetDefault("notifications.weekly", prefs.Notifications.Weekly)
}
