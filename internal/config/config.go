package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	JobService  JobServiceConfig  `mapstructure:"job_service" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Preferences PreferencesConfig `mapstructure:"preferences" validate:"required"`
	// PreferencesFile, when set, is where preference changes are saved and
	// read back from on the next start. It overrides Preferences.
	PreferencesFile string `mapstructure:"preferences_file"`
}

// ServerConfig contains the bridge server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// JobServiceConfig locates the remote job service.
type JobServiceConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// DatabaseConfig is optional. An empty URL keeps quiz attempts in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// PreferencesConfig holds process-wide user preferences. They are loaded
// at start and replaced wholesale when the user changes them.
type PreferencesConfig struct {
	Theme         string                  `mapstructure:"theme" json:"theme" validate:"required,oneof=dark light"`
	Language      string                  `mapstructure:"language" json:"language" validate:"required,min=2,max=5"`
	Notifications NotificationPreferences `mapstructure:"notifications" json:"notifications"`
}

// NotificationPreferences toggles each notification channel.
type NotificationPreferences struct {
	Email  bool `mapstructure:"email" json:"email"`
	Push   bool `mapstructure:"push" json:"push"`
	Weekly bool `mapstructure:"weekly" json:"weekly"`
}

// Addr returns the listen address for the bridge server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
