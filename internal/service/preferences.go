package service

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lecgen/internal/config"
	"github.com/phrazzld/lecgen/internal/domain"
)

// ErrInvalidPreferences is returned when an update fails validation.
var ErrInvalidPreferences = fmt.Errorf("%w: invalid preferences", domain.ErrValidation)

// PreferenceSaver persists a preference set after each change.
type PreferenceSaver func(config.PreferencesConfig) error

// PreferenceStore holds the process-wide preferences. Every update
// replaces the whole set.
type PreferenceStore struct {
	mu       sync.RWMutex
	current  config.PreferencesConfig
	save     PreferenceSaver
	validate *validator.Validate
	logger   *slog.Logger
}

// NewPreferenceStore starts from initial. A nil save keeps changes in
// memory only.
func NewPreferenceStore(initial config.PreferencesConfig, save PreferenceSaver, logger *slog.Logger) *PreferenceStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceStore{
		current:  initial,
		save:     save,
		validate: validator.New(),
		logger:   logger.With("component", "preference_store"),
	}
}

// Get returns the current preferences.
func (s *PreferenceStore) Get() config.PreferencesConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and saves prefs, then makes them current. If saving
// fails the previous preferences stay in effect.
func (s *PreferenceStore) Update(prefs config.PreferencesConfig) (config.PreferencesConfig, error) {
	if err := s.validate.Struct(prefs); err != nil {
		return config.PreferencesConfig{}, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.save != nil {
		if err := s.save(prefs); err != nil {
			s.logger.Error("failed to save preferences", "error", err)
			return config.PreferencesConfig{}, err
		}
	}
	s.current = prefs

	s.logger.Info("preferences updated", "theme", prefs.Theme, "language", prefs.Language)
	return prefs, nil
}
