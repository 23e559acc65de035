package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/lecgen/internal/api/shared"
	"github.com/phrazzld/lecgen/internal/config"
)

// healthPingTimeout bounds the job service check in /health.
const healthPingTimeout = 2 * time.Second

// Pinger checks that the job service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PreferenceService holds the user preferences.
type PreferenceService interface {
	Get() config.PreferencesConfig
	Update(prefs config.PreferencesConfig) (config.PreferencesConfig, error)
}

// SystemHandler serves health and preferences.
type SystemHandler struct {
	pinger      Pinger
	preferences PreferenceService
	logger      *slog.Logger
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(pinger Pinger, preferences PreferenceService, logger *slog.Logger) *SystemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemHandler{
		pinger:      pinger,
		preferences: preferences,
		logger:      logger.With("component", "system_handler"),
	}
}

// Health handles GET /health. The bridge itself is healthy whenever it
// answers; the job service state is reported alongside.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", JobService: "up"}
	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Debug("job service ping failed", "error", err)
		resp.JobService = "down"
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetPreferences handles GET /api/preferences.
func (h *SystemHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.preferences.Get())
}

// UpdatePreferences handles PUT /api/preferences. The body replaces the
// whole preference set.
func (h *SystemHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req config.PreferencesConfig
	if !decodeAndValidate(w, r, &req) {
		return
	}

	prefs, err := h.preferences.Update(req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, prefs)
}
