package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"autoadopt/internal/domain"
)

// SettingsResponse describes the adoption settings without passwords
type SettingsResponse struct {
	ControllerURL string                      `json:"controller_url"`
	Credentials   []domain.CredentialsSummary `json:"credentials"`
}

// GetSettings returns the controller URL and credential summaries
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.settingsResponse(), http.StatusOK)
}

// UpdateSettingsRequest is the body of PUT /api/settings. Omitted fields
// keep their current value; a credential with an empty password keeps the
// stored password.
type UpdateSettingsRequest struct {
	ControllerURL *string             `json:"controller_url,omitempty"`
	Default       *domain.Credentials `json:"default,omitempty"`
	Alternate     *domain.Credentials `json:"alternate,omitempty"`
}

// UpdateSettings edits and saves the adoption settings
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	settings := h.adoption.Settings()
	if req.ControllerURL != nil {
		u, err := url.Parse(*req.ControllerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			h.writeError(w, "Invalid controller URL", "controller_url must be an http(s) URL with a host", http.StatusBadRequest)
			return
		}
		settings.ControllerURL = *req.ControllerURL
	}
	if req.Default != nil {
		settings.Default = mergeCredentials(settings.Default, *req.Default)
	}
	if req.Alternate != nil {
		settings.Alternate = mergeCredentials(settings.Alternate, *req.Alternate)
	}

	if h.saver != nil {
		if err := h.saver(settings); err != nil {
			h.log.Error().Err(err).Msg("Failed to save settings")
			h.writeError(w, "Failed to save settings", err.Error(), http.StatusInternalServerError)
			return
		}
	}
	h.adoption.UpdateSettings(settings)

	h.writeJSON(w, h.settingsResponse(), http.StatusOK)
}

func (h *Handler) settingsResponse() SettingsResponse {
	s := h.adoption.Settings()
	return SettingsResponse{
		ControllerURL: s.ControllerURL,
		Credentials: []domain.CredentialsSummary{
			s.Default.ToSummary(domain.CredentialsDefault),
			s.Alternate.ToSummary(domain.CredentialsAlternate),
		},
	}
}

// mergeCredentials applies an edit, keeping the old password when the edit
// leaves it blank but names the same user
func mergeCredentials(current, edit domain.Credentials) domain.Credentials {
	if edit.Password == "" && edit.Username == current.Username {
		edit.Password = current.Password
	}
	return edit
}
