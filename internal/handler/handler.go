package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"autoadopt/internal/logger"
	"autoadopt/internal/netiface"
	"autoadopt/internal/service"
)

// NetworkLister returns the local IPv4 networks
type NetworkLister func(ctx context.Context) ([]netiface.Network, error)

// SettingsSaver persists edited adoption settings
type SettingsSaver func(settings service.Settings) error

// Handler handles autoadopt API requests
type Handler struct {
	discovery *service.DiscoveryService
	adoption  *service.AdoptionService
	networks  NetworkLister
	saver     SettingsSaver
	log       zerolog.Logger
}

// New creates a new API handler
func New(discovery *service.DiscoveryService, adoption *service.AdoptionService) *Handler {
	return &Handler{
		discovery: discovery,
		adoption:  adoption,
		networks:  netiface.List,
		log:       logger.WithComponent("api"),
	}
}

// SetNetworkLister replaces the local network source
func (h *Handler) SetNetworkLister(l NetworkLister) {
	h.networks = l
}

// SetSettingsSaver sets where edited settings are written. Without one,
// edits apply until restart.
func (h *Handler) SetSettingsSaver(s SettingsSaver) {
	h.saver = s
}

// Register adds the API routes to mux
func (h *Handler) Register(mux *http.ServeMux) {
	// Discovery and inventory
	mux.HandleFunc("POST /api/scan", h.Scan)
	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("GET /api/devices/{ip}", h.GetDevice)
	mux.HandleFunc("PUT /api/devices/{ip}/selection", h.SetSelection)
	mux.HandleFunc("PUT /api/devices/selection", h.SelectAll)
	mux.HandleFunc("GET /api/networks", h.ListNetworks)
	mux.HandleFunc("GET /api/export/{format}", h.ExportDevices)

	// Adoption
	mux.HandleFunc("POST /api/adopt", h.Adopt)
	mux.HandleFunc("GET /api/adoptions", h.ListAdoptions)

	// Settings
	mux.HandleFunc("GET /api/settings", h.GetSettings)
	mux.HandleFunc("PUT /api/settings", h.UpdateSettings)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode error response")
	}
}
