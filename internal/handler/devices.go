package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"autoadopt/internal/codec"
	"autoadopt/internal/iprange"
	"autoadopt/internal/netiface"
	"autoadopt/internal/probe"
	"autoadopt/internal/service"
)

// ScanRequest is the body of POST /api/scan
type ScanRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Scan runs discovery over a range and returns the live hosts
// POST /api/scan
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	devices, err := h.discovery.Scan(r.Context(), req.Start, req.End)
	switch {
	case errors.Is(err, iprange.ErrInvalidRange):
		h.writeError(w, "Invalid address range", err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrScanInProgress):
		h.writeError(w, "Scan already running", err.Error(), http.StatusConflict)
		return
	case errors.Is(err, probe.ErrInterrupted):
		h.log.Warn().Err(err).Msg("Scan interrupted, inventory unchanged")
		h.writeError(w, "Scan interrupted", err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Scan failed")
		h.writeError(w, "Scan failed", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, devices, http.StatusOK)
}

// ListDevices returns the inventory in address order
// GET /api/devices
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.discovery.Devices(), http.StatusOK)
}

// GetDevice returns a single device with its transcript
// GET /api/devices/{ip}
func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	d, err := h.discovery.Device(ip)
	if err != nil {
		h.writeError(w, "Not found", "No device with address: "+ip, http.StatusNotFound)
		return
	}
	h.writeJSON(w, d, http.StatusOK)
}

// SelectionRequest is the body of the selection endpoints
type SelectionRequest struct {
	Selected bool `json:"selected"`
}

// SetSelection marks a device for bulk adoption
// PUT /api/devices/{ip}/selection
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	ip := r.PathValue("ip")
	d, err := h.discovery.SetSelected(r.Context(), ip, req.Selected)
	if err != nil {
		h.writeError(w, "Not found", "No device with address: "+ip, http.StatusNotFound)
		return
	}
	h.writeJSON(w, d, http.StatusOK)
}

// SelectAll sets the selection flag on every device
// PUT /api/devices/selection
func (h *Handler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, h.discovery.SelectAll(r.Context(), req.Selected), http.StatusOK)
}

// NetworksResponse lists local networks and the suggested scan range
type NetworksResponse struct {
	Networks []netiface.Network `json:"networks"`
	Default  *netiface.Network  `json:"default,omitempty"`
}

// ListNetworks returns the local IPv4 networks
// GET /api/networks
func (h *Handler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := h.networks(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list networks")
		h.writeError(w, "Failed to list networks", err.Error(), http.StatusInternalServerError)
		return
	}

	resp := NetworksResponse{Networks: networks}
	if resp.Networks == nil {
		resp.Networks = []netiface.Network{}
	}
	if def, ok := netiface.Default(networks); ok {
		resp.Default = &def
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// ExportDevices writes the inventory as a downloadable file
// GET /api/export/{format}
func (h *Handler) ExportDevices(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		h.writeError(w, "Unknown export format", err.Error(), http.StatusBadRequest)
		return
	}

	contentType, ext := "application/x-yaml", "yml"
	if c.Format() == "json" {
		contentType, ext = "application/json", "json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=devices."+ext)

	if err := c.Export(h.discovery.Devices(), w); err != nil {
		h.log.Error().Err(err).Str("format", c.Format()).Msg("Failed to export devices")
		// Can't write error response as we already set headers
		return
	}
}
