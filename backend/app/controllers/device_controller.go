package controllers

import (
	"net/http"
	"strconv"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/dto"
	"fleetpulse/backend/app/services"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
)

type DeviceController struct{ Devices *services.DeviceService }

func NewDeviceController(devices *services.DeviceService) *DeviceController {
	return &DeviceController{Devices: devices}
}

func (c *DeviceController) List(w http.ResponseWriter, r *http.Request) {
	views, err := c.Devices.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]dto.DeviceResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.FromDevice(v.Device, v.Status))
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *DeviceController) Get(w http.ResponseWriter, r *http.Request) {
	v, err := c.Devices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromDevice(v.Device, v.Status))
}

// Heartbeats lists recent snapshots, newest first. ?limit defaults to 20.
func (c *DeviceController) Heartbeats(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, r, apperr.Validation("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}
	hbs, err := c.Devices.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]dto.HeartbeatResponse, 0, len(hbs))
	for _, h := range hbs {
		out = append(out, dto.FromHeartbeat(h))
	}
	writeJSON(w, http.StatusOK, out)
}
