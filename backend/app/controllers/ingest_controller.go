package controllers

import (
	"net/http"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/dto"
	"fleetpulse/backend/app/middleware"
	"fleetpulse/backend/app/services"
)

type IngestController struct{ Heartbeats *services.HeartbeatService }

func NewIngestController(heartbeats *services.HeartbeatService) *IngestController {
	return &IngestController{Heartbeats: heartbeats}
}

func (c *IngestController) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := c.Heartbeats.Parse(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p := middleware.PrincipalFrom(r.Context()); p != nil && !p.CanActFor(report.DeviceID) {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	view, err := c.Heartbeats.Record(r.Context(), report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromDevice(view.Device, view.Status))
}
