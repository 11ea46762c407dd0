package dto

import (
	"encoding/json"
	"time"

	"fleetpulse/backend/app/models"
)

type DeviceResponse struct {
	DeviceID string          `json:"deviceId"`
	Hostname string          `json:"hostname"`
	Version  string          `json:"version"`
	LastSeen time.Time       `json:"lastSeen"`
	Status   string          `json:"status"`
	Metrics  json.RawMessage `json:"metrics"`
}

func FromDevice(d models.Device, status models.DeviceStatus) DeviceResponse {
	return DeviceResponse{
		DeviceID: d.DeviceID,
		Hostname: d.Hostname,
		Version:  d.Version,
		LastSeen: d.LastSeen.UTC(),
		Status:   string(status),
		Metrics:  object(d.LastMetrics),
	}
}

type HeartbeatResponse struct {
	ID         uint            `json:"id"`
	DeviceID   string          `json:"deviceId"`
	Hostname   string          `json:"hostname"`
	Version    string          `json:"version"`
	Metrics    json.RawMessage `json:"metrics"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

func FromHeartbeat(h models.Heartbeat) HeartbeatResponse {
	return HeartbeatResponse{
		ID:         h.ID,
		DeviceID:   h.DeviceID,
		Hostname:   h.Hostname,
		Version:    h.Version,
		Metrics:    object(h.Metrics),
		ReceivedAt: h.ReceivedAt.UTC(),
	}
}

func object(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(b)
}
