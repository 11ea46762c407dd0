package models

import (
	"time"

	"gorm.io/datatypes"
)

type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
)

// Device is keyed by the id the agent reports; the server never generates one.
// There is no status column: liveness is derived from LastSeen on every read.
type Device struct {
	DeviceID    string         `gorm:"primaryKey;size:191"`
	Hostname    string         `gorm:"size:255"`
	Version     string         `gorm:"size:64"`
	LastSeen    time.Time      `gorm:"index;not null"`
	LastMetrics datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Heartbeat is one accepted liveness report, kept as a bounded history per device.
type Heartbeat struct {
	ID         uint           `gorm:"primaryKey;index:idx_heartbeats_device_id_id,priority:2"`
	DeviceID   string         `gorm:"size:191;not null;index:idx_heartbeats_device_id_id,priority:1"`
	Hostname   string         `gorm:"size:255"`
	Version    string         `gorm:"size:64"`
	Metrics    datatypes.JSON `gorm:"type:json"`
	ReceivedAt time.Time      `gorm:"not null"`
}
