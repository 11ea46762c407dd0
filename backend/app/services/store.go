package services

import (
	"context"
	"time"

	"fleetpulse/backend/app/models"
)

// DeviceStore persists devices and their heartbeat history. RecordHeartbeat
// must be atomic and must never move a device's LastSeen backwards.
type DeviceStore interface {
	RecordHeartbeat(ctx context.Context, hb models.Heartbeat) (*models.Device, error)
	FindByID(ctx context.Context, deviceID string) (*models.Device, error)
	ListAll(ctx context.Context) ([]models.Device, error)
	Heartbeats(ctx context.Context, deviceID string, limit int) ([]models.Heartbeat, error)
}

// CommandStore persists per-device command queues. Ack is a check-and-set:
// only a pending command owned by deviceID transitions, anything else reports
// apperr.ErrNotFound or apperr.ErrConflict.
type CommandStore interface {
	Create(ctx context.Context, cmd *models.AgentCommand) error
	NextPending(ctx context.Context, deviceID string) (*models.AgentCommand, error)
	Ack(ctx context.Context, deviceID string, id uint, success bool, message string, at time.Time) (*models.AgentCommand, error)
	ListByDevice(ctx context.Context, deviceID string, state models.CommandState) ([]models.AgentCommand, error)
}

type UserStore interface {
	CountByUsername(ctx context.Context, username string) (int64, error)
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
