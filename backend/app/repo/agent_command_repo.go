package repo

import (
	"context"
	"errors"
	"time"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"

	"gorm.io/gorm"
)

type AgentCommandRepository struct {
	db *gorm.DB
}

func NewAgentCommandRepository(db *gorm.DB) *AgentCommandRepository {
	return &AgentCommandRepository{db: db}
}

// Create inserts a pending command; the id is assigned by the database.
func (r *AgentCommandRepository) Create(ctx context.Context, cmd *models.AgentCommand) error {
	cmd.ID = 0
	cmd.Status = models.CommandPending
	cmd.Success = nil
	cmd.Message = ""
	cmd.AckedAt = nil
	return apperr.Storage(r.db.WithContext(ctx).Create(cmd).Error)
}

// NextPending returns the lowest-id pending command for deviceID, or nil.
func (r *AgentCommandRepository) NextPending(ctx context.Context, deviceID string) (*models.AgentCommand, error) {
	var cmd models.AgentCommand
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, models.CommandPending).
		Order("id ASC").
		Limit(1).
		Take(&cmd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &cmd, nil
}

// Ack flips a pending command to acked with a conditional update, so of any
// number of concurrent acks for the same id exactly one changes a row. The
// follow-up read only classifies the losers.
func (r *AgentCommandRepository) Ack(ctx context.Context, deviceID string, id uint, success bool, message string, at time.Time) (*models.AgentCommand, error) {
	var out models.AgentCommand
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.AgentCommand{}).
			Where("id = ? AND device_id = ? AND status = ?", id, deviceID, models.CommandPending).
			Updates(map[string]any{
				"status":   models.CommandAcked,
				"success":  success,
				"message":  message,
				"acked_at": at,
			})
		if res.Error != nil {
			return apperr.Storage(res.Error)
		}
		if err := tx.Where("id = ?", id).Take(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("command %d", id)
			}
			return apperr.Storage(err)
		}
		if out.DeviceID != deviceID {
			return apperr.NotFound("command %d for device %q", id, deviceID)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("command %d already acknowledged", id)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &out, nil
}

// ListByDevice returns a device's queue in id order; an empty state lists all.
func (r *AgentCommandRepository) ListByDevice(ctx context.Context, deviceID string, state models.CommandState) ([]models.AgentCommand, error) {
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if state != "" {
		q = q.Where("status = ?", state)
	}
	var cmds []models.AgentCommand
	if err := q.Order("id ASC").Find(&cmds).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return cmds, nil
}
