package repo

import (
	"context"
	"errors"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository struct {
	db           *gorm.DB
	historyLimit int
}

// NewDeviceRepository keeps at most historyLimit heartbeat snapshots per
// device; zero or less keeps them all.
func NewDeviceRepository(db *gorm.DB, historyLimit int) *DeviceRepository {
	return &DeviceRepository{db: db, historyLimit: historyLimit}
}

// RecordHeartbeat upserts the device and appends the snapshot in one
// transaction. last_seen only moves forward: a heartbeat that lost a race to
// a newer one still lands in the history but leaves the device row alone.
func (r *DeviceRepository) RecordHeartbeat(ctx context.Context, hb models.Heartbeat) (*models.Device, error) {
	var out models.Device
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.Device{
			DeviceID:    hb.DeviceID,
			Hostname:    hb.Hostname,
			Version:     hb.Version,
			LastSeen:    hb.ReceivedAt,
			LastMetrics: hb.Metrics,
			CreatedAt:   hb.ReceivedAt,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"version":      hb.Version,
			"last_seen":    hb.ReceivedAt,
			"last_metrics": hb.Metrics,
		}
		if hb.Hostname != "" {
			updates["hostname"] = hb.Hostname
		}
		if err := tx.Model(&models.Device{}).
			Where("device_id = ? AND last_seen <= ?", hb.DeviceID, hb.ReceivedAt).
			Updates(updates).Error; err != nil {
			return err
		}

		hb.ID = 0
		if err := tx.Create(&hb).Error; err != nil {
			return err
		}
		if err := r.prune(tx, hb.DeviceID); err != nil {
			return err
		}
		return tx.Where("device_id = ?", hb.DeviceID).First(&out).Error
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &out, nil
}

func (r *DeviceRepository) prune(tx *gorm.DB, deviceID string) error {
	if r.historyLimit <= 0 {
		return nil
	}
	var cutoff models.Heartbeat
	err := tx.Where("device_id = ?", deviceID).
		Order("id DESC").
		Offset(r.historyLimit).
		Limit(1).
		Take(&cutoff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Where("device_id = ? AND id <= ?", deviceID, cutoff.ID).Delete(&models.Heartbeat{}).Error
}

func (r *DeviceRepository) FindByID(ctx context.Context, deviceID string) (*models.Device, error) {
	var d models.Device
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("device %q", deviceID)
		}
		return nil, apperr.Storage(err)
	}
	return &d, nil
}

// ListAll returns devices in the order they first reported (created_at is the
// first heartbeat's receive time).
func (r *DeviceRepository) ListAll(ctx context.Context) ([]models.Device, error) {
	var out []models.Device
	if err := r.db.WithContext(ctx).Order("created_at ASC, device_id ASC").Find(&out).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

// Heartbeats returns up to limit snapshots, newest first.
func (r *DeviceRepository) Heartbeats(ctx context.Context, deviceID string, limit int) ([]models.Heartbeat, error) {
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Heartbeat
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}
