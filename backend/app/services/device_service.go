package services

import (
	"context"
	"time"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"

	"gorm.io/datatypes"
)

// DeviceView is a stored device with its liveness computed at read time.
type DeviceView struct {
	models.Device
	Status models.DeviceStatus
}

// HeartbeatReport is a validated heartbeat, ready to be recorded.
type HeartbeatReport struct {
	DeviceID string
	Hostname string
	Version  string
	Metrics  datatypes.JSON
}

type DeviceService struct {
	devices   DeviceStore
	threshold time.Duration
	now       func() time.Time
}

func NewDeviceService(devices DeviceStore, threshold time.Duration) *DeviceService {
	return &DeviceService{devices: devices, threshold: threshold, now: time.Now}
}

// WithClock replaces the wall clock used for last_seen and status.
func (s *DeviceService) WithClock(now func() time.Time) *DeviceService {
	s.now = now
	return s
}

func (s *DeviceService) Threshold() time.Duration { return s.threshold }

func (s *DeviceService) view(d models.Device, now time.Time) DeviceView {
	return DeviceView{Device: d, Status: Status(d.LastSeen, now, s.threshold)}
}

// RecordHeartbeat stamps the report with the current time and upserts the
// device. The caller has already validated the report.
func (s *DeviceService) RecordHeartbeat(ctx context.Context, r HeartbeatReport) (DeviceView, error) {
	now := s.now().UTC()
	metrics := r.Metrics
	if len(metrics) == 0 {
		metrics = datatypes.JSON("{}")
	}
	d, err := s.devices.RecordHeartbeat(ctx, models.Heartbeat{
		DeviceID:   r.DeviceID,
		Hostname:   r.Hostname,
		Version:    r.Version,
		Metrics:    metrics,
		ReceivedAt: now,
	})
	if err != nil {
		return DeviceView{}, err
	}
	return s.view(*d, now), nil
}

func (s *DeviceService) Get(ctx context.Context, deviceID string) (DeviceView, error) {
	d, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		return DeviceView{}, err
	}
	return s.view(*d, s.now()), nil
}

func (s *DeviceService) List(ctx context.Context) ([]DeviceView, error) {
	devices, err := s.devices.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]DeviceView, 0, len(devices))
	for _, d := range devices {
		out = append(out, s.view(d, now))
	}
	return out, nil
}

// History returns up to limit heartbeat snapshots for a known device, newest
// first.
func (s *DeviceService) History(ctx context.Context, deviceID string, limit int) ([]models.Heartbeat, error) {
	if limit < 0 {
		return nil, apperr.Validation("limit must not be negative")
	}
	if _, err := s.devices.FindByID(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.devices.Heartbeats(ctx, deviceID, limit)
}
