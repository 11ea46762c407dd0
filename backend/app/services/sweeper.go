package services

import (
	"context"
	"sync"
	"time"

	"fleetpulse/backend/app/metrics"
	"fleetpulse/backend/app/models"
	"fleetpulse/backend/global"
)

// OfflineSweeper periodically recomputes every device's status and reports
// the edges. Its memory of previous statuses only suppresses repeat
// notifications; reads never consult it.
type OfflineSweeper struct {
	devices   DeviceStore
	notifier  StatusNotifier
	threshold time.Duration
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	last     map[string]models.DeviceStatus
	baseline bool
}

func NewOfflineSweeper(devices DeviceStore, notifier StatusNotifier, threshold, interval time.Duration) *OfflineSweeper {
	return &OfflineSweeper{
		devices:   devices,
		notifier:  notifier,
		threshold: threshold,
		interval:  interval,
		now:       time.Now,
		last:      make(map[string]models.DeviceStatus),
	}
}

func (s *OfflineSweeper) WithClock(now func() time.Time) *OfflineSweeper {
	s.now = now
	return s
}

// Run sweeps every interval until ctx is done. A non-positive interval
// returns immediately.
func (s *OfflineSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			global.Logger.Error().Err(err).Msg("offline sweep")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Sweep evaluates all devices once and notifies every status edge since the
// previous sweep. The first sweep only records a baseline; a device first seen
// later is treated as having been offline.
func (s *OfflineSweeper) Sweep(ctx context.Context) ([]StatusChange, error) {
	devices, err := s.devices.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	s.mu.Lock()
	var changes []StatusChange
	online := 0
	for _, d := range devices {
		st := Status(d.LastSeen, now, s.threshold)
		if st == models.StatusOnline {
			online++
		}
		prev, seen := s.last[d.DeviceID]
		s.last[d.DeviceID] = st
		if !seen {
			if !s.baseline {
				continue
			}
			prev = models.StatusOffline
		}
		if prev != st {
			changes = append(changes, StatusChange{DeviceID: d.DeviceID, From: prev, To: st, LastSeen: d.LastSeen, At: now})
		}
	}
	s.baseline = true
	s.mu.Unlock()

	metrics.DevicesOnline.Set(float64(online))
	for _, c := range changes {
		metrics.StatusChanges.WithLabelValues(string(c.To)).Inc()
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.Notify(ctx, c); err != nil {
			global.Logger.Warn().Err(err).Str("device_id", c.DeviceID).Msg("status notification failed")
		}
	}
	return changes, nil
}
