package services

import (
	"time"

	"fleetpulse/backend/app/models"
)

// Status reports a device online while no more than threshold has elapsed
// since its last heartbeat. A lastSeen ahead of now counts as online.
func Status(lastSeen, now time.Time, threshold time.Duration) models.DeviceStatus {
	if now.Sub(lastSeen) <= threshold {
		return models.StatusOnline
	}
	return models.StatusOffline
}
