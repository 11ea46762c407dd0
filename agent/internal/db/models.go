package db

import "time"

// ExecutedCommand remembers the outcome of a command that already ran, so a
// redelivery after a lost ack re-sends the result instead of running it again.
type ExecutedCommand struct {
	CommandID  uint   `gorm:"primaryKey;autoIncrement:false"`
	DeviceID   string `gorm:"size:191;index"`
	Name       string `gorm:"size:64"`
	Success    bool
	Message    string `gorm:"size:4096"`
	ExecutedAt time.Time
	AckedAt    *time.Time
}
