package db

import (
	"fmt"
	"time"

	"fleetpulse/backend/app/models"

	"gorm.io/gorm"
)

type migration struct {
	version int
	name    string
	up      func(tx *gorm.DB) error
}

// Steps are append-only. Each one runs once, inside a transaction, and is
// recorded in schema_migrations.
var migrations = []migration{
	{1, "devices_and_agent_commands", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&models.Device{}, &models.AgentCommand{})
	}},
	{2, "heartbeats", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&models.Heartbeat{})
	}},
	{3, "users", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&models.User{})
	}},
}

// LatestVersion is the schema version the code expects.
func LatestVersion() int { return migrations[len(migrations)-1].version }

// Migrate brings the schema to LatestVersion.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return fmt.Errorf("migrate schema_migrations: %w", err)
	}
	var applied []models.SchemaMigration
	if err := gdb.Find(&applied).Error; err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}
	for _, m := range migrations {
		if done[m.version] {
			continue
		}
		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{Version: m.version, Name: m.name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// Version reports the highest applied step, 0 for an empty database.
func Version(gdb *gorm.DB) (int, error) {
	var v int
	err := gdb.Model(&models.SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&v).Error
	return v, err
}
