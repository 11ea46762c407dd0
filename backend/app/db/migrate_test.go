package db

import (
	"testing"

	"fleetpulse/backend/app/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Connect(Config{Driver: DriverSQLite, Path: ":memory:"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return gdb
}

func TestMigrateCreatesTables(t *testing.T) {
	gdb := openMemory(t)
	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, m := range []any{&models.Device{}, &models.AgentCommand{}, &models.Heartbeat{}, &models.User{}} {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
	if !gdb.Migrator().HasIndex(&models.AgentCommand{}, "idx_agent_commands_device_id_id") {
		t.Error("missing (device_id, id) index on agent_commands")
	}
	v, err := Version(gdb)
	if err != nil {
		t.Fatal(err)
	}
	if v != LatestVersion() {
		t.Errorf("version = %d, want %d", v, LatestVersion())
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	gdb := openMemory(t)
	for i := 0; i < 3; i++ {
		if err := Migrate(gdb); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	var count int64
	if err := gdb.Model(&models.SchemaMigration{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if int(count) != len(migrations) {
		t.Errorf("recorded %d steps, want %d", count, len(migrations))
	}
}

func TestVersionEmptyDatabase(t *testing.T) {
	gdb := openMemory(t)
	if err := gdb.AutoMigrate(&models.SchemaMigration{}); err != nil {
		t.Fatal(err)
	}
	v, err := Version(gdb)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("version = %d, want 0", v)
	}
}
