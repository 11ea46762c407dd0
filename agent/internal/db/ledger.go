package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Ledger struct{ db *gorm.DB }

// Open creates the ledger file if needed. An empty path keeps it in memory.
func Open(path string) (*Ledger, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = path + "?_busy_timeout=5000"
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(&ExecutedCommand{}); err != nil {
		return nil, err
	}
	return &Ledger{db: gdb}, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Lookup returns nil when the command has never run here.
func (l *Ledger) Lookup(ctx context.Context, id uint) (*ExecutedCommand, error) {
	var e ExecutedCommand
	err := l.db.WithContext(ctx).First(&e, "command_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Record stores the first outcome for a command id; later calls keep it.
func (l *Ledger) Record(ctx context.Context, e *ExecutedCommand) error {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now().UTC()
	}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}

func (l *Ledger) MarkAcked(ctx context.Context, id uint, at time.Time) error {
	return l.db.WithContext(ctx).Model(&ExecutedCommand{}).
		Where("command_id = ?", id).
		Update("acked_at", at.UTC()).Error
}

// Prune drops acknowledged entries older than cutoff. Unacked ones are kept
// until the server confirms them.
func (l *Ledger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("acked_at IS NOT NULL AND acked_at < ?", cutoff.UTC()).
		Delete(&ExecutedCommand{})
	return res.RowsAffected, res.Error
}
