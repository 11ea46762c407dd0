package initialize

import (
	"io"
	"os"
	"time"

	"fleetpulse/backend/config"
	"fleetpulse/backend/global"

	"github.com/rs/zerolog"
)

func init() {
	// console writer until the configured logger replaces it
	global.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
}

// InitLogger builds the process logger from cfg and installs it in global.
func InitLogger(cfg config.Log) zerolog.Logger {
	logger := NewLogger(cfg, os.Stdout)
	global.Logger = logger
	return logger
}

func NewLogger(cfg config.Log, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	w := out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "fleetpulse").Logger()
}
