package services

import (
	"os"
	"testing"

	"fleetpulse/backend/global"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	global.Logger = zerolog.Nop()
	os.Exit(m.Run())
}
