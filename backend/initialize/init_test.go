package initialize

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fleetpulse/backend/app/db"
	"fleetpulse/backend/config"
	"fleetpulse/backend/global"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:  config.Server{Host: "127.0.0.1", Port: 8080},
		DB:      config.DB{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "fleet.db")},
		Auth:    config.Auth{Header: "X-Auth-Token", Tokens: []string{"dev-token-123"}},
		JWT:     config.JWT{Secret: "s", Issuer: "fleetpulse", ExpMin: 5},
		Admin:   config.Admin{Username: "root", Password: "pw"},
		Offline: config.Offline{Threshold: 30 * time.Second, SweepInterval: time.Second},
		Store:   config.Store{HeartbeatHistory: 5},
		Log:     config.Log{Level: "error"},
	}
}

func TestBuild(t *testing.T) {
	global.Logger = zerolog.Nop()
	cfg := testConfig(t)
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if v, err := db.Version(app.DB); err != nil || v != db.LatestVersion() {
		t.Fatalf("schema version = %d, %v", v, err)
	}
	if _, err := app.Users.ValidateCredentials(context.Background(), "root", "pw"); err != nil {
		t.Fatalf("admin not seeded: %v", err)
	}
	if app.Sweeper == nil || app.Redis != nil {
		t.Fatalf("sweeper = %v redis = %v", app.Sweeper, app.Redis)
	}

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/ingest", strings.NewReader(`{"deviceId":"a","version":"1","metrics":{}}`))
	req.Header.Set("X-Auth-Token", "dev-token-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status = %d", resp.StatusCode)
	}
	changes, err := app.Sweeper.Sweep(context.Background())
	if err != nil || len(changes) != 0 {
		t.Fatalf("baseline sweep = %v, %v", changes, err)
	}
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	global.Logger = zerolog.Nop()
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"
	if _, err := Build(cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildFailsWhenSchemaVersionUnreadable(t *testing.T) {
	global.Logger = zerolog.Nop()
	orig := schemaVersion
	t.Cleanup(func() { schemaVersion = orig })
	schemaVersion = func(*gorm.DB) (int, error) { return 0, errors.New("disk I/O error") }

	_, err := Build(testConfig(t))
	if err == nil || !strings.Contains(err.Error(), "read schema version") {
		t.Fatalf("Build err = %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.Log{Level: "warn", Format: "json"}, &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"service":"fleetpulse"`) {
		t.Fatalf("log output = %s", out)
	}

	buf.Reset()
	log = NewLogger(config.Log{Level: "bogus"}, &buf)
	log.Info().Msg("console")
	if !strings.Contains(buf.String(), "console") {
		t.Fatalf("console output = %s", buf.String())
	}
}
