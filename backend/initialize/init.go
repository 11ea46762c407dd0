package initialize

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fleetpulse/backend/app/auth"
	"fleetpulse/backend/app/controllers"
	"fleetpulse/backend/app/db"
	jwtutil "fleetpulse/backend/app/jwt"
	"fleetpulse/backend/app/middleware"
	"fleetpulse/backend/app/repo"
	"fleetpulse/backend/app/services"
	"fleetpulse/backend/app/socket"
	"fleetpulse/backend/config"
	"fleetpulse/backend/global"
	"fleetpulse/backend/router"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Router   http.Handler
	Devices  *services.DeviceService
	Commands *services.CommandService
	Users    *services.UserService
	Sweeper  *services.OfflineSweeper
	Events   *socket.Hub

	deviceStore services.DeviceStore
}

// schemaVersion is swapped in tests.
var schemaVersion = db.Version

// Build connects the store, brings the schema to the latest version and only
// then wires the services and routes.
func Build(cfg *config.Config) (*App, error) {
	gdb, err := db.Connect(db.Config{
		Driver:   cfg.DB.Driver,
		Path:     cfg.DB.Path,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Pass,
		DBName:   cfg.DB.Name,
	}, global.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	version, err := schemaVersion(gdb)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	global.Logger.Info().Str("driver", cfg.DB.Driver).Int("schema_version", version).Msg("store ready")

	app := wire(cfg, gdb)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Users.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	var notifier services.StatusNotifier = services.NewLogNotifier(global.Logger)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			global.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, status changes go to the log")
			_ = rdb.Close()
		} else {
			app.Redis = rdb
			notifier = services.NewRedisNotifier(rdb, cfg.Redis.Channel)
		}
	}
	app.Sweeper = services.NewOfflineSweeper(app.deviceStore, services.Notifiers{notifier, app.Events}, cfg.Offline.Threshold, cfg.Offline.SweepInterval)
	return app, nil
}

// wire builds services, controllers and the router on an already migrated
// store.
func wire(cfg *config.Config, gdb *gorm.DB) *App {
	deviceRepo := repo.NewDeviceRepository(gdb, cfg.Store.HeartbeatHistory)
	commandRepo := repo.NewAgentCommandRepository(gdb)
	userRepo := repo.NewUserRepository(gdb)

	deviceSvc := services.NewDeviceService(deviceRepo, cfg.Offline.Threshold)
	heartbeatSvc := services.NewHeartbeatService(deviceSvc)
	commandSvc := services.NewCommandService(commandRepo)
	userSvc := services.NewUserService(userRepo)

	signer := &jwtutil.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}
	gate := auth.NewGate(cfg.Auth.Tokens, cfg.Auth.OrgTokens, signer)
	mw := &middleware.Auth{Gate: gate, Header: cfg.Auth.Header}
	hub := socket.NewHub()

	h := router.NewRouter(router.Controllers{
		HTTP:     controllers.NewHTTPController(),
		Ingest:   controllers.NewIngestController(heartbeatSvc),
		Devices:  controllers.NewDeviceController(deviceSvc),
		Commands: controllers.NewCommandController(commandSvc),
		Auth:     controllers.NewAuthController(userSvc, signer),
		Admin:    controllers.NewAdminController(userSvc),
		Events:   controllers.NewEventsController(hub),
	}, mw)

	return &App{Cfg: cfg, DB: gdb, Router: h, Devices: deviceSvc, Commands: commandSvc, Users: userSvc, Events: hub, deviceStore: deviceRepo}
}

// Close releases the store and redis connections.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
