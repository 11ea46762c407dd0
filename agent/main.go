package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fleetpulse/agent/internal/client"
	"fleetpulse/agent/internal/command"
	"fleetpulse/agent/internal/config"
	"fleetpulse/agent/internal/db"
	"fleetpulse/agent/internal/logger"
	"fleetpulse/agent/internal/service"
	"fleetpulse/agent/internal/state"

	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("fleetpulse-agent", pflag.ExitOnError)
	config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])
	path, _ := fs.GetString("config")
	once, _ := fs.GetBool("once")

	cfg, err := config.Init(path, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogPath); err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
		os.Exit(1)
	}

	ledger, err := db.Open(cfg.LedgerPath)
	if err != nil {
		logger.L.Fatal().Err(err).Str("path", cfg.LedgerPath).Msg("open ledger")
	}
	defer ledger.Close()

	state.SetDeviceID(cfg.DeviceID)
	state.SetInterval(cfg.Interval)

	api := client.New(cfg.ServerURL, cfg.AuthHeader, cfg.AuthToken, cfg.RequestTimeout)
	agent := service.New(api, ledger, cfg.DeviceID, cfg.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L.Info().
		Str("server", cfg.ServerURL).
		Str("device_id", cfg.DeviceID).
		Dur("interval", cfg.Interval).
		Strs("commands", command.Names()).
		Msg("agent started")

	if once {
		if err := agent.Tick(ctx); err != nil {
			logger.Errorf("tick: %v", err)
			os.Exit(1)
		}
		return
	}
	agent.Run(ctx)
	logger.Infof("agent stopped")
}
