package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetpulse/agent/internal/client"
	"fleetpulse/agent/internal/collector"
	"fleetpulse/agent/internal/command"
	"fleetpulse/agent/internal/db"
	"fleetpulse/agent/internal/logger"
	"fleetpulse/agent/internal/state"
)

const (
	// MaxPerTick bounds one drain so a flooded queue cannot starve heartbeats.
	MaxPerTick = 50
	ledgerTTL  = 24 * time.Hour
)

// API is the part of the server surface the agent loop talks to.
type API interface {
	Heartbeat(ctx context.Context, hb client.Heartbeat) error
	Next(ctx context.Context, deviceID string) (*client.Command, error)
	Ack(ctx context.Context, deviceID string, id uint, success bool, message string) error
}

type Agent struct {
	api      API
	ledger   *db.Ledger
	deviceID string
	version  string
	now      func() time.Time
}

func New(api API, ledger *db.Ledger, deviceID, version string) *Agent {
	return &Agent{api: api, ledger: ledger, deviceID: deviceID, version: version, now: time.Now}
}

// Run ticks until ctx is cancelled. The wait between ticks is re-read from
// state every time, so set_interval takes effect on the next cycle.
func (a *Agent) Run(ctx context.Context) {
	for {
		if err := a.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("tick: %v", err)
		}
		if n, err := a.ledger.Prune(ctx, a.now().Add(-ledgerTTL)); err == nil && n > 0 {
			logger.Infof("pruned %d acknowledged commands from the ledger", n)
		}
		t := time.NewTimer(state.GetInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// Tick sends one heartbeat and then drains pending commands.
func (a *Agent) Tick(ctx context.Context) error {
	snap := collector.Collect("")
	err := a.api.Heartbeat(ctx, client.Heartbeat{
		DeviceID: a.deviceID,
		Hostname: snap.Hostname,
		Version:  a.version,
		Metrics:  snap,
	})
	if err != nil {
		state.SetLastError("heartbeat: " + err.Error())
		return fmt.Errorf("heartbeat: %w", err)
	}
	n, err := a.Drain(ctx)
	if err != nil {
		state.SetLastError(err.Error())
		return err
	}
	if n > 0 {
		logger.Infof("processed %d command(s)", n)
	}
	state.SetLastError("")
	return nil
}

// Drain processes commands until the queue is empty, MaxPerTick is reached,
// or an ack cannot be delivered. In the last case the command stays pending on
// the server and is retried next tick from the ledger.
func (a *Agent) Drain(ctx context.Context) (int, error) {
	done := 0
	for done < MaxPerTick {
		cmd, err := a.api.Next(ctx, a.deviceID)
		if err != nil {
			return done, fmt.Errorf("next: %w", err)
		}
		if cmd == nil {
			return done, nil
		}
		if err := a.handle(ctx, cmd); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

func (a *Agent) handle(ctx context.Context, cmd *client.Command) error {
	entry, err := a.ledger.Lookup(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("ledger lookup %d: %w", cmd.ID, err)
	}
	if entry == nil {
		ok, msg := command.Dispatch(ctx, cmd.Name, cmd.Args)
		entry = &db.ExecutedCommand{CommandID: cmd.ID, DeviceID: a.deviceID, Name: cmd.Name, Success: ok, Message: msg}
		if err := a.ledger.Record(ctx, entry); err != nil {
			return fmt.Errorf("ledger record %d: %w", cmd.ID, err)
		}
	} else {
		logger.Infof("command %d already executed, re-sending its result", cmd.ID)
	}

	err = a.api.Ack(ctx, a.deviceID, cmd.ID, entry.Success, entry.Message)
	switch {
	case err == nil:
	case errors.Is(err, client.ErrConflict), errors.Is(err, client.ErrNotFound):
		logger.Warnf("ack %d: %v; treating as done", cmd.ID, err)
	default:
		return fmt.Errorf("ack %d: %w", cmd.ID, err)
	}
	return a.ledger.MarkAcked(ctx, cmd.ID, a.now())
}
