package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/metrics"
	"fleetpulse/backend/app/models"
	"fleetpulse/backend/global"

	"gorm.io/datatypes"
)

const (
	MaxCommandNameLen = 64
	MaxAckMessageLen  = 1024
)

type CommandPayload struct {
	Command string
	Args    json.RawMessage
}

// CommandService owns the per-device queue: FIFO by id, pending until a
// single successful ack.
type CommandService struct {
	commands CommandStore
	now      func() time.Time
}

func NewCommandService(commands CommandStore) *CommandService {
	return &CommandService{commands: commands, now: time.Now}
}

func (s *CommandService) WithClock(now func() time.Time) *CommandService {
	s.now = now
	return s
}

// Enqueue appends a pending command. The device does not have to exist yet.
func (s *CommandService) Enqueue(ctx context.Context, deviceID string, p CommandPayload) (models.Command, error) {
	if strings.TrimSpace(deviceID) == "" {
		return models.Command{}, apperr.Validation("device id is required")
	}
	name := strings.TrimSpace(p.Command)
	if name == "" {
		return models.Command{}, apperr.Validation("command is required")
	}
	if utf8.RuneCountInString(name) > MaxCommandNameLen {
		return models.Command{}, apperr.Validation("command longer than %d characters", MaxCommandNameLen)
	}
	var args datatypes.JSON
	if len(p.Args) > 0 && !isNull(p.Args) {
		if !json.Valid(p.Args) {
			return models.Command{}, apperr.Validation("args must be valid JSON")
		}
		args = datatypes.JSON(p.Args)
	}

	row := &models.AgentCommand{DeviceID: deviceID, Command: name, Args: args}
	if err := s.commands.Create(ctx, row); err != nil {
		global.Logger.Error().Err(err).Str("device_id", deviceID).Msg("enqueue command")
		return models.Command{}, err
	}
	metrics.CommandsEnqueued.Inc()
	global.Logger.Info().Str("device_id", deviceID).Uint("command_id", row.ID).Str("command", name).Msg("command queued")
	return row.ToCommand(), nil
}

// Next returns the oldest pending command without consuming it; nil means the
// queue is empty.
func (s *CommandService) Next(ctx context.Context, deviceID string) (*models.Command, error) {
	row, err := s.commands.NextPending(ctx, deviceID)
	if err != nil || row == nil {
		return nil, err
	}
	cmd := row.ToCommand()
	return &cmd, nil
}

// Ack closes a pending command with the agent's result. Only the first ack
// wins; later ones get apperr.ErrConflict and leave the stored result intact.
func (s *CommandService) Ack(ctx context.Context, deviceID string, commandID uint, success bool, message string) (models.Command, error) {
	if utf8.RuneCountInString(message) > MaxAckMessageLen {
		return models.Command{}, apperr.Validation("message longer than %d characters", MaxAckMessageLen)
	}
	row, err := s.commands.Ack(ctx, deviceID, commandID, success, message, s.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrConflict):
		metrics.AckConflicts.Inc()
		global.Logger.Warn().Str("device_id", deviceID).Uint("command_id", commandID).Msg("duplicate ack")
		return models.Command{}, err
	case errors.Is(err, apperr.ErrNotFound):
		return models.Command{}, err
	default:
		global.Logger.Error().Err(err).Str("device_id", deviceID).Uint("command_id", commandID).Msg("ack command")
		return models.Command{}, err
	}
	metrics.CommandsAcked.WithLabelValues(strconv.FormatBool(success)).Inc()
	global.Logger.Info().Str("device_id", deviceID).Uint("command_id", commandID).Bool("success", success).Msg("command acked")
	return row.ToCommand(), nil
}

// ParseStateFilter maps the ?state= query value; "" and "all" select every
// command.
func ParseStateFilter(v string) (models.CommandState, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all":
		return "", nil
	case string(models.CommandPending):
		return models.CommandPending, nil
	case string(models.CommandAcked):
		return models.CommandAcked, nil
	}
	return "", apperr.Validation("unknown state %q", v)
}

func (s *CommandService) List(ctx context.Context, deviceID string, state models.CommandState) ([]models.Command, error) {
	rows, err := s.commands.ListByDevice(ctx, deviceID, state)
	if err != nil {
		return nil, err
	}
	out := make([]models.Command, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToCommand())
	}
	return out, nil
}
