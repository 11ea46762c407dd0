package dto

import (
	"encoding/json"
	"time"

	"fleetpulse/backend/app/models"
)

type EnqueueCommandRequest struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// AckRequest requires success; a missing field is a malformed ack, not false.
type AckRequest struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type CommandResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	AckedAt time.Time `json:"ackedAt"`
}

type CommandResponse struct {
	ID        uint            `json:"id"`
	DeviceID  string          `json:"deviceId"`
	Command   string          `json:"command"`
	Args      json.RawMessage `json:"args"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
	Result    *CommandResult  `json:"result,omitempty"`
}

func FromCommand(c models.Command) CommandResponse {
	out := CommandResponse{
		ID:        c.ID,
		DeviceID:  c.DeviceID,
		Command:   c.Name,
		State:     string(c.State()),
		CreatedAt: c.CreatedAt.UTC(),
	}
	if len(c.Args) > 0 {
		out.Args = json.RawMessage(c.Args)
	}
	if c.Ack != nil {
		out.Result = &CommandResult{Success: c.Ack.Success, Message: c.Ack.Message, AckedAt: c.Ack.AckedAt.UTC()}
	}
	return out
}
