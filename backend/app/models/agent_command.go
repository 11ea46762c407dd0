package models

import (
	"time"

	"gorm.io/datatypes"
)

type CommandState string

const (
	CommandPending CommandState = "pending"
	CommandAcked   CommandState = "acked"
)

// AgentCommand is the queue row. (device_id, id) is indexed so the lowest
// pending id for a device is a single index range scan.
type AgentCommand struct {
	ID        uint           `gorm:"primaryKey;autoIncrement;index:idx_agent_commands_device_id_id,priority:2"`
	DeviceID  string         `gorm:"size:191;not null;index:idx_agent_commands_device_id_id,priority:1"`
	Command   string         `gorm:"size:64;not null"`
	Args      datatypes.JSON `gorm:"type:json"`
	Status    CommandState   `gorm:"size:16;not null;index"`
	Success   *bool
	Message   string `gorm:"size:1024"`
	CreatedAt time.Time
	AckedAt   *time.Time
}

// Ack is the agent-reported outcome that closes a command.
type Ack struct {
	Success bool
	Message string
	AckedAt time.Time
}

// Command is the domain view of a queue row. A command is acked exactly when
// Ack is set, so an acknowledged command without a result cannot be built.
type Command struct {
	ID        uint
	DeviceID  string
	Name      string
	Args      datatypes.JSON
	CreatedAt time.Time
	Ack       *Ack
}

func (c Command) State() CommandState {
	if c.Ack != nil {
		return CommandAcked
	}
	return CommandPending
}

func (r AgentCommand) ToCommand() Command {
	cmd := Command{
		ID:        r.ID,
		DeviceID:  r.DeviceID,
		Name:      r.Command,
		Args:      r.Args,
		CreatedAt: r.CreatedAt,
	}
	if r.Status == CommandAcked {
		ack := &Ack{Message: r.Message}
		if r.Success != nil {
			ack.Success = *r.Success
		}
		if r.AckedAt != nil {
			ack.AckedAt = *r.AckedAt
		}
		cmd.Ack = ack
	}
	return cmd
}
