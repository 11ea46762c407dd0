package controllers

import (
	"net/http"
	"strconv"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/dto"
	"fleetpulse/backend/app/services"
)

type CommandController struct{ Commands *services.CommandService }

func NewCommandController(commands *services.CommandService) *CommandController {
	return &CommandController{Commands: commands}
}

func (c *CommandController) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req dto.EnqueueCommandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cmd, err := c.Commands.Enqueue(r.Context(), r.PathValue("id"), services.CommandPayload{Command: req.Command, Args: req.Args})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromCommand(cmd))
}

// List: GET /devices/{id}/commands?state=all|pending|acked
func (c *CommandController) List(w http.ResponseWriter, r *http.Request) {
	state, err := services.ParseStateFilter(r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	cmds, err := c.Commands.List(r.Context(), r.PathValue("id"), state)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]dto.CommandResponse, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, dto.FromCommand(cmd))
	}
	writeJSON(w, http.StatusOK, out)
}

// Next answers 204 when the device has nothing pending.
func (c *CommandController) Next(w http.ResponseWriter, r *http.Request) {
	cmd, err := c.Commands.Next(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cmd == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromCommand(*cmd))
}

func (c *CommandController) Ack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("commandId"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, r, apperr.Validation("command id must be a positive integer"))
		return
	}
	var req dto.AckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Success == nil {
		writeError(w, r, apperr.Validation("success is required"))
		return
	}
	cmd, err := c.Commands.Ack(r.Context(), r.PathValue("id"), uint(id), *req.Success, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromCommand(cmd))
}
