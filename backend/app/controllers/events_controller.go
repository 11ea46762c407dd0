package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fleetpulse/backend/app/socket"
	"fleetpulse/backend/global"
)

const keepAliveEvery = 15 * time.Second

type EventsController struct{ Hub *socket.Hub }

func NewEventsController(hub *socket.Hub) *EventsController {
	return &EventsController{Hub: hub}
}

// Stream sends each online/offline change as a server-sent event named
// "status" until the client goes away.
func (c *EventsController) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the server write timeout would otherwise cut every stream short
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		global.Logger.Error().Err(err).Msg("event stream cannot flush")
		return
	}

	events, cancel := c.Hub.Subscribe()
	defer cancel()
	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case change, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
