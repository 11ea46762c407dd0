package router

import (
	"net/http"

	"fleetpulse/backend/app/controllers"
	"fleetpulse/backend/app/metrics"
	"fleetpulse/backend/app/middleware"
)

type Controllers struct {
	HTTP     *controllers.HTTPController
	Ingest   *controllers.IngestController
	Devices  *controllers.DeviceController
	Commands *controllers.CommandController
	Auth     *controllers.AuthController
	Admin    *controllers.AdminController
	Events   *controllers.EventsController
}

// NewRouter builds the route table. Every protected route passes the auth
// middleware before its handler can read or change state; the whole mux is
// wrapped in request logging.
func NewRouter(c Controllers, mw *middleware.Auth) http.Handler {
	mux := http.NewServeMux()
	fn := func(f http.HandlerFunc) http.Handler { return f }

	// public
	mux.Handle("GET /health", fn(c.HTTP.Health))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("POST /login", fn(c.Auth.Login))
	mux.Handle("GET /devices", fn(c.Devices.List))
	mux.Handle("GET /devices/{id}", fn(c.Devices.Get))
	mux.Handle("GET /devices/{id}/heartbeats", fn(c.Devices.Heartbeats))
	mux.Handle("GET /events", fn(c.Events.Stream))

	// agents and operators
	mux.Handle("POST /ingest", mw.RequireAuth(fn(c.Ingest.Ingest)))
	mux.Handle("POST /devices/{id}/commands", mw.RequireAuth(fn(c.Commands.Enqueue)))
	mux.Handle("GET /devices/{id}/commands", mw.RequireAuth(fn(c.Commands.List)))
	mux.Handle("GET /devices/{id}/commands/next", mw.RequireAuth(fn(c.Commands.Next)))
	mux.Handle("POST /devices/{id}/commands/{commandId}/ack", mw.RequireAuth(fn(c.Commands.Ack)))

	// admin-only
	mux.Handle("POST /admin/users", mw.RequireAdmin(fn(c.Admin.CreateUser)))

	return middleware.Logging(mux)
}
