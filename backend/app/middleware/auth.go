package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"fleetpulse/backend/app/auth"
	"fleetpulse/backend/app/metrics"
	"fleetpulse/backend/app/models"
	"fleetpulse/backend/global"
)

// Auth guards handlers with the gate. The credential is read from Header, or
// from "Authorization: Bearer" when Header is absent.
type Auth struct {
	Gate   *auth.Gate
	Header string
}

func (a *Auth) token(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(a.Header)); v != "" {
		return v
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

func (a *Auth) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, err := a.Gate.Authenticate(a.token(r))
	if err != nil {
		metrics.AuthFailures.Inc()
		global.Logger.Warn().Str("ip", r.RemoteAddr).Str("path", r.URL.Path).Str("request_id", RequestID(r.Context())).Msg("rejected credential")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return p, true
}

// RequireAuth rejects the request with 401 before next runs unless the
// credential is valid. A device-bound credential is also rejected for any
// {id} path segment other than its own device.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := a.authenticate(w, r)
		if !ok {
			return
		}
		if id := r.PathValue("id"); id != "" && !p.CanActFor(id) {
			metrics.AuthFailures.Inc()
			writeError(w, http.StatusUnauthorized, "credential not valid for this device")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := a.authenticate(w, r)
		if !ok {
			return
		}
		if p.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
