package controllers

import (
	"net/http"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/dto"
	jwtutil "fleetpulse/backend/app/jwt"
	"fleetpulse/backend/app/services"
	"fleetpulse/backend/global"
)

type AuthController struct {
	Users  *services.UserService
	Signer *jwtutil.Signer
}

func NewAuthController(users *services.UserService, signer *jwtutil.Signer) *AuthController {
	return &AuthController{Users: users, Signer: signer}
}

// Login exchanges operator credentials for a signed token. Without a
// jwt.secret there is nothing to sign with and the route answers 501.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if c.Signer == nil || len(c.Signer.Secret) == 0 {
		writeJSON(w, http.StatusNotImplemented, dto.ErrorResponse{Error: "login is not enabled"})
		return
	}
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, apperr.Validation("missing credentials"))
		return
	}
	u, err := c.Users.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := c.Signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	global.Logger.Info().Str("username", u.Username).Msg("operator logged in")
	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: c.Signer.ExpMin * 60})
}
