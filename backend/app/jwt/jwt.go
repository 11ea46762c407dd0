package jwtutil

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims identify an operator (UserID/Username/Role) or, for agent tokens,
// pin the bearer to a single DeviceID.
type Claims struct {
	UserID   uint   `json:"uid,omitempty"`
	Username string `json:"uname,omitempty"`
	Role     string `json:"role,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	Org      string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

type Signer struct {
	Secret []byte
	Issuer string
	ExpMin int
}

var ErrNoSecret = errors.New("jwt: signing secret not configured")

// Sign issues an operator token valid for ExpMin minutes.
func (s *Signer) Sign(userID uint, username, role string) (string, error) {
	return s.SignUser(userID, username, role, time.Duration(s.ExpMin)*time.Minute)
}

// SignUser issues an operator token valid for exactly ttl. ttl <= 0 means no
// expiry.
func (s *Signer) SignUser(userID uint, username, role string, ttl time.Duration) (string, error) {
	return s.issue(Claims{UserID: userID, Username: username, Role: role}, ttl)
}

// SignAgent issues a token bound to one device. ttl <= 0 means no expiry.
func (s *Signer) SignAgent(deviceID, org string, ttl time.Duration) (string, error) {
	return s.issue(Claims{DeviceID: deviceID, Org: org, Role: "agent"}, ttl)
}

func (s *Signer) issue(claims Claims, ttl time.Duration) (string, error) {
	if len(s.Secret) == 0 {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{Issuer: s.Issuer, IssuedAt: jwt.NewNumericDate(now)}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	if len(s.Secret) == 0 {
		return nil, ErrNoSecret
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) { return s.Secret, nil }, opts...)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
