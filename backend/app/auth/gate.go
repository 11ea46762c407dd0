// Package auth implements the credential check every protected route runs
// before it reads or mutates device or command state.
package auth

import (
	"crypto/subtle"
	"sort"

	"fleetpulse/backend/app/apperr"
	jwtutil "fleetpulse/backend/app/jwt"
)

const SubjectShared = "shared"

// Principal is who a credential resolved to. DeviceID is set for agent
// tokens and restricts the bearer to that device.
type Principal struct {
	Subject  string
	Org      string
	Role     string
	DeviceID string
}

func (p *Principal) CanActFor(deviceID string) bool {
	return p.DeviceID == "" || p.DeviceID == deviceID
}

type staticToken struct {
	value     []byte
	principal Principal
}

type Gate struct {
	static []staticToken
	signer *jwtutil.Signer
}

// NewGate accepts the shared tokens, per-organization tokens and, when signer
// carries a secret, tokens signed by it. Empty token strings are ignored.
func NewGate(shared []string, orgTokens map[string]string, signer *jwtutil.Signer) *Gate {
	g := &Gate{}
	for _, t := range shared {
		if t == "" {
			continue
		}
		g.static = append(g.static, staticToken{value: []byte(t), principal: Principal{Subject: SubjectShared}})
	}
	orgs := make([]string, 0, len(orgTokens))
	for org := range orgTokens {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	for _, org := range orgs {
		if orgTokens[org] == "" {
			continue
		}
		g.static = append(g.static, staticToken{value: []byte(orgTokens[org]), principal: Principal{Subject: org, Org: org}})
	}
	if signer != nil && len(signer.Secret) > 0 {
		g.signer = signer
	}
	return g
}

// Authenticate has no side effects. Static tokens are compared in constant
// time and the scan never stops early.
func (g *Gate) Authenticate(token string) (*Principal, error) {
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	presented := []byte(token)
	var match *Principal
	for i := range g.static {
		if subtle.ConstantTimeCompare(presented, g.static[i].value) == 1 && match == nil {
			p := g.static[i].principal
			match = &p
		}
	}
	if match != nil {
		return match, nil
	}
	if g.signer != nil {
		if claims, err := g.signer.Parse(token); err == nil {
			subject := claims.Username
			if subject == "" {
				subject = claims.DeviceID
			}
			return &Principal{Subject: subject, Org: claims.Org, Role: claims.Role, DeviceID: claims.DeviceID}, nil
		}
	}
	return nil, apperr.ErrUnauthorized
}
