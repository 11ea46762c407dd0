package auth

import (
	"errors"
	"testing"

	"fleetpulse/backend/app/apperr"
	jwtutil "fleetpulse/backend/app/jwt"
)

func TestAuthenticateSharedToken(t *testing.T) {
	g := NewGate([]string{"dev-token-123"}, nil, nil)

	p, err := g.Authenticate("dev-token-123")
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if p.Subject != SubjectShared || !p.CanActFor("any-device") {
		t.Errorf("unexpected principal %+v", p)
	}
	for _, bad := range []string{"", "dev-token-12", "dev-token-1234", "DEV-TOKEN-123"} {
		if _, err := g.Authenticate(bad); !errors.Is(err, apperr.ErrUnauthorized) {
			t.Errorf("Authenticate(%q): expected unauthorized, got %v", bad, err)
		}
	}
}

func TestAuthenticateOrgTokens(t *testing.T) {
	g := NewGate(nil, map[string]string{"acme": "acme-secret", "globex": "globex-secret", "empty": ""}, nil)

	p, err := g.Authenticate("globex-secret")
	if err != nil {
		t.Fatal(err)
	}
	if p.Org != "globex" || p.Subject != "globex" {
		t.Errorf("unexpected principal %+v", p)
	}
	if _, err := g.Authenticate(""); err == nil {
		t.Error("empty org token must not match an empty credential")
	}
}

func TestAuthenticateSignedTokens(t *testing.T) {
	signer := &jwtutil.Signer{Secret: []byte("s3cret"), Issuer: "fleetpulse", ExpMin: 10}
	g := NewGate(nil, nil, signer)

	op, _ := signer.Sign(1, "ops", "admin")
	p, err := g.Authenticate(op)
	if err != nil {
		t.Fatalf("operator token rejected: %v", err)
	}
	if p.Subject != "ops" || p.Role != "admin" {
		t.Errorf("unexpected principal %+v", p)
	}

	agent, _ := signer.SignAgent("demo-001", "acme", 0)
	p, err = g.Authenticate(agent)
	if err != nil {
		t.Fatalf("agent token rejected: %v", err)
	}
	if !p.CanActFor("demo-001") || p.CanActFor("demo-002") {
		t.Errorf("agent token not bound to its device: %+v", p)
	}

	forged, _ := (&jwtutil.Signer{Secret: []byte("nope"), Issuer: "fleetpulse"}).Sign(1, "x", "admin")
	if _, err := g.Authenticate(forged); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("forged token: %v", err)
	}
}

func TestGateWithoutSecretIgnoresSigner(t *testing.T) {
	g := NewGate([]string{"t"}, nil, &jwtutil.Signer{})
	if g.signer != nil {
		t.Fatal("signer without secret must be dropped")
	}
	if _, err := g.Authenticate("a.b.c"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("got %v", err)
	}
}
