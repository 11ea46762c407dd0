package jwtutil

import (
	"errors"
	"testing"
	"time"
)

func TestSignParseRoundTrip(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "fleetpulse", ExpMin: 5}
	tok, err := s.Sign(3, "ops", "admin")
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UserID != 3 || c.Username != "ops" || c.Role != "admin" || c.DeviceID != "" {
		t.Errorf("unexpected claims %+v", c)
	}
}

func TestSignAgentBindsDevice(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "fleetpulse"}
	tok, err := s.SignAgent("demo-001", "acme", 0)
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.DeviceID != "demo-001" || c.Org != "acme" || c.ExpiresAt != nil {
		t.Errorf("unexpected claims %+v", c)
	}
}

func TestParseRejects(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "fleetpulse", ExpMin: 5}
	other := &Signer{Secret: []byte("other"), Issuer: "fleetpulse", ExpMin: 5}
	wrongIssuer := &Signer{Secret: []byte("k"), Issuer: "someone-else", ExpMin: 5}

	forged, _ := other.Sign(1, "x", "admin")
	if _, err := s.Parse(forged); err == nil {
		t.Error("token signed with another secret accepted")
	}
	foreign, _ := wrongIssuer.Sign(1, "x", "admin")
	if _, err := s.Parse(foreign); err == nil {
		t.Error("token from another issuer accepted")
	}
	// exp is truncated to whole seconds, so a 1ns ttl is already expired.
	expired, _ := s.issue(Claims{DeviceID: "d"}, time.Nanosecond)
	time.Sleep(2 * time.Millisecond)
	if _, err := s.Parse(expired); err == nil {
		t.Error("expired token accepted")
	}
	if _, err := s.Parse("not-a-jwt"); err == nil {
		t.Error("garbage accepted")
	}
}

func TestNoSecret(t *testing.T) {
	s := &Signer{}
	if _, err := s.Sign(1, "a", "admin"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("sign without secret: %v", err)
	}
	if _, err := s.Parse("a.b.c"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("parse without secret: %v", err)
	}
}

func TestSignUserExactTTL(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "fleetpulse"}
	tok, err := s.SignUser(1, "ops", "operator", 45*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.ExpiresAt == nil || c.ExpiresAt.Time.Sub(c.IssuedAt.Time) != 45*time.Second {
		t.Errorf("unexpected expiry %+v", c.RegisteredClaims)
	}
}
