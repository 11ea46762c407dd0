package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Device struct {
	DeviceID string          `json:"deviceId"`
	Hostname string          `json:"hostname"`
	Version  string          `json:"version"`
	LastSeen time.Time       `json:"lastSeen"`
	Status   string          `json:"status"`
	Metrics  json.RawMessage `json:"metrics"`
}

type CommandResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	AckedAt time.Time `json:"ackedAt"`
}

type Command struct {
	ID        uint            `json:"id"`
	DeviceID  string          `json:"deviceId"`
	Command   string          `json:"command"`
	Args      json.RawMessage `json:"args"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
	Result    *CommandResult  `json:"result,omitempty"`
}

// Session talks to the fleetpulse HTTP API on behalf of one operator.
type Session struct {
	BaseURL string
	Token   string
	http    *http.Client
}

func NewSession(baseURL, token string) *Session {
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges operator credentials for a bearer token. With an empty
// username the password is used as the token itself.
func (s *Session) Login(ctx context.Context, baseURL, username, password string) error {
	s.BaseURL = strings.TrimRight(baseURL, "/")
	if username == "" {
		if password == "" {
			return errors.New("token or username/password required")
		}
		s.Token = password
		return nil
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := s.do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		return err
	}
	s.Token = out.AccessToken
	return nil
}

func (s *Session) Devices(ctx context.Context) ([]Device, error) {
	var out []Device
	return out, s.do(ctx, http.MethodGet, "/devices", nil, &out)
}

func (s *Session) Commands(ctx context.Context, deviceID string) ([]Command, error) {
	var out []Command
	return out, s.do(ctx, http.MethodGet, "/devices/"+url.PathEscape(deviceID)+"/commands", nil, &out)
}

func (s *Session) Enqueue(ctx context.Context, deviceID, name string, args json.RawMessage) (*Command, error) {
	req := map[string]any{"command": name}
	if len(args) > 0 {
		req["args"] = args
	}
	var out Command
	if err := s.do(ctx, http.MethodPost, "/devices/"+url.PathEscape(deviceID)+"/commands", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%s %s: %d", method, path, resp.StatusCode)
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}
