package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrUnauthorized = errors.New("credential rejected")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already acknowledged")
)

// StatusError carries any other non-2xx answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Message)
}

type Heartbeat struct {
	DeviceID string `json:"deviceId"`
	Hostname string `json:"hostname,omitempty"`
	Version  string `json:"version,omitempty"`
	Metrics  any    `json:"metrics"`
}

type Command struct {
	ID       uint            `json:"id"`
	DeviceID string          `json:"deviceId"`
	Name     string          `json:"command"`
	Args     json.RawMessage `json:"args"`
}

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Client struct {
	base   string
	header string
	token  string
	http   *http.Client
}

func New(baseURL, header, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{base: baseURL, header: header, token: token, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Heartbeat(ctx context.Context, hb Heartbeat) error {
	_, err := c.do(ctx, http.MethodPost, "/ingest", hb, nil)
	return err
}

// Next returns nil when the device has nothing pending.
func (c *Client) Next(ctx context.Context, deviceID string) (*Command, error) {
	var cmd Command
	code, err := c.do(ctx, http.MethodGet, "/devices/"+url.PathEscape(deviceID)+"/commands/next", nil, &cmd)
	if err != nil {
		return nil, err
	}
	if code == http.StatusNoContent {
		return nil, nil
	}
	return &cmd, nil
}

func (c *Client) Ack(ctx context.Context, deviceID string, id uint, success bool, message string) error {
	path := "/devices/" + url.PathEscape(deviceID) + "/commands/" + strconv.FormatUint(uint64(id), 10) + "/ack"
	_, err := c.do(ctx, http.MethodPost, path, ack{Success: success, Message: message}, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(c.header, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return resp.StatusCode, ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(bytes.TrimSpace(data))
}
