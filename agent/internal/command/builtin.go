package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetpulse/agent/internal/collector"
	"fleetpulse/agent/internal/state"
)

const (
	minInterval = time.Second
	maxInterval = time.Hour
)

func init() {
	Register("ping", HandlerFunc(ping))
	Register("echo", HandlerFunc(echo))
	Register("collect_metrics", HandlerFunc(collectMetrics))
	Register("set_interval", HandlerFunc(setInterval))
}

func ping(context.Context, json.RawMessage) (string, error) { return "pong", nil }

type echoArgs struct {
	Text string `json:"text"`
}

func echo(_ context.Context, raw json.RawMessage) (string, error) {
	var a echoArgs
	if err := decode(raw, &a); err != nil {
		return "", err
	}
	return a.Text, nil
}

func collectMetrics(context.Context, json.RawMessage) (string, error) {
	b, err := json.Marshal(collector.Collect(""))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type intervalArgs struct {
	Seconds int `json:"seconds"`
}

func setInterval(_ context.Context, raw json.RawMessage) (string, error) {
	var a intervalArgs
	if err := decode(raw, &a); err != nil {
		return "", err
	}
	d := time.Duration(a.Seconds) * time.Second
	if d < minInterval || d > maxInterval {
		return "", fmt.Errorf("seconds must be between %d and %d", int(minInterval.Seconds()), int(maxInterval.Seconds()))
	}
	state.SetInterval(d)
	return fmt.Sprintf("interval set to %s", d), nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return errors.New("arguments are required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bad arguments: %w", err)
	}
	return nil
}
