package command

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"fleetpulse/agent/internal/state"
)

func TestBuiltins(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		args    string
		ok      bool
		message string
	}{
		{"ping", "", true, "pong"},
		{"echo", `{"text":"hi"}`, true, "hi"},
		{"echo", "", false, "arguments are required"},
		{"set_interval", `{"seconds":0}`, false, "seconds must be between 1 and 3600"},
		{"set_interval", `{"seconds":"x"}`, false, ""},
		{"reboot", "", false, `unknown command "reboot"`},
	}
	for _, tc := range cases {
		ok, msg := Dispatch(ctx, tc.name, json.RawMessage(tc.args))
		if ok != tc.ok || (tc.message != "" && msg != tc.message) {
			t.Errorf("%s(%s) = %v, %q", tc.name, tc.args, ok, msg)
		}
	}
}

func TestSetInterval(t *testing.T) {
	state.SetInterval(10 * time.Second)
	ok, msg := Dispatch(context.Background(), "set_interval", json.RawMessage(`{"seconds":30}`))
	if !ok || state.GetInterval() != 30*time.Second {
		t.Fatalf("ok=%v msg=%q interval=%s", ok, msg, state.GetInterval())
	}
}

func TestCollectMetricsIsJSON(t *testing.T) {
	ok, msg := Dispatch(context.Background(), "collect_metrics", nil)
	var m map[string]any
	if !ok || json.Unmarshal([]byte(msg), &m) != nil || m["status"] == nil {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
}

func TestDispatchRecoversAndTruncates(t *testing.T) {
	Register("test_panic", HandlerFunc(func(context.Context, json.RawMessage) (string, error) {
		panic("boom")
	}))
	Register("test_long", HandlerFunc(func(context.Context, json.RawMessage) (string, error) {
		return "", errors.New(strings.Repeat("é", MaxMessageLen+10))
	}))

	if ok, msg := Dispatch(context.Background(), "test_panic", nil); ok || msg != "panic: boom" {
		t.Fatalf("panic = %v, %q", ok, msg)
	}
	ok, msg := Dispatch(context.Background(), "test_long", nil)
	if ok || len([]rune(msg)) != MaxMessageLen {
		t.Fatalf("long = %v, %d runes", ok, len([]rune(msg)))
	}
}
