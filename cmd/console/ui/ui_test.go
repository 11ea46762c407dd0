package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestBuildArgs(t *testing.T) {
	byName := map[string]CommandDef{}
	for _, d := range availableCommands {
		byName[d.Name] = d
	}
	cases := []struct {
		def     string
		values  []string
		name    string
		args    string
		wantErr bool
	}{
		{"ping", nil, "ping", "", false},
		{"echo", []string{"hi"}, "echo", `{"text":"hi"}`, false},
		{"echo", []string{""}, "", "", true},
		{"set_interval", []string{"30"}, "set_interval", `{"seconds":30}`, false},
		{"set_interval", []string{"soon"}, "", "", true},
		{customCommand, []string{"reboot", ""}, "reboot", "", false},
		{customCommand, []string{"reboot", `{"delay":5}`}, "reboot", `{"delay":5}`, false},
		{customCommand, []string{"reboot", `{bad`}, "", "", true},
	}
	for _, tc := range cases {
		name, args, err := buildArgs(byName[tc.def], tc.values)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s %v: err = %v", tc.def, tc.values, err)
			continue
		}
		if name != tc.name || string(args) != tc.args {
			t.Errorf("%s %v = %q %s", tc.def, tc.values, name, args)
		}
	}
}

func TestSessionAgainstServer(t *testing.T) {
	var enqueued map[string]json.RawMessage
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"jwt-abc","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"deviceId":"box-1","status":"online","lastSeen":"2026-01-02T03:04:05Z"}]`))
	})
	mux.HandleFunc("POST /devices/{id}/commands", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&enqueued)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"deviceId":"box-1","command":"ping","state":"pending"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	s := NewSession("", "")
	if _, err := s.Enqueue(ctx, "box-1", "ping", nil); err == nil {
		t.Fatal("enqueue without a token should fail")
	}
	if err := s.Login(ctx, srv.URL+"/", "alice", "pw"); err != nil || s.Token != "jwt-abc" {
		t.Fatalf("Login = %v, token %q", err, s.Token)
	}
	devs, err := s.Devices(ctx)
	if err != nil || len(devs) != 1 || devs[0].Status != "online" {
		t.Fatalf("Devices = %+v, %v", devs, err)
	}
	c, err := s.Enqueue(ctx, "box-1", "ping", nil)
	if err != nil || c.ID != 1 || string(enqueued["command"]) != `"ping"` {
		t.Fatalf("Enqueue = %+v, %v (sent %v)", c, err, enqueued)
	}
	if _, ok := enqueued["args"]; ok {
		t.Fatal("empty args should be omitted")
	}
}

func TestDashboardShowsDevices(t *testing.T) {
	m := NewDashboardModel(NewSession("http://unused", "tok"), 100, 30)
	m, _ = m.Update(devicesLoadedMsg{devices: []Device{
		{DeviceID: "box-1", Status: "online", LastSeen: time.Now()},
		{DeviceID: "box-2", Status: "offline", LastSeen: time.Now().Add(-time.Hour)},
	}})
	if len(m.Table.Rows()) != 2 || m.Table.Rows()[1][1] != "offline" {
		t.Fatalf("rows = %v", m.Table.Rows())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on a row should select it")
	}
	if sel, ok := cmd().(DeviceSelectedMsg); !ok || sel.DeviceID != "box-1" {
		t.Fatalf("selected = %#v", sel)
	}
}

func TestRootSkipsLoginWithToken(t *testing.T) {
	if m := NewRootModel(NewSession("http://x", "tok")); m.State != stateDashboard {
		t.Fatalf("state = %v", m.State)
	}
	if m := NewRootModel(NewSession("http://x", "")); m.State != stateLogin {
		t.Fatalf("state = %v", m.State)
	}
}

func TestCommandRows(t *testing.T) {
	rows := commandRows([]Command{
		{ID: 1, Command: "ping", State: "acked", Result: &CommandResult{Success: true, Message: "pong"}},
		{ID: 2, Command: "echo", State: "pending"},
	})
	if rows[0][3] != "ok: pong" || rows[1][3] != "" {
		t.Fatalf("rows = %v", rows)
	}
}
