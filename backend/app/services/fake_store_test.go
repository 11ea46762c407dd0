package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"
)

// memStore is an in-memory DeviceStore and CommandStore. One mutex
// makes every method atomic, which is the contract the gorm store provides.
type memStore struct {
	mu        sync.Mutex
	devices   map[string]models.Device
	order     []string
	history   map[string][]models.Heartbeat
	commands  []models.AgentCommand
	nextHB    uint
	nextCmd   uint
	failNext  error
	listCalls int
}

func newMemStore() *memStore {
	return &memStore{
		devices: make(map[string]models.Device),
		history: make(map[string][]models.Heartbeat),
	}
}

func (m *memStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memStore) RecordHeartbeat(_ context.Context, hb models.Heartbeat) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	d, ok := m.devices[hb.DeviceID]
	if !ok {
		d = models.Device{DeviceID: hb.DeviceID, CreatedAt: hb.ReceivedAt}
		m.order = append(m.order, hb.DeviceID)
	}
	if !ok || !hb.ReceivedAt.Before(d.LastSeen) {
		d.Version = hb.Version
		d.LastSeen = hb.ReceivedAt
		d.LastMetrics = hb.Metrics
		if hb.Hostname != "" {
			d.Hostname = hb.Hostname
		}
	}
	m.devices[hb.DeviceID] = d
	m.nextHB++
	hb.ID = m.nextHB
	m.history[hb.DeviceID] = append(m.history[hb.DeviceID], hb)
	out := d
	return &out, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, apperr.NotFound("device %q", id)
	}
	return &d, nil
}

func (m *memStore) ListAll(_ context.Context) ([]models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]models.Device, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.devices[id])
	}
	return out, nil
}

func (m *memStore) Heartbeats(_ context.Context, id string, limit int) ([]models.Heartbeat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[id]
	out := make([]models.Heartbeat, 0, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h[i])
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, cmd *models.AgentCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.nextCmd++
	cmd.ID = m.nextCmd
	cmd.Status = models.CommandPending
	cmd.Success, cmd.Message, cmd.AckedAt = nil, "", nil
	cmd.CreatedAt = time.Now().UTC()
	m.commands = append(m.commands, *cmd)
	return nil
}

func (m *memStore) NextPending(_ context.Context, deviceID string) (*models.AgentCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.commands {
		if c.DeviceID == deviceID && c.Status == models.CommandPending {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) Ack(_ context.Context, deviceID string, id uint, success bool, message string, at time.Time) (*models.AgentCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.commands {
		c := &m.commands[i]
		if c.ID != id {
			continue
		}
		if c.DeviceID != deviceID {
			return nil, apperr.NotFound("command %d", id)
		}
		if c.Status != models.CommandPending {
			return nil, apperr.Conflict("command %d already acknowledged", id)
		}
		c.Status = models.CommandAcked
		c.Success = &success
		c.Message = message
		c.AckedAt = &at
		out := *c
		return &out, nil
	}
	return nil, apperr.NotFound("command %d", id)
}

func (m *memStore) ListByDevice(_ context.Context, deviceID string, state models.CommandState) ([]models.AgentCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AgentCommand
	for _, c := range m.commands {
		if c.DeviceID == deviceID && (state == "" || c.Status == state) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// users

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUsers() *memUsers { return &memUsers{users: make(map[string]models.User)} }

func (m *memUsers) CountByUsername(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return 1, nil
	}
	return 0, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return apperr.Conflict("user %q already exists", u.Username)
	}
	u.ID = uint(len(m.users) + 1)
	m.users[u.Username] = *u
	return nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, apperr.NotFound("user %q", username)
	}
	return &u, nil
}

// clock is a settable time source shared by the services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
