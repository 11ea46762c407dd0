package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

const refreshEvery = 5 * time.Second

type DashboardModel struct {
	Session *Session
	Table   table.Model
	Devices []Device
	Updated time.Time
	Err     error
}

type DeviceSelectedMsg struct {
	DeviceID string
}

type devicesLoadedMsg struct {
	devices []Device
	err     error
}

type refreshTickMsg struct{}

func NewDashboardModel(s *Session, width, height int) DashboardModel {
	columns := []table.Column{
		{Title: "Device ID", Width: 28},
		{Title: "Status", Width: 8},
		{Title: "Hostname", Width: 20},
		{Title: "Version", Width: 10},
		{Title: "Last Seen", Width: 20},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height-10, 5)),
	)
	t.SetStyles(tableStyles())
	return DashboardModel{Session: s, Table: t}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m DashboardModel) refresh() tea.Cmd {
	s := m.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		devs, err := s.Devices(ctx)
		return devicesLoadedMsg{devices: devs, err: err}
	}
}

func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.refresh()
		case "enter":
			selected := m.Table.SelectedRow()
			if len(selected) > 0 {
				id := selected[0]
				return m, func() tea.Msg { return DeviceSelectedMsg{DeviceID: id} }
			}
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case devicesLoadedMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.Err = nil
		m.Devices = msg.devices
		m.Updated = time.Now()
		m.Table.SetRows(deviceRows(msg.devices))
		return m, nil
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func deviceRows(devs []Device) []table.Row {
	rows := make([]table.Row, 0, len(devs))
	for _, d := range devs {
		rows = append(rows, table.Row{
			d.DeviceID,
			d.Status,
			d.Hostname,
			d.Version,
			d.LastSeen.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func (m DashboardModel) View() string {
	online := 0
	for _, d := range m.Devices {
		if d.Status == "online" {
			online++
		}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard - Devices") + "  ")
	b.WriteString(fmt.Sprintf("%s / %d\n\n", onlineStyle(fmt.Sprintf("%d online", online)), len(m.Devices)))
	b.WriteString(m.Table.View())
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("r: refresh • enter: open device • q: quit"))
	if !m.Updated.IsZero() {
		b.WriteString(blurredStyle.Render("  (updated " + m.Updated.Format("15:04:05") + ")"))
	}
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
