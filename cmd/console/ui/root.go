package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateLogin state = iota
	stateDashboard
	stateDeviceDetail
)

// BackToDashboardMsg signals transition back to dashboard
type BackToDashboardMsg struct{}

type loggedInMsg struct{}

type RootModel struct {
	State     state
	Session   *Session
	Login     LoginModel
	Dashboard DashboardModel
	Detail    DeviceDetailModel
	Quitting  bool
	width     int
	height    int
}

// NewRootModel starts on the login screen unless a token is already known.
func NewRootModel(s *Session) RootModel {
	m := RootModel{State: stateLogin, Session: s, Login: NewLoginModel(s)}
	if s.Token != "" {
		m.State = stateDashboard
		m.Dashboard = NewDashboardModel(s, 0, 24)
	}
	return m
}

func (m RootModel) Init() tea.Cmd {
	if m.State == stateDashboard {
		return m.Dashboard.Init()
	}
	return m.Login.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.State != stateLogin {
			m.Dashboard, _ = m.Dashboard.Update(msg)
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}

	case refreshTickMsg, devicesLoadedMsg:
		// the dashboard keeps polling while a device is open
		if m.State == stateDeviceDetail {
			var cmd tea.Cmd
			m.Dashboard, cmd = m.Dashboard.Update(msg)
			return m, cmd
		}
	}

	switch m.State {
	case stateLogin:
		if _, ok := msg.(loggedInMsg); ok {
			m.State = stateDashboard
			m.Dashboard = NewDashboardModel(m.Session, m.width, m.height)
			return m, m.Dashboard.Init()
		}
		newLogin, newCmd := m.Login.Update(msg)
		m.Login = newLogin
		cmds = append(cmds, newCmd)

	case stateDashboard:
		if _, ok := msg.(tea.WindowSizeMsg); ok {
			return m, nil
		}
		if sel, ok := msg.(DeviceSelectedMsg); ok {
			m.State = stateDeviceDetail
			m.Detail = NewDeviceDetailModel(m.Session, sel.DeviceID, m.width, m.height)
			return m, m.Detail.Init()
		}
		newDash, newCmd := m.Dashboard.Update(msg)
		m.Dashboard = newDash
		cmds = append(cmds, newCmd)

	case stateDeviceDetail:
		if _, ok := msg.(BackToDashboardMsg); ok {
			m.State = stateDashboard
			return m, m.Dashboard.refresh()
		}
		newDetail, newCmd := m.Detail.Update(msg)
		m.Detail = newDetail
		cmds = append(cmds, newCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateLogin:
		return m.Login.View()
	case stateDashboard:
		return m.Dashboard.View()
	case stateDeviceDetail:
		return m.Detail.View()
	}
	return "Unknown state"
}
