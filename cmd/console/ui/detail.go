package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DeviceDetailModel struct {
	Session  *Session
	DeviceID string
	Width    int
	Height   int

	Commands    table.Model
	CommandForm CommandFormModel
	CommandLog  viewport.Model
	LogContent  string

	Focus int
}

const (
	FocusQueue = iota
	FocusForm
)

type commandsLoadedMsg struct {
	commands []Command
	err      error
}

func NewDeviceDetailModel(s *Session, deviceID string, width, height int) DeviceDetailModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Command", Width: 16},
		{Title: "State", Width: 8},
		{Title: "Result", Width: 30},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height-12, 5)),
	)
	t.SetStyles(tableStyles())

	vp := viewport.New(50, 6)
	vp.Style = lipgloss.NewStyle().PaddingLeft(1)

	return DeviceDetailModel{
		Session:     s,
		DeviceID:    deviceID,
		Width:       width,
		Height:      height,
		Commands:    t,
		CommandForm: NewCommandFormModel(deviceID, s, 50, max(height-15, 8)),
		CommandLog:  vp,
		Focus:       FocusQueue,
	}
}

func (m DeviceDetailModel) Init() tea.Cmd {
	return m.loadCommands()
}

func (m DeviceDetailModel) loadCommands() tea.Cmd {
	s, id := m.Session, m.DeviceID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cmds, err := s.Commands(ctx, id)
		return commandsLoadedMsg{commands: cmds, err: err}
	}
}

func (m *DeviceDetailModel) appendLog(line string) {
	m.LogContent += line + "\n"
	m.CommandLog.SetContent(m.LogContent)
	m.CommandLog.GotoBottom()
}

func (m DeviceDetailModel) Update(msg tea.Msg) (DeviceDetailModel, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.Focus == FocusQueue || m.CommandForm.State == StateSelecting {
				return m, func() tea.Msg { return BackToDashboardMsg{} }
			}
		case "tab":
			if m.Focus == FocusQueue {
				m.Focus = FocusForm
				m.Commands.Blur()
				return m, nil
			}
			if m.CommandForm.State == StateSelecting {
				m.Focus = FocusQueue
				m.Commands.Focus()
				return m, nil
			}
		case "r":
			if m.Focus == FocusQueue {
				return m, m.loadCommands()
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Commands.SetHeight(max(msg.Height-12, 5))
		m.CommandLog.Width = msg.Width/2 - 8
		m.CommandForm, _ = m.CommandForm.Update(tea.WindowSizeMsg{Width: msg.Width/2 - 8, Height: max(msg.Height-15, 8)})
		return m, nil

	case commandsLoadedMsg:
		if msg.err != nil {
			m.appendLog("error: " + msg.err.Error())
			return m, nil
		}
		m.Commands.SetRows(commandRows(msg.commands))
		return m, nil

	case CommandSentMsg:
		if msg.Err != nil {
			m.appendLog("error: " + msg.Err.Error())
			return m, nil
		}
		m.appendLog(msg.Log)
		return m, m.loadCommands()
	}

	if m.Focus == FocusQueue {
		m.Commands, cmd = m.Commands.Update(msg)
	} else {
		m.CommandForm, cmd = m.CommandForm.Update(msg)
	}
	cmds = append(cmds, cmd)
	m.CommandLog, cmd = m.CommandLog.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func commandRows(cmds []Command) []table.Row {
	rows := make([]table.Row, 0, len(cmds))
	for _, c := range cmds {
		result := ""
		if c.Result != nil {
			verdict := "ok"
			if !c.Result.Success {
				verdict = "failed"
			}
			result = verdict
			if c.Result.Message != "" {
				result += ": " + strings.ReplaceAll(c.Result.Message, "\n", " ")
			}
		}
		rows = append(rows, table.Row{fmt.Sprint(c.ID), c.Command, c.State, result})
	}
	return rows
}

func (m DeviceDetailModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render("Device " + m.DeviceID)

	half := max(m.Width/2-6, 30)
	active := lipgloss.NewStyle().BorderStyle(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("205")).Padding(1, 2).Width(half)
	inactive := lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(half)
	leftStyle, rightStyle := active, inactive
	if m.Focus == FocusForm {
		leftStyle, rightStyle = inactive, active
	}

	left := leftStyle.Render(lipgloss.JoinVertical(lipgloss.Left, "Command Queue", m.Commands.View()))
	right := m.CommandForm.View()
	if m.LogContent != "" {
		sep := blurredStyle.Render(strings.Repeat("─", half))
		right = lipgloss.JoinVertical(lipgloss.Left, right, sep, m.CommandLog.View())
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, rightStyle.Render(right))
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).Render("Tab: switch panel • r: reload queue • Enter: select/submit • Esc: back")
	return lipgloss.JoinVertical(lipgloss.Left, header, content, help)
}
