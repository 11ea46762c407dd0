package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type FormState int

const (
	StateSelecting FormState = iota
	StateFilling
)

type cmdItem struct {
	title, desc string
	index       int
}

func (i cmdItem) Title() string       { return i.title }
func (i cmdItem) Description() string { return i.desc }
func (i cmdItem) FilterValue() string { return i.title }

// CommandSentMsg reports the outcome of an enqueue.
type CommandSentMsg struct {
	Log string
	Err error
}

type CommandFormModel struct {
	DeviceID    string
	Session     *Session
	State       FormState
	List        list.Model
	Inputs      []textinput.Model
	Focused     int
	SelectedCmd int
}

type CommandDef struct {
	Name        string
	Description string
	Fields      []FieldDef
}

type FieldDef struct {
	Name        string
	Placeholder string
	Required    bool
	Default     string
}

// customCommand lets the operator type any name and raw JSON args.
const customCommand = "custom"

var availableCommands = []CommandDef{
	{Name: "ping", Description: "Round trip through the agent"},
	{
		Name:        "echo",
		Description: "Agent answers with the given text",
		Fields:      []FieldDef{{Name: "text", Placeholder: "text to echo", Required: true}},
	},
	{Name: "collect_metrics", Description: "Agent reports a fresh metrics sample"},
	{
		Name:        "set_interval",
		Description: "Change the heartbeat interval",
		Fields:      []FieldDef{{Name: "seconds", Placeholder: "1..3600", Required: true, Default: "10"}},
	},
	{
		Name:        customCommand,
		Description: "Any command name with raw JSON args",
		Fields: []FieldDef{
			{Name: "command", Placeholder: "command name", Required: true},
			{Name: "args", Placeholder: `{"key":"value"} or empty`},
		},
	},
}

func NewCommandFormModel(deviceID string, session *Session, width, height int) CommandFormModel {
	items := make([]list.Item, 0, len(availableCommands))
	for i, cmd := range availableCommands {
		items = append(items, cmdItem{title: cmd.Name, desc: cmd.Description, index: i})
	}
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Enqueue Command"
	l.SetShowHelp(false)

	return CommandFormModel{
		DeviceID: deviceID,
		Session:  session,
		State:    StateSelecting,
		List:     l,
	}
}

func (m *CommandFormModel) initInputs() {
	cmd := availableCommands[m.SelectedCmd]
	m.Inputs = make([]textinput.Model, len(cmd.Fields))
	for i, field := range cmd.Fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 512
		if field.Default != "" {
			ti.SetValue(field.Default)
		}
		if i == 0 {
			ti.Focus()
		}
		m.Inputs[i] = ti
	}
	m.Focused = 0
}

func (m CommandFormModel) Update(msg tea.Msg) (CommandFormModel, tea.Cmd) {
	var cmd tea.Cmd

	if m.State == StateSelecting {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "enter" {
				if i, ok := m.List.SelectedItem().(cmdItem); ok {
					m.SelectedCmd = i.index
					m.State = StateFilling
					m.initInputs()
					return m, textinput.Blink
				}
			}
		case tea.WindowSizeMsg:
			m.List.SetWidth(msg.Width)
			m.List.SetHeight(msg.Height)
		}
		m.List, cmd = m.List.Update(msg)
		return m, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.State = StateSelecting
			return m, nil
		case "enter":
			switch m.Focused {
			case len(m.Inputs):
				m.State = StateSelecting
				return m, m.submitCommand()
			case len(m.Inputs) + 1:
				m.State = StateSelecting
				return m, nil
			}
			m.moveFocus(1)
			return m, nil
		case "tab", "down":
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		}
	}
	if m.Focused >= 0 && m.Focused < len(m.Inputs) {
		m.Inputs[m.Focused], cmd = m.Inputs[m.Focused].Update(msg)
	}
	return m, cmd
}

// moveFocus cycles through the inputs and the Submit and Back buttons.
func (m *CommandFormModel) moveFocus(delta int) {
	n := len(m.Inputs) + 2
	m.Focused = (m.Focused + delta + n) % n
	for i := range m.Inputs {
		if i == m.Focused {
			m.Inputs[i].Focus()
		} else {
			m.Inputs[i].Blur()
		}
	}
}

func (m CommandFormModel) renderButton(text string, focused bool) string {
	if focused {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Padding(0, 3).Bold(true).Render(text)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("254")).Background(lipgloss.Color("240")).Padding(0, 3).Render(text)
}

func (m CommandFormModel) View() string {
	if m.State == StateSelecting {
		return m.List.View()
	}

	cmd := availableCommands[m.SelectedCmd]
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Render("Parameters: "+cmd.Name) + "\n\n")
	for i, field := range cmd.Fields {
		label := field.Name
		if field.Required {
			label += " *"
		}
		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
		if i == m.Focused {
			labelStyle = labelStyle.Foreground(lipgloss.Color("205")).Bold(true)
		}
		b.WriteString(labelStyle.Render(label) + "\n")
		b.WriteString(m.Inputs[i].View() + "\n\n")
	}

	submit := m.renderButton("Submit", m.Focused == len(m.Inputs))
	back := m.renderButton("Back", m.Focused == len(m.Inputs)+1)
	b.WriteString("\n" + lipgloss.JoinHorizontal(lipgloss.Top, submit, lipgloss.NewStyle().MarginLeft(2).Render(back)))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m CommandFormModel) submitCommand() tea.Cmd {
	def := availableCommands[m.SelectedCmd]
	values := make([]string, len(m.Inputs))
	for i := range m.Inputs {
		values[i] = strings.TrimSpace(m.Inputs[i].Value())
	}
	s, deviceID := m.Session, m.DeviceID
	return func() tea.Msg {
		name, args, err := buildArgs(def, values)
		if err != nil {
			return CommandSentMsg{Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c, err := s.Enqueue(ctx, deviceID, name, args)
		if err != nil {
			return CommandSentMsg{Err: err}
		}
		return CommandSentMsg{Log: fmt.Sprintf("queued #%d %s", c.ID, c.Command)}
	}
}

// buildArgs turns form values into the command name and its JSON args.
func buildArgs(def CommandDef, values []string) (string, json.RawMessage, error) {
	for i, f := range def.Fields {
		if f.Required && values[i] == "" {
			return "", nil, fmt.Errorf("%s is required", f.Name)
		}
	}
	var v any
	switch def.Name {
	case "echo":
		v = map[string]string{"text": values[0]}
	case "set_interval":
		n, err := strconv.Atoi(values[0])
		if err != nil {
			return "", nil, fmt.Errorf("seconds must be a number")
		}
		v = map[string]int{"seconds": n}
	case customCommand:
		if values[1] == "" {
			return values[0], nil, nil
		}
		if !json.Valid([]byte(values[1])) {
			return "", nil, fmt.Errorf("args must be valid JSON")
		}
		return values[0], json.RawMessage(values[1]), nil
	default:
		return def.Name, nil, nil
	}
	b, err := json.Marshal(v)
	return def.Name, b, err
}
