package ui

import (
	"log"
	"strings"

	"sftp-append/internal/config"
	"sftp-append/internal/remote"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConnectMsg is sent when the user submits the connection form.
type ConnectMsg struct {
	Params remote.Params
}

// CancelConnectMsg asks the app to abort a connection in progress.
type CancelConnectMsg struct{}

// RemoveRecentMsg asks the app to forget a recent connection.
type RemoveRecentMsg struct {
	Index int
}

type connectionField int

const (
	fieldHost connectionField = iota
	fieldUser
	fieldPassword
	fieldBaseDir
	fieldCount
)

// maxVisibleRecents caps the rows shown in the recents pane.
const maxVisibleRecents = 8

// connectionPane tracks which section has keyboard focus on the connection screen.
type connectionPane int

const (
	paneForm connectionPane = iota
	paneRecent
)

// ConnectionModel is the connection screen.
type ConnectionModel struct {
	inputs        []textinput.Model
	focused       connectionField
	activePane    connectionPane
	recents       []config.Recent
	recentIdx     int
	width         int
	height        int
	err           string
	connecting    bool
	connectTarget string
}

// NewConnectionModel creates the connection screen, pre-filled from defaults.
func NewConnectionModel(d config.Defaults, recents []config.Recent) ConnectionModel {
	inputs := make([]textinput.Model, fieldCount)
	placeholders := []string{"host or host:port", "Username", "Password", "/path/to/base/dir"}
	for i := range inputs {
		t := textinput.New()
		t.Placeholder = placeholders[i]
		t.CharLimit = 256
		inputs[i] = t
	}
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'
	inputs[fieldHost].SetValue(d.Host)
	inputs[fieldUser].SetValue(d.User)
	inputs[fieldBaseDir].SetValue(d.BaseDir)

	m := ConnectionModel{
		inputs:     inputs,
		activePane: paneForm,
		recents:    recents,
	}
	// Start where typing is needed first.
	switch {
	case d.Host == "":
		m.focused = fieldHost
	case d.User == "":
		m.focused = fieldUser
	default:
		m.focused = fieldPassword
	}
	m.inputs[m.focused].Focus()
	return m
}

// SetRecents replaces the recents shown in the pane.
func (m *ConnectionModel) SetRecents(recents []config.Recent) {
	m.recents = recents
	if n := m.recentMax(); n == 0 {
		if m.activePane == paneRecent {
			m.focusField(fieldHost)
		}
	} else if m.recentIdx >= n {
		m.recentIdx = n - 1
	}
}

// SetError sets an error message to display on the connection screen.
func (m *ConnectionModel) SetError(msg string) {
	m.err = msg
	if msg != "" {
		m.connecting = false
	}
}

// SetConnecting sets the connecting state with a target description.
func (m *ConnectionModel) SetConnecting(target string) {
	m.connecting = true
	m.connectTarget = target
	m.err = ""
}

// ClearConnecting clears the connecting state.
func (m *ConnectionModel) ClearConnecting() {
	m.connecting = false
	m.connectTarget = ""
}

// Connecting reports whether a connection attempt is in flight.
func (m ConnectionModel) Connecting() bool {
	return m.connecting
}

// ClearPassword empties the password field.
func (m *ConnectionModel) ClearPassword() {
	m.inputs[fieldPassword].SetValue("")
}

func (m ConnectionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConnectionModel) Update(msg tea.Msg) (ConnectionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		log.Printf("[ConnectionModel] key: type=%d string=%q pane=%d focused=%d",
			msg.Type, msg.String(), m.activePane, m.focused)

		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			if m.connecting {
				return m, func() tea.Msg { return CancelConnectMsg{} }
			}
			return m, tea.Quit

		case tea.KeyEnter:
			if m.connecting {
				return m, nil
			}
			if m.activePane == paneRecent {
				if m.recentIdx < m.recentMax() {
					m.fillForm(m.recents[m.recentIdx])
					if m.inputs[fieldPassword].Value() == "" {
						m.focusField(fieldPassword)
						m.err = "Enter the password for " + m.recents[m.recentIdx].Label()
						return m, nil
					}
					m.focusField(m.focused)
					return m, m.submitForm()
				}
				return m, nil
			}
			return m, m.submitForm()

		case tea.KeyTab, tea.KeyDown:
			if m.activePane == paneRecent {
				if m.recentIdx < m.recentMax()-1 {
					m.recentIdx++
				} else {
					m.focusField(fieldHost)
				}
				return m, nil
			}
			m.advanceField()
			return m, nil

		case tea.KeyShiftTab, tea.KeyUp:
			if m.activePane == paneRecent {
				if m.recentIdx > 0 {
					m.recentIdx--
				} else {
					m.focusField(fieldBaseDir)
				}
				return m, nil
			}
			m.retreatField()
			return m, nil

		case tea.KeyDelete, tea.KeyBackspace:
			if m.activePane == paneRecent {
				if m.recentIdx < m.recentMax() {
					idx := m.recentIdx
					return m, func() tea.Msg { return RemoveRecentMsg{Index: idx} }
				}
				return m, nil
			}
		}
	}

	if m.activePane == paneRecent {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// recentMax returns the number of visible recent entries.
func (m *ConnectionModel) recentMax() int {
	return min(len(m.recents), maxVisibleRecents)
}

func (m *ConnectionModel) focusField(f connectionField) {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.activePane = paneForm
	m.focused = f
	m.inputs[f].Focus()
}

// advanceField moves focus to the next field, then into the recents pane.
func (m *ConnectionModel) advanceField() {
	if m.focused == fieldBaseDir && m.recentMax() > 0 {
		m.inputs[m.focused].Blur()
		m.activePane = paneRecent
		m.recentIdx = 0
		return
	}
	m.focusField((m.focused + 1) % fieldCount)
}

// retreatField moves focus to the previous field, wrapping through recents.
func (m *ConnectionModel) retreatField() {
	if m.focused == fieldHost && m.recentMax() > 0 {
		m.inputs[m.focused].Blur()
		m.activePane = paneRecent
		m.recentIdx = m.recentMax() - 1
		return
	}
	m.focusField((m.focused + fieldCount - 1) % fieldCount)
}

// fillForm populates the input fields from a recent connection.
func (m *ConnectionModel) fillForm(r config.Recent) {
	m.inputs[fieldHost].SetValue(r.Host)
	m.inputs[fieldUser].SetValue(r.User)
	m.inputs[fieldBaseDir].SetValue(r.BaseDir)
}

// submitForm validates and submits the form.
func (m *ConnectionModel) submitForm() tea.Cmd {
	p := remote.Params{
		Host:     strings.TrimSpace(m.inputs[fieldHost].Value()),
		User:     strings.TrimSpace(m.inputs[fieldUser].Value()),
		Password: m.inputs[fieldPassword].Value(),
		BaseDir:  strings.TrimSpace(m.inputs[fieldBaseDir].Value()),
	}
	if p.Host == "" || p.User == "" {
		m.err = "Host and username are required"
		return nil
	}
	if p.BaseDir == "" {
		p.BaseDir = "."
	}
	m.err = ""
	return func() tea.Msg { return ConnectMsg{Params: p} }
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Align(lipgloss.Center).
			Width(50)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(12)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(1, 2).
			Width(50)

	focusedInputBoxStyle = inputBoxStyle.
				BorderForeground(lipgloss.Color("#7D56F4"))

	dimBoxStyle = inputBoxStyle.
			BorderForeground(lipgloss.Color("#555555"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	paneTitleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)
)

func (m ConnectionModel) View() string {
	labels := []string{"Host:", "Username:", "Password:", "Base Dir:"}

	var rows []string
	rows = append(rows, paneTitleStyle.Render("Connect over SFTP"), "")
	for i := range m.inputs {
		label := labelStyle.Render(labels[i])
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center, label, m.inputs[i].View()))
	}

	boxStyle := dimBoxStyle
	if m.activePane == paneForm {
		boxStyle = focusedInputBoxStyle
	}
	box := boxStyle.Render(strings.Join(rows, "\n"))

	title := titleStyle.Render("sftp-append")

	maxWidth := 44 // inputBoxStyle width (50) minus border/padding (6)
	if m.width > 60 {
		maxWidth = m.width/2 - 6
	}

	var statusMsg string
	if m.connecting {
		statusMsg = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).Bold(true).
			Render(truncate("⟳  Connecting to "+m.connectTarget+"… (Esc to cancel)", maxWidth))
	} else if m.err != "" {
		statusMsg = errorStyle.Render(truncate("⚠  "+m.err, maxWidth))
	}

	var recentSection string
	if n := m.recentMax(); n > 0 {
		header := lipgloss.NewStyle().Padding(0, 0, 0, 2).Render(paneTitleStyle.Render("Recent Connections"))

		normalStyle := lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}).
			Padding(0, 0, 0, 2)
		selectedStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 0, 0, 1)

		var recentRows []string
		for i := 0; i < n; i++ {
			label := truncate(m.recents[i].Label(), 42)
			if m.activePane == paneRecent && i == m.recentIdx {
				recentRows = append(recentRows, selectedStyle.Render(label))
			} else {
				recentRows = append(recentRows, normalStyle.Render(label))
			}
		}
		recentBoxStyle := dimBoxStyle
		if m.activePane == paneRecent {
			recentBoxStyle = focusedInputBoxStyle
		}
		recentSection = recentBoxStyle.Render(header + "\n\n" + strings.Join(recentRows, "\n"))
	}

	hint := statusBarStyle.Render("Tab: next field • Enter: connect • Del: forget recent • Esc: quit")
	content := lipgloss.JoinVertical(lipgloss.Left, title, "", box, statusMsg, recentSection, hint)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
