package ui

import (
	"strings"
	"testing"

	"sftp-append/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestConnection(recents ...config.Recent) ConnectionModel {
	return NewConnectionModel(config.Defaults{}, recents)
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	return cmd()
}

// ---------------------------------------------------------------------------
// NewConnectionModel
// ---------------------------------------------------------------------------

func TestNewConnectionModelFocusesHost(t *testing.T) {
	m := newTestConnection()
	if m.focused != fieldHost {
		t.Errorf("focused = %d, want fieldHost(%d)", m.focused, fieldHost)
	}
	if m.activePane != paneForm {
		t.Errorf("activePane = %d, want paneForm(%d)", m.activePane, paneForm)
	}
}

func TestNewConnectionModelPrefilled(t *testing.T) {
	m := NewConnectionModel(config.Defaults{Host: "h1", User: "u1", BaseDir: "/srv"}, nil)
	if m.inputs[fieldHost].Value() != "h1" || m.inputs[fieldUser].Value() != "u1" {
		t.Errorf("host/user = %q/%q", m.inputs[fieldHost].Value(), m.inputs[fieldUser].Value())
	}
	if m.inputs[fieldBaseDir].Value() != "/srv" {
		t.Errorf("base dir = %q", m.inputs[fieldBaseDir].Value())
	}
	if m.focused != fieldPassword {
		t.Errorf("focused = %d, want fieldPassword(%d)", m.focused, fieldPassword)
	}
}

func TestNewConnectionModelFocusesUser(t *testing.T) {
	m := NewConnectionModel(config.Defaults{Host: "h1"}, nil)
	if m.focused != fieldUser {
		t.Errorf("focused = %d, want fieldUser(%d)", m.focused, fieldUser)
	}
}

func TestConnectionModelInit(t *testing.T) {
	if newTestConnection().Init() == nil {
		t.Error("Init should return a command (textinput.Blink)")
	}
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

func TestConnectionModelCycleFields(t *testing.T) {
	m := newTestConnection()
	tab := tea.KeyMsg{Type: tea.KeyTab}
	for i := 1; i < int(fieldCount); i++ {
		m, _ = m.Update(tab)
		if m.focused != connectionField(i) {
			t.Errorf("after %d tabs: focused = %d, want %d", i, m.focused, i)
		}
	}
	m, _ = m.Update(tab)
	if m.focused != fieldHost {
		t.Errorf("after full cycle: focused = %d, want fieldHost(%d)", m.focused, fieldHost)
	}
}

func TestConnectionModelShiftTabWraps(t *testing.T) {
	m := newTestConnection()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focused != fieldBaseDir {
		t.Errorf("focused = %d, want fieldBaseDir(%d)", m.focused, fieldBaseDir)
	}
}

func TestConnectionModelTabIntoRecents(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1", User: "u1", BaseDir: "/a"}, config.Recent{Host: "h2", User: "u2", BaseDir: "/b"})
	m.focusField(fieldBaseDir)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.activePane != paneRecent || m.recentIdx != 0 {
		t.Fatalf("pane=%d idx=%d, want recents at 0", m.activePane, m.recentIdx)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.recentIdx != 1 {
		t.Errorf("recentIdx = %d, want 1", m.recentIdx)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.activePane != paneForm || m.focused != fieldHost {
		t.Errorf("past last recent: pane=%d focused=%d, want form/host", m.activePane, m.focused)
	}
}

func TestConnectionModelShiftTabFromHostIntoRecents(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1"}, config.Recent{Host: "h2"})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.activePane != paneRecent || m.recentIdx != 1 {
		t.Errorf("pane=%d idx=%d, want recents at last entry", m.activePane, m.recentIdx)
	}
}

func TestConnectionModelTextInput(t *testing.T) {
	m := newTestConnection()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("test")})
	if got := m.inputs[fieldHost].Value(); got != "test" {
		t.Errorf("host input = %q, want %q", got, "test")
	}
}

func TestConnectionModelWindowSize(t *testing.T) {
	m := newTestConnection()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	if m.width != 100 || m.height != 50 {
		t.Errorf("dimensions = %dx%d, want 100x50", m.width, m.height)
	}
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestConnectionModelEnterEmptyFields(t *testing.T) {
	m := newTestConnection()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("invalid form should not produce a command")
	}
	if !strings.Contains(m.err, "required") {
		t.Errorf("err = %q, should mention required", m.err)
	}
}

func TestConnectionModelEnterValid(t *testing.T) {
	m := newTestConnection()
	m.inputs[fieldHost].SetValue(" example.com:2222 ")
	m.inputs[fieldUser].SetValue("admin")
	m.inputs[fieldPassword].SetValue("secret")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := runCmd(t, cmd).(ConnectMsg)
	if !ok {
		t.Fatalf("expected ConnectMsg")
	}
	p := msg.Params
	if p.Host != "example.com:2222" || p.User != "admin" || p.Password != "secret" {
		t.Errorf("params = %+v", p)
	}
	if p.BaseDir != "." {
		t.Errorf("BaseDir = %q, want %q", p.BaseDir, ".")
	}
	if m.err != "" {
		t.Errorf("err = %q, want empty", m.err)
	}
}

func TestConnectionModelEnterWhileConnecting(t *testing.T) {
	m := newTestConnection()
	m.inputs[fieldHost].SetValue("h")
	m.inputs[fieldUser].SetValue("u")
	m.SetConnecting("u@h")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("Enter while connecting should be ignored")
	}
}

// ---------------------------------------------------------------------------
// Recents
// ---------------------------------------------------------------------------

func TestConnectionModelRecentNeedsPassword(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1", User: "u1", BaseDir: "/srv"})
	m.activePane = paneRecent

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("recent without password should not connect")
	}
	if m.activePane != paneForm || m.focused != fieldPassword {
		t.Errorf("pane=%d focused=%d, want password field", m.activePane, m.focused)
	}
	if m.inputs[fieldHost].Value() != "h1" || m.inputs[fieldBaseDir].Value() != "/srv" {
		t.Error("recent should fill the form")
	}
	if !strings.Contains(m.err, "u1@h1:/srv") {
		t.Errorf("err = %q, should name the recent", m.err)
	}
}

func TestConnectionModelRecentWithPassword(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1", User: "u1", BaseDir: "/srv"})
	m.inputs[fieldPassword].SetValue("pw")
	m.activePane = paneRecent

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := runCmd(t, cmd).(ConnectMsg)
	if !ok {
		t.Fatal("expected ConnectMsg")
	}
	if msg.Params.Host != "h1" || msg.Params.BaseDir != "/srv" || msg.Params.Password != "pw" {
		t.Errorf("params = %+v", msg.Params)
	}
}

func TestConnectionModelDeleteRecent(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1"}, config.Recent{Host: "h2"})
	m.activePane = paneRecent
	m.recentIdx = 1

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDelete})
	msg, ok := runCmd(t, cmd).(RemoveRecentMsg)
	if !ok || msg.Index != 1 {
		t.Errorf("msg = %#v, want RemoveRecentMsg{1}", msg)
	}
}

func TestConnectionModelSetRecentsClamps(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1"}, config.Recent{Host: "h2"})
	m.activePane = paneRecent
	m.recentIdx = 1

	m.SetRecents([]config.Recent{{Host: "h1"}})
	if m.recentIdx != 0 {
		t.Errorf("recentIdx = %d, want 0", m.recentIdx)
	}
	m.SetRecents(nil)
	if m.activePane != paneForm {
		t.Error("empty recents should return focus to the form")
	}
}

func TestConnectionModelRecentsCapped(t *testing.T) {
	var recents []config.Recent
	for i := 0; i < maxVisibleRecents+3; i++ {
		recents = append(recents, config.Recent{Host: "h"})
	}
	m := newTestConnection(recents...)
	if m.recentMax() != maxVisibleRecents {
		t.Errorf("recentMax = %d, want %d", m.recentMax(), maxVisibleRecents)
	}
}

// ---------------------------------------------------------------------------
// Esc / connecting state
// ---------------------------------------------------------------------------

func TestConnectionModelEscQuits(t *testing.T) {
	_, cmd := newTestConnection().Update(tea.KeyMsg{Type: tea.KeyEscape})
	if _, ok := runCmd(t, cmd).(tea.QuitMsg); !ok {
		t.Error("Esc should quit when idle")
	}
}

func TestConnectionModelEscCancelsConnect(t *testing.T) {
	m := newTestConnection()
	m.SetConnecting("u@h")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if _, ok := runCmd(t, cmd).(CancelConnectMsg); !ok {
		t.Error("Esc while connecting should cancel")
	}
}

func TestConnectionModelSetErrorStopsConnecting(t *testing.T) {
	m := newTestConnection()
	m.SetConnecting("u@h")
	if !m.Connecting() {
		t.Fatal("Connecting should be true")
	}
	m.SetError("boom")
	if m.Connecting() {
		t.Error("SetError should clear the connecting state")
	}
}

func TestConnectionModelClearPassword(t *testing.T) {
	m := newTestConnection()
	m.inputs[fieldPassword].SetValue("pw")
	m.ClearPassword()
	if m.inputs[fieldPassword].Value() != "" {
		t.Error("password should be cleared")
	}
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func TestConnectionModelView(t *testing.T) {
	m := newTestConnection()
	view := m.View()
	for _, want := range []string{"sftp-append", "Host", "Base Dir"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestConnectionModelViewWithError(t *testing.T) {
	m := newTestConnection()
	m.width, m.height = 120, 40
	m.SetError("test error")
	if !strings.Contains(m.View(), "test error") {
		t.Error("view should show error")
	}
}

func TestConnectionModelViewWithRecent(t *testing.T) {
	m := newTestConnection(config.Recent{Host: "h1", User: "u1", BaseDir: "/a"})
	m.width, m.height = 120, 40
	view := m.View()
	if !strings.Contains(view, "Recent Connections") || !strings.Contains(view, "u1@h1:/a") {
		t.Error("view should list recent connections")
	}
}
