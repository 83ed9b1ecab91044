package ui

import "github.com/charmbracelet/bubbles/key"

// browserKeyMap defines the browser screen bindings.
type browserKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextPane   key.Binding
	PrevPane   key.Binding
	Enter      key.Binding
	AddAll     key.Binding
	Remove     key.Binding
	Clear      key.Binding
	Fetch      key.Binding
	Copy       key.Binding
	ClearOut   key.Binding
	Refresh    key.Binding
	Search     key.Binding
	Disconnect key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var browserKeys = browserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	NextPane: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next pane"),
	),
	PrevPane: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("Shift+Tab", "previous pane"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "expand directory / add file"),
	),
	AddAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add all files under directory"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove file from selection"),
	),
	Clear: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "clear selection"),
	),
	Fetch: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fetch & append selection"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy output to clipboard"),
	),
	ClearOut: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear output"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload directory cache"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "focus search"),
	),
	Disconnect: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("Ctrl+D", "disconnect"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel running operation"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle this help overlay"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("Ctrl+C", "quit"),
	),
}

// bindings lists the browser bindings in help order.
func (k browserKeyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.NextPane, k.PrevPane, k.Enter, k.AddAll, k.Remove, k.Clear,
		k.Fetch, k.Copy, k.ClearOut, k.Refresh, k.Search, k.Disconnect, k.Cancel,
		k.Help, k.Quit,
	}
}
