package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"unicode/utf8"

	"sftp-append/internal/app"
	"sftp-append/internal/appender"
	"sftp-append/internal/search"
	"sftp-append/internal/task"
	"sftp-append/internal/tree"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DisconnectMsg asks the app to close the session and return to the
// connection screen.
type DisconnectMsg struct{}

type expandedMsg struct {
	path string
	err  error
}

type refreshedMsg struct {
	err error
}

type appendedMsg struct {
	res appender.Result
	err error
}

type copiedMsg struct {
	err error
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

type browserPane int

const (
	paneTree browserPane = iota
	paneSearch
	paneSelection
	paneOutput
	browserPaneCount
)

// BrowserModel is the main screen: the remote tree, the search box with its
// suggestions, the selection list and the appended output.
type BrowserModel struct {
	app    *app.Context
	runner *task.Runner

	focus      browserPane
	rows       []tree.Row
	treeCursor int

	search      textinput.Model
	suggestions []string
	suggestIdx  int // -1 until a suggestion is chosen with the arrows

	selCursor int
	output    viewport.Model

	width     int
	height    int
	pending   int
	statusMsg string
}

// NewBrowserModel creates the browser over a connected app context.
func NewBrowserModel(a *app.Context, r *task.Runner) BrowserModel {
	ti := textinput.New()
	ti.Placeholder = "type to search cached paths"
	ti.CharLimit = 1024
	ti.Prompt = "/ "

	m := BrowserModel{
		app:        a,
		runner:     r,
		search:     ti,
		suggestIdx: -1,
		output:     viewport.New(0, 0),
	}
	m.rows = a.Rows()
	m.output.SetContent(a.Output())
	return m
}

// SetDimensions sets the width and height for the browser.
func (m *BrowserModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	outW, outH := m.outputSize()
	m.output.Width = outW
	m.output.Height = outH
	m.search.Width = max(m.width/2-10, 10)
}

// CapturesInput reports whether the search box is taking keystrokes.
func (m BrowserModel) CapturesInput() bool {
	return m.focus == paneSearch
}

// Busy reports whether remote work is queued or running.
func (m BrowserModel) Busy() bool {
	return m.pending > 0
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

func (m BrowserModel) Update(msg tea.Msg) (BrowserModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case expandedMsg:
		m.pending--
		switch {
		case errIsCancel(msg.err):
			m.statusMsg = "Cancelled"
		case msg.err != nil:
			log.Printf("[BrowserModel] expand %s: %v", msg.path, msg.err)
			m.statusMsg = "Error: " + msg.err.Error()
		}
		m.syncRows()
		return m, nil

	case refreshedMsg:
		m.pending--
		if errIsCancel(msg.err) {
			m.statusMsg = "Refresh cancelled"
		} else if msg.err != nil {
			m.statusMsg = "Refresh failed: " + msg.err.Error()
		} else {
			m.statusMsg = "Directory cache reloaded"
			m.treeCursor = 0
		}
		m.syncRows()
		m.updateSuggestions()
		return m, nil

	case appendedMsg:
		m.pending--
		switch {
		case msg.err != nil:
			m.statusMsg = "Fetch failed: " + msg.err.Error()
		case len(msg.res.Failures) > 0:
			m.statusMsg = fmt.Sprintf("Appended %d files, %d failed", msg.res.Sections, len(msg.res.Failures))
		default:
			m.statusMsg = fmt.Sprintf("Appended %d files", msg.res.Sections)
		}
		m.output.SetContent(m.app.Output())
		m.output.GotoBottom()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.statusMsg = "Copy failed: " + msg.err.Error()
		} else {
			m.statusMsg = "Copied to clipboard!"
		}
		return m, nil

	case task.ErrMsg:
		m.pending--
		m.statusMsg = "Error: " + msg.Err.Error()
		m.syncRows()
		return m, nil

	case tea.KeyMsg:
		if m.focus == paneSearch {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	if m.focus == paneOutput {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m BrowserModel) updateKeys(msg tea.KeyMsg) (BrowserModel, tea.Cmd) {
	k := browserKeys
	switch {
	case key.Matches(msg, k.NextPane):
		m.setFocus((m.focus + 1) % browserPaneCount)
	case key.Matches(msg, k.PrevPane):
		m.setFocus((m.focus + browserPaneCount - 1) % browserPaneCount)
	case key.Matches(msg, k.Search):
		m.setFocus(paneSearch)
		return m, textinput.Blink
	case key.Matches(msg, k.Cancel):
		if m.Busy() {
			m.runner.Cancel()
			m.statusMsg = "Cancelling…"
		}
	case key.Matches(msg, k.Disconnect):
		return m, func() tea.Msg { return DisconnectMsg{} }
	case key.Matches(msg, k.Fetch):
		return m, m.fetch()
	case key.Matches(msg, k.Copy):
		return m, m.copyOutput()
	case key.Matches(msg, k.ClearOut):
		m.app.ClearOutput()
		m.output.SetContent("")
		m.statusMsg = "Output cleared"
	case key.Matches(msg, k.Refresh):
		m.statusMsg = "Reloading directory cache…"
		return m, m.do(func(ctx context.Context) tea.Msg {
			return refreshedMsg{err: m.app.Refresh(ctx)}
		})
	case key.Matches(msg, k.Clear):
		m.app.ClearSelection()
		m.selCursor = 0
		m.statusMsg = "Selection cleared"
	default:
		switch m.focus {
		case paneTree:
			return m.updateTree(msg)
		case paneSelection:
			m.updateSelection(msg)
		case paneOutput:
			var cmd tea.Cmd
			m.output, cmd = m.output.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m BrowserModel) updateTree(msg tea.KeyMsg) (BrowserModel, tea.Cmd) {
	k := browserKeys
	switch {
	case key.Matches(msg, k.Up):
		if m.treeCursor > 0 {
			m.treeCursor--
		}
	case key.Matches(msg, k.Down):
		if m.treeCursor < len(m.rows)-1 {
			m.treeCursor++
		}
	case key.Matches(msg, k.Enter):
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		if row.IsDir && !row.IsLink {
			p := row.Path
			return m, m.do(func(ctx context.Context) tea.Msg {
				return expandedMsg{path: p, err: m.app.Expand(ctx, p)}
			})
		}
		m.add(row.Path)
	case key.Matches(msg, k.AddAll):
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		dir := row.Path
		if !row.IsDir || row.IsLink {
			dir = parentDir(row.Path)
		}
		n := m.app.SelectAll(dir)
		m.statusMsg = fmt.Sprintf("Added %d files from %s", n, displayDir(dir))
	case key.Matches(msg, k.Remove):
		if row, ok := m.currentRow(); ok && m.app.Unselect(row.Path) {
			m.statusMsg = "Removed " + row.Path
			m.clampSelCursor()
		}
	}
	return m, nil
}

func (m *BrowserModel) updateSelection(msg tea.KeyMsg) {
	k := browserKeys
	sel := m.app.Selection()
	switch {
	case key.Matches(msg, k.Up):
		if m.selCursor > 0 {
			m.selCursor--
		}
	case key.Matches(msg, k.Down):
		if m.selCursor < len(sel)-1 {
			m.selCursor++
		}
	case key.Matches(msg, k.Remove):
		if m.selCursor < len(sel) {
			m.app.Unselect(sel[m.selCursor])
			m.statusMsg = "Removed " + sel[m.selCursor]
			m.clampSelCursor()
		}
	}
}

func (m BrowserModel) updateSearch(msg tea.KeyMsg) (BrowserModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.setFocus(paneTree)
		return m, nil
	case tea.KeyTab:
		m.setFocus(paneSelection)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus(paneTree)
		return m, nil
	case tea.KeyUp:
		if m.suggestIdx >= 0 {
			m.suggestIdx--
		}
		return m, nil
	case tea.KeyDown:
		if m.suggestIdx < len(m.suggestions)-1 {
			m.suggestIdx++
		}
		return m, nil
	case tea.KeyEnter:
		p := strings.TrimSpace(m.search.Value())
		if m.suggestIdx >= 0 && m.suggestIdx < len(m.suggestions) {
			p = m.suggestions[m.suggestIdx]
		}
		if p == "" {
			return m, nil
		}
		m.add(p)
		m.search.SetValue("")
		m.updateSuggestions()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.suggestIdx = -1
	}
	m.updateSuggestions()
	return m, cmd
}

// do submits job to the runner and counts it as pending.
func (m *BrowserModel) do(job task.Job) tea.Cmd {
	m.pending++
	return m.runner.Do(job)
}

func (m *BrowserModel) fetch() tea.Cmd {
	n := len(m.app.Selection())
	if n == 0 {
		m.statusMsg = "No files selected!"
		return nil
	}
	m.statusMsg = fmt.Sprintf("Fetching %d files…", n)
	return m.do(func(ctx context.Context) tea.Msg {
		res, err := m.app.Append(ctx)
		return appendedMsg{res: res, err: err}
	})
}

func (m *BrowserModel) copyOutput() tea.Cmd {
	text := m.app.Output()
	if strings.TrimSpace(text) == "" {
		m.statusMsg = "No text to copy!"
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(text)}
	}
}

func (m *BrowserModel) add(p string) {
	if m.app.Select(p) {
		m.statusMsg = "Added " + p
	} else {
		m.statusMsg = p + " is already selected"
	}
}

func (m *BrowserModel) setFocus(p browserPane) {
	m.focus = p
	if p == paneSearch {
		m.search.Focus()
	} else {
		m.search.Blur()
	}
}

func (m *BrowserModel) syncRows() {
	m.rows = m.app.Rows()
	if m.treeCursor >= len(m.rows) {
		m.treeCursor = max(len(m.rows)-1, 0)
	}
}

func (m *BrowserModel) updateSuggestions() {
	m.suggestions = m.app.Suggest(m.search.Value())
	if m.suggestIdx >= len(m.suggestions) {
		m.suggestIdx = len(m.suggestions) - 1
	}
}

func (m *BrowserModel) clampSelCursor() {
	if n := len(m.app.Selection()); m.selCursor >= n {
		m.selCursor = max(n-1, 0)
	}
}

func (m BrowserModel) currentRow() (tree.Row, bool) {
	if m.treeCursor < 0 || m.treeCursor >= len(m.rows) {
		return tree.Row{}, false
	}
	return m.rows[m.treeCursor], true
}

func parentDir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

func displayDir(dir string) string {
	if dir == "" {
		return "base directory"
	}
	return dir + "/"
}

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	activePanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("#7D56F4"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#7D56F4")).
			Foreground(lipgloss.Color("#FFFFFF"))

	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#56D1F4")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C792EA"))

	pickedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAAA")).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#444444"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

// layout returns the heights of the upper panes and the output pane.
func (m BrowserModel) layout() (topH, searchH, selH, outH int) {
	avail := max(m.height-2, 12)
	outH = max(avail/3, 6)
	topH = avail - outH
	searchH = min(max(topH/2, 6), 5+search.DefaultLimit)
	selH = topH - searchH
	return
}

func (m BrowserModel) outputSize() (int, int) {
	_, _, _, outH := m.layout()
	return max(m.width-4, 10), max(outH-4, 1)
}

func (m BrowserModel) renderTree(w, h int) string {
	style := panelStyle
	if m.focus == paneTree {
		style = activePanelStyle
	}
	header := headerStyle.Width(w - 4).Render(truncatePath("Remote: "+m.app.Params().BaseDir, w-4))

	picked := make(map[string]bool)
	for _, p := range m.app.Selection() {
		picked[p] = true
	}

	visible := max(h-4, 1)
	start := 0
	if m.treeCursor >= visible {
		start = m.treeCursor - visible + 1
	}
	var lines []string
	for i := start; i < len(m.rows) && i < start+visible; i++ {
		r := m.rows[i]
		indent := strings.Repeat("  ", r.Depth)
		name := r.Name()
		var line string
		switch {
		case r.IsLink:
			line = linkStyle.Render(indent + "  " + name + " →")
		case r.IsDir:
			marker := "▸ "
			if r.Expanded {
				marker = "▾ "
			}
			line = dirStyle.Render(indent + marker + name + "/")
		case picked[r.Path]:
			line = pickedStyle.Render(indent + "✓ " + name)
		default:
			line = fileStyle.Render(indent + "  " + name)
		}
		if i == m.treeCursor {
			line = cursorStyle.Width(w - 4).Render(line)
		}
		lines = append(lines, line)
	}
	if len(m.rows) == 0 {
		lines = append(lines, statusBarStyle.Render("(empty)"))
	}
	return style.Width(w).Height(h).Render(header + "\n" + strings.Join(lines, "\n"))
}

func (m BrowserModel) renderSearch(w, h int) string {
	style := panelStyle
	if m.focus == paneSearch {
		style = activePanelStyle
	}
	lines := []string{headerStyle.Width(w - 4).Render("Search"), m.search.View()}
	for i, s := range m.suggestions {
		line := "  " + truncatePath(s, w-8)
		if m.focus == paneSearch && i == m.suggestIdx {
			line = cursorStyle.Width(w - 4).Render(line)
		}
		lines = append(lines, line)
	}
	return style.Width(w).Height(h).Render(strings.Join(lines, "\n"))
}

func (m BrowserModel) renderSelection(w, h int) string {
	style := panelStyle
	if m.focus == paneSelection {
		style = activePanelStyle
	}
	sel := m.app.Selection()
	header := headerStyle.Width(w - 4).Render(fmt.Sprintf("Selected (%d)", len(sel)))

	visible := max(h-4, 1)
	start := 0
	if m.selCursor >= visible {
		start = m.selCursor - visible + 1
	}
	var lines []string
	for i := start; i < len(sel) && i < start+visible; i++ {
		line := fileStyle.Render(truncatePath(sel[i], w-6))
		if m.focus == paneSelection && i == m.selCursor {
			line = cursorStyle.Width(w - 4).Render(line)
		}
		lines = append(lines, line)
	}
	return style.Width(w).Height(h).Render(header + "\n" + strings.Join(lines, "\n"))
}

func (m BrowserModel) renderOutput(w, h int) string {
	style := panelStyle
	if m.focus == paneOutput {
		style = activePanelStyle
	}
	header := headerStyle.Width(w - 4).Render(fmt.Sprintf("Output (%d bytes)", len(m.app.Output())))
	return style.Width(w).Height(h).Render(header + "\n" + m.output.View())
}

func (m BrowserModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	topH, searchH, selH, outH := m.layout()
	leftW := m.width/2 - 2
	rightW := m.width - leftW - 4

	left := m.renderTree(leftW, topH-2)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSearch(rightW, searchH-2),
		m.renderSelection(rightW, selH-2),
	)
	top := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	out := m.renderOutput(m.width-2, outH-2)

	status := m.statusMsg
	if m.Busy() {
		status = "⟳ " + status
	}
	statusLine := statusBarStyle.Render(truncate(
		" Tab: pane • Enter: open/add • a: add all • f: fetch • y: copy • ?: help | "+status, max(m.width, 10)))

	p := m.app.Params()
	bar := renderPaneBar(SessionTitle(p.User, p.Host, p.BaseDir), m.app.Connected(),
		m.focus, len(m.app.Selection()), m.width)

	return lipgloss.JoinVertical(lipgloss.Left, bar, top, out, statusLine)
}

// SelectedPath returns the tree row under the cursor.
func (m BrowserModel) SelectedPath() string {
	if row, ok := m.currentRow(); ok {
		return row.Path
	}
	return ""
}

// errIsCancel reports whether err came from a cancelled job.
func errIsCancel(err error) bool {
	return errors.Is(err, context.Canceled)
}

func truncate(s string, n int) string {
	if n < 1 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func truncatePath(s string, n int) string {
	if n < 1 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return "…" + string(r[len(r)-n+1:])
}
