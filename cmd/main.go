package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"sftp-append/internal/app"
	"sftp-append/internal/config"
	"sftp-append/internal/remote"
	"sftp-append/internal/task"
	"sftp-append/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// appState represents which screen is shown.
type appState int

const (
	stateConnection appState = iota
	stateMain
)

// connectedMsg is sent when a connection attempt completes.
type connectedMsg struct {
	params remote.Params
	err    error
}

// disconnectedMsg is sent once the session has been closed.
type disconnectedMsg struct {
	err error
}

// AppModel is the root application model.
type AppModel struct {
	state     appState
	width     int
	height    int
	app       *app.Context
	runner    *task.Runner
	connModel ui.ConnectionModel
	browser   ui.BrowserModel
	showHelp  bool
}

func newAppModel(d config.Defaults, dial app.Dialer) AppModel {
	cfg, err := config.Load(d.RecentsPath)
	if err != nil {
		log.Printf("[AppModel] load recents %s: %v", d.RecentsPath, err)
		cfg = &config.Config{}
	}
	a := app.New(app.Options{
		Dialer:      dial,
		RecentsPath: d.RecentsPath,
		Recents:     cfg,
	})
	return AppModel{
		state:     stateConnection,
		app:       a,
		runner:    task.NewRunner(),
		connModel: ui.NewConnectionModel(d, a.Recents()),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.connModel.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.connModel, cmd = m.connModel.Update(msg)
		if m.state == stateMain {
			m.browser.SetDimensions(m.width, m.height)
		}
		return m, cmd

	case ui.ConnectMsg:
		p := msg.Params
		m.connModel.SetConnecting(fmt.Sprintf("%s@%s", p.User, p.Address()))
		a := m.app
		return m, m.runner.Do(func(ctx context.Context) tea.Msg {
			return connectedMsg{params: p, err: a.Connect(ctx, p)}
		})

	case connectedMsg:
		m.connModel.SetRecents(m.app.Recents())
		if msg.err != nil {
			log.Printf("[AppModel] connect %s@%s: %v", msg.params.User, msg.params.Host, msg.err)
			if errors.Is(msg.err, context.Canceled) {
				m.connModel.ClearConnecting()
				m.connModel.SetError("Connection cancelled")
			} else {
				m.connModel.SetError("Connection failed: " + msg.err.Error())
			}
			return m, nil
		}
		log.Printf("[AppModel] connected: %s@%s base=%s", msg.params.User, msg.params.Host, msg.params.BaseDir)
		m.connModel.ClearConnecting()
		m.connModel.ClearPassword()
		m.browser = ui.NewBrowserModel(m.app, m.runner)
		m.browser.SetDimensions(m.width, m.height)
		m.state = stateMain
		return m, m.browser.Init()

	case ui.CancelConnectMsg:
		m.runner.Cancel()
		return m, nil

	case ui.RemoveRecentMsg:
		m.app.RemoveRecent(msg.Index)
		m.connModel.SetRecents(m.app.Recents())
		return m, nil

	case ui.DisconnectMsg:
		a := m.app
		return m, m.runner.Do(func(ctx context.Context) tea.Msg {
			return disconnectedMsg{err: a.Disconnect()}
		})

	case disconnectedMsg:
		if msg.err != nil {
			log.Printf("[AppModel] disconnect: %v", msg.err)
		}
		m.state = stateConnection
		m.showHelp = false
		m.connModel.SetRecents(m.app.Recents())
		return m, m.connModel.Init()

	case task.ErrMsg:
		if m.state == stateConnection {
			m.connModel.SetError(msg.Err.Error())
			return m, nil
		}

	case tea.KeyMsg:
		log.Printf("[AppModel] key: type=%d string=%q state=%d", msg.Type, msg.String(), m.state)

		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.showHelp {
			if msg.String() == "?" || msg.Type == tea.KeyEsc {
				m.showHelp = false
			}
			return m, nil
		}
		if msg.String() == "?" && m.state == stateMain && !m.browser.CapturesInput() {
			m.showHelp = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case stateConnection:
		m.connModel, cmd = m.connModel.Update(msg)
	case stateMain:
		m.browser, cmd = m.browser.Update(msg)
	}
	return m, cmd
}

func (m AppModel) View() string {
	if m.showHelp {
		return ui.RenderHelp(m.width, m.height)
	}
	switch m.state {
	case stateConnection:
		return m.connModel.View()
	case stateMain:
		return m.browser.View()
	}
	return ""
}

// cleanup closes the session, then stops background work. Closing first
// unblocks a job stuck in a remote call that ignores its context.
func (m AppModel) cleanup() {
	if err := m.app.Close(); err != nil {
		log.Printf("close session: %v", err)
	}
	m.runner.Close()
	// A connect that completed while the runner stopped leaves a session.
	if err := m.app.Close(); err != nil {
		log.Printf("close session: %v", err)
	}
}

// logPath returns the path for the debug log file.
// When running from the project directory (go run / ./bin/sftp-append), logs
// go to .logs/debug.log. When installed, logs go to
// ~/.local/state/sftp-append/debug.log following XDG conventions.
func logPath() string {
	exe, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exe)
		cwd, _ := os.Getwd()
		if strings.HasPrefix(exeDir, cwd) || strings.Contains(exeDir, "go-build") {
			dir := filepath.Join(cwd, ".logs")
			_ = os.MkdirAll(dir, 0o755)
			return filepath.Join(dir, "debug.log")
		}
	}
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateDir, "sftp-append")
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "debug.log")
}

func newRootCmd() *cobra.Command {
	d := config.DefaultsFromEnv()
	var logFile string

	cmd := &cobra.Command{
		Use:   "sftp-append",
		Short: "Pick files on a remote host over SFTP and append them into one text block",
		Long: `sftp-append connects to a remote host over SSH, caches the directory tree
under a base directory and lets you pick files from the tree or by search.
The selected files are fetched and appended into a single block of text with
a "=== path ===" header per file, ready to copy to the clipboard.

Form defaults come from ` + config.EnvHost + `, ` + config.EnvUser + `,
` + config.EnvBaseDir + ` and ` + config.EnvRecents + `; flags override them.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(d, logFile)
		},
	}

	f := cmd.Flags()
	f.StringVar(&d.Host, "host", d.Host, "remote host, optionally host:port")
	f.StringVarP(&d.User, "user", "u", d.User, "SSH username")
	f.StringVarP(&d.BaseDir, "base-dir", "d", d.BaseDir, "remote base directory to browse")
	f.StringVar(&d.RecentsPath, "recents", d.RecentsPath, "file holding recent connections")
	f.StringVar(&logFile, "log", "", "debug log file (default .logs/debug.log or $XDG_STATE_HOME/sftp-append/debug.log)")
	return cmd
}

func run(d config.Defaults, logFile string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("sftp-append needs an interactive terminal on stdout")
	}
	if logFile == "" {
		logFile = logPath()
	}
	f, err := tea.LogToFile(logFile, "debug")
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer func() { _ = f.Close() }()
	log.Printf("=== sftp-append starting (log: %s) ===", logFile)

	model := newAppModel(d, remote.Connect)
	defer model.cleanup()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
