package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"sftp-append/internal/appender"
	"sftp-append/internal/config"
	"sftp-append/internal/remote"
	"sftp-append/internal/search"
	"sftp-append/internal/selection"
	"sftp-append/internal/tree"
)

var (
	// ErrNotConnected is returned by operations that need a session.
	ErrNotConnected = errors.New("not connected")
	// ErrNothingSelected is returned by Append on an empty selection.
	ErrNothingSelected = errors.New("no files selected")
)

// Dialer opens a session. remote.Connect is the production dialer.
type Dialer func(ctx context.Context, p remote.Params) (remote.Session, error)

// Options configure a Context.
type Options struct {
	Dialer       Dialer
	RecentsPath  string
	Recents      *config.Config
	SuggestLimit int
	Walk         tree.Options
}

// Context owns everything the application holds between user actions: the
// open session, the directory cache and its tree, the search index, the
// selection, recents and the accumulated output.
//
// Remote I/O runs without the lock held; state is swapped in afterwards so
// the UI can keep reading while a job is in flight. Only one goroutine may
// perform remote operations at a time.
type Context struct {
	mu sync.Mutex

	dial        Dialer
	recentsPath string
	recents     *config.Config
	limit       int
	walkOpts    tree.Options

	params    remote.Params
	session   remote.Session
	cache     *tree.Cache
	tree      *tree.Tree
	index     *search.Index
	selection *selection.Set
	output    strings.Builder
}

// New returns a disconnected Context.
func New(opts Options) *Context {
	if opts.Dialer == nil {
		opts.Dialer = remote.Connect
	}
	if opts.Recents == nil {
		opts.Recents = &config.Config{}
	}
	return &Context{
		dial:        opts.Dialer,
		recentsPath: opts.RecentsPath,
		recents:     opts.Recents,
		limit:       opts.SuggestLimit,
		walkOpts:    opts.Walk,
		selection:   selection.New(),
	}
}

// Connect replaces any open session with a new one, walks the base
// directory and records the connection in recents. The previous session is
// closed first even if the new one fails.
func (c *Context) Connect(ctx context.Context, p remote.Params) error {
	if err := c.Disconnect(); err != nil {
		log.Printf("[app] closing previous session: %v", err)
	}
	if strings.TrimSpace(p.BaseDir) == "" {
		p.BaseDir = "."
	}

	log.Printf("[app] connecting to %s@%s base=%s", p.User, p.Address(), p.BaseDir)
	s, err := c.dial(ctx, p)
	if err != nil {
		return err
	}

	cache, err := tree.Walk(ctx, s, p.BaseDir, c.walkOpts)
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("load %s: %w", p.BaseDir, err)
	}
	t := tree.New(cache)
	if err := t.Attach("", cache.RootListing()); err != nil {
		_ = s.Close()
		return fmt.Errorf("load %s: %w", p.BaseDir, err)
	}

	c.mu.Lock()
	p.Password = ""
	c.params = p
	c.session = s
	c.cache = cache
	c.tree = t
	c.index = search.NewIndex(cache.Files(), c.limit)
	c.recents.AddRecent(config.Recent{Host: p.Host, User: p.User, BaseDir: p.BaseDir})
	recents := c.snapshotRecents()
	c.mu.Unlock()

	c.saveRecents(recents)
	log.Printf("[app] connected: %d cached entries", cache.Len())
	return nil
}

// Disconnect closes the session and drops the cache, tree and index.
// Selection and output are kept.
func (c *Context) Disconnect() error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.cache = nil
	c.tree = nil
	c.index = nil
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	log.Printf("[app] disconnecting from %s", c.Params().Host)
	return s.Close()
}

// Close releases the session at exit.
func (c *Context) Close() error {
	return c.Disconnect()
}

// Connected reports whether a session is open.
func (c *Context) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Params returns the parameters of the current or last connection, without
// the password.
func (c *Context) Params() remote.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Refresh walks the base directory again and rebuilds the tree and index.
// The selection is not validated against the new cache.
func (c *Context) Refresh(ctx context.Context) error {
	c.mu.Lock()
	s, base := c.session, c.params.BaseDir
	c.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}

	cache, err := tree.Walk(ctx, s, base, c.walkOpts)
	if err != nil {
		return err
	}
	t := tree.New(cache)
	if err := t.Attach("", cache.RootListing()); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return ErrNotConnected
	}
	c.cache = cache
	c.tree = t
	c.index = search.NewIndex(cache.Files(), c.limit)
	return nil
}

// Expand toggles the directory at rel, listing it on first expand.
func (c *Context) Expand(ctx context.Context, rel string) error {
	c.mu.Lock()
	s, t := c.session, c.tree
	if t == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if n, ok := t.Node(rel); ok && n.Expanded {
		t.Collapse(rel)
		c.mu.Unlock()
		return nil
	}
	need, err := t.NeedsListing(rel)
	if err != nil || !need {
		if err == nil {
			err = t.Attach(rel, nil)
		}
		c.mu.Unlock()
		return err
	}
	abs := t.Cache().Abs(rel)
	c.mu.Unlock()

	files, err := s.ListDir(ctx, abs)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tree != t {
		return ErrNotConnected
	}
	if err := t.Attach(rel, files); err != nil {
		return err
	}
	c.index = search.NewIndex(c.cache.Files(), c.limit)
	return nil
}

// Rows returns the visible tree rows.
func (c *Context) Rows() []tree.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tree == nil {
		return nil
	}
	return c.tree.Rows()
}

// Lookup returns the cached entry for rel.
func (c *Context) Lookup(rel string) (tree.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return tree.Entry{}, false
	}
	return c.cache.Lookup(rel)
}

// Select adds path to the selection.
func (c *Context) Select(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Add(path)
}

// Unselect removes path from the selection.
func (c *Context) Unselect(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Remove(path)
}

// SelectAll adds every cached file under dir and returns how many were new.
func (c *Context) SelectAll(dir string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return 0
	}
	return c.selection.AddAll(dir, c.cache.Entries())
}

// ClearSelection empties the selection.
func (c *Context) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
}

// Selection returns the selected paths in order.
func (c *Context) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Paths()
}

// Suggest returns search suggestions for query from the current cache.
func (c *Context) Suggest(query string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Suggest(query)
}

// Append reads the selected files and adds the block to the output.
func (c *Context) Append(ctx context.Context) (appender.Result, error) {
	c.mu.Lock()
	s, cache := c.session, c.cache
	paths := c.selection.Paths()
	c.mu.Unlock()

	if s == nil {
		return appender.Result{}, ErrNotConnected
	}
	if len(paths) == 0 {
		return appender.Result{}, ErrNothingSelected
	}

	res := appender.Append(ctx, baseSource{session: s, cache: cache}, paths)
	log.Printf("[app] appended %d sections, %d failed", res.Sections, len(res.Failures))

	c.mu.Lock()
	c.output.WriteString(res.Text)
	c.mu.Unlock()
	return res, nil
}

// Output returns the accumulated appended text.
func (c *Context) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output.String()
}

// ClearOutput discards the accumulated text.
func (c *Context) ClearOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output.Reset()
}

// Recents returns a copy of the recent connections.
func (c *Context) Recents() []config.Recent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]config.Recent, len(c.recents.Recents))
	copy(out, c.recents.Recents)
	return out
}

// RemoveRecent deletes the recent at idx and saves the list.
func (c *Context) RemoveRecent(idx int) {
	c.mu.Lock()
	c.recents.RemoveRecent(idx)
	recents := c.snapshotRecents()
	c.mu.Unlock()
	c.saveRecents(recents)
}

// snapshotRecents copies the recents list. Callers hold c.mu.
func (c *Context) snapshotRecents() *config.Config {
	return &config.Config{Recents: append([]config.Recent(nil), c.recents.Recents...)}
}

func (c *Context) saveRecents(cfg *config.Config) {
	if c.recentsPath == "" {
		return
	}
	if err := config.Save(c.recentsPath, cfg); err != nil {
		log.Printf("[app] failed to save recents: %v", err)
	}
}

// baseSource resolves selected paths against the cache's base directory.
type baseSource struct {
	session remote.Session
	cache   *tree.Cache
}

func (b baseSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return b.session.ReadFile(ctx, b.cache.Abs(path))
}
