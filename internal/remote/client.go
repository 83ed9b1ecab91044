package remote

import (
	"context"
	"io"
	"log"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// DefaultPort is used when Params.Host carries no port.
const DefaultPort = "22"

// RemoteFile represents a file entry on the remote filesystem.
type RemoteFile struct {
	Name    string
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
	IsLink  bool
}

// Params are the connection form values.
type Params struct {
	Host     string // host or host:port
	User     string
	Password string
	BaseDir  string
}

// Address returns host:port, adding DefaultPort when none was given.
func (p Params) Address() string {
	host := strings.TrimSpace(p.Host)
	if h, port, err := net.SplitHostPort(host); err == nil {
		return net.JoinHostPort(h, port)
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), DefaultPort)
}

// Session is one authenticated remote session.
type Session interface {
	// ListDir returns the children of dir, directories first.
	ListDir(ctx context.Context, dir string) ([]RemoteFile, error)
	// ReadFile returns the exact bytes stored at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Close() error
}

// Connect dials p.Address, authenticates with the password and opens an SFTP
// session. Servers without the sftp subsystem get a shell-backed session.
func Connect(ctx context.Context, p Params) (Session, error) {
	client, err := dial(ctx, p)
	if err != nil {
		return nil, err
	}

	sc, err := sftp.NewClient(client)
	if err != nil {
		log.Printf("[remote] sftp subsystem unavailable on %s, using shell: %v", p.Address(), err)
		return newShellSession(client), nil
	}
	return NewSFTPSession(sc, client), nil
}

// dialTimeout bounds the TCP connect and, separately, the SSH handshake.
var dialTimeout = 10 * time.Second

func clientConfig(p Params) *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            p.User,
		Auth:            []ssh.AuthMethod{ssh.Password(p.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}
}

func dial(ctx context.Context, p Params) (*ssh.Client, error) {
	addr := p.Address()
	cfg := clientConfig(p)

	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Op: "dial", Path: addr, Err: err}
	}

	// Closing the conn is the only way to abort a handshake in progress.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err == nil {
		_ = conn.SetDeadline(time.Time{})
	}
	if !stop() {
		if err == nil {
			_ = c.Close()
		}
		return nil, &Error{Kind: KindConnection, Op: "handshake", Path: addr, Err: ctx.Err()}
	}
	if err != nil {
		_ = conn.Close()
		return nil, &Error{Kind: KindConnection, Op: "handshake", Path: addr, Err: err}
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// sortEntries orders directories first, then names case-insensitively.
func sortEntries(files []RemoteFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
}

// await runs fn on its own goroutine and returns early with ctx.Err() once
// ctx is done. pkg/sftp calls take no context; an abandoned call finishes
// when the session is closed.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ctxReader stops a long read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
