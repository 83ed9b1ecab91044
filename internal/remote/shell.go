package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bramvdbogaerde/go-scp"
	"golang.org/x/crypto/ssh"
)

// shellSession serves servers that refuse the sftp subsystem. Listing runs
// `ls -la` and reading goes through scp.
type shellSession struct {
	client *ssh.Client
}

func newShellSession(client *ssh.Client) Session {
	return &shellSession{client: client}
}

func (s *shellSession) ListDir(ctx context.Context, dir string) (files []RemoteFile, retErr error) {
	if s.client == nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: err}
	}
	session, err := s.client.NewSession()
	if err != nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: err}
	}
	defer func() { _ = session.Close() }()

	q := shellQuote(dir)
	cmd := fmt.Sprintf("ls -la --time-style='+%%Y-%%m-%%d %%H:%%M:%%S' %s 2>/dev/null || ls -la %s", q, q)
	out, err := session.Output(cmd)
	if err != nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: err}
	}
	files = parseLS(string(out))
	sortEntries(files)
	return files, nil
}

func (s *shellSession) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if s.client == nil {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: ErrClosed}
	}
	isDir, err := s.isDir(path)
	if err != nil {
		return nil, &Error{Kind: KindRead, Op: "stat", Path: path, Err: err}
	}
	if isDir {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: ErrIsDirectory}
	}

	scpClient, err := scp.NewClientBySSH(s.client)
	if err != nil {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: err}
	}
	defer scpClient.Close()

	var buf bytes.Buffer
	if err := scpClient.CopyFromRemotePassThru(ctx, &buf, path, nil); err != nil {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: err}
	}
	return buf.Bytes(), nil
}

func (s *shellSession) isDir(path string) (bool, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return false, err
	}
	defer func() { _ = session.Close() }()

	err = session.Run("test -d " + shellQuote(path))
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr):
		return false, nil
	default:
		return false, err
	}
}

func (s *shellSession) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// parseLS parses `ls -la` output into RemoteFile entries.
func parseLS(output string) []RemoteFile {
	var files []RemoteFile
	for _, line := range strings.Split(output, "\n") {
		if line == "" || strings.HasPrefix(line, "total") {
			continue
		}
		f := parseLSLine(line)
		if f == nil || f.Name == "." || f.Name == ".." {
			continue
		}
		files = append(files, *f)
	}
	return files
}

// parseLSLine handles both the --time-style form (date and time in two
// fields) and the plain form (month, day, time-or-year in three fields).
func parseLSLine(line string) *RemoteFile {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return nil
	}
	perm := fields[0]

	var modTime time.Time
	nameAt := 8
	if t, err := time.Parse("2006-01-02 15:04:05", fields[5]+" "+fields[6]); err == nil {
		modTime = t
		nameAt = 7
	}
	if len(fields) <= nameAt {
		return nil
	}
	name := strings.Join(fields[nameAt:], " ")

	isLink := perm[0] == 'l'
	if isLink {
		if i := strings.Index(name, " -> "); i >= 0 {
			name = name[:i]
		}
	}

	var size int64
	_, _ = fmt.Sscanf(fields[4], "%d", &size)

	mode := parsePerm(perm)
	if isLink {
		mode |= os.ModeSymlink
	}
	if perm[0] == 'd' {
		mode |= os.ModeDir
	}

	return &RemoteFile{
		Name:    name,
		Size:    size,
		Mode:    mode,
		ModTime: modTime,
		IsDir:   perm[0] == 'd',
		IsLink:  isLink,
	}
}

// shellQuote wraps a path in single quotes and escapes any single quotes within it,
// preventing shell injection when the path is used in a remote command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

func parsePerm(perm string) os.FileMode {
	if len(perm) < 10 {
		return 0
	}
	var mode os.FileMode
	bits := []os.FileMode{0400, 0200, 0100, 0040, 0020, 0010, 0004, 0002, 0001}
	for i, b := range bits {
		if perm[i+1] != '-' {
			mode |= b
		}
	}
	return mode
}
