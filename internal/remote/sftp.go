package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"
)

type sftpSession struct {
	client  *sftp.Client
	closers []io.Closer
}

// NewSFTPSession wraps an SFTP client. The extra closers (usually the SSH
// connection beneath it) are closed after the client, in order.
func NewSFTPSession(client *sftp.Client, closers ...io.Closer) Session {
	return &sftpSession{client: client, closers: closers}
}

func (s *sftpSession) ListDir(ctx context.Context, dir string) ([]RemoteFile, error) {
	if s.client == nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: err}
	}
	client := s.client
	infos, err := await(ctx, func() ([]os.FileInfo, error) { return client.ReadDir(dir) })
	if err != nil {
		return nil, &Error{Kind: KindList, Op: "list", Path: dir, Err: err}
	}
	files := make([]RemoteFile, 0, len(infos))
	for _, fi := range infos {
		if fi.Name() == "." || fi.Name() == ".." {
			continue
		}
		files = append(files, RemoteFile{
			Name:    fi.Name(),
			Size:    fi.Size(),
			Mode:    fi.Mode(),
			ModTime: fi.ModTime(),
			IsDir:   fi.IsDir(),
			IsLink:  fi.Mode()&os.ModeSymlink != 0,
		})
	}
	sortEntries(files)
	return files, nil
}

func (s *sftpSession) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if s.client == nil {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: err}
	}
	client := s.client
	data, err := await(ctx, func() ([]byte, error) { return readFile(ctx, client, path) })
	var rErr *Error
	if err != nil && !errors.As(err, &rErr) {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: err}
	}
	return data, err
}

func readFile(ctx context.Context, client *sftp.Client, path string) (data []byte, retErr error) {
	fi, err := client.Stat(path)
	if err != nil {
		return nil, &Error{Kind: KindRead, Op: "stat", Path: path, Err: err}
	}
	if fi.IsDir() {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: ErrIsDirectory}
	}

	f, err := client.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindRead, Op: "open", Path: path, Err: err}
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && retErr == nil {
			retErr = &Error{Kind: KindRead, Op: "close", Path: path, Err: cErr}
		}
	}()

	data, err = io.ReadAll(ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, &Error{Kind: KindRead, Op: "read", Path: path, Err: err}
	}
	return data, nil
}

func (s *sftpSession) Close() error {
	if s.client == nil {
		return nil
	}
	var errs []error
	if err := s.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sftp client: %w", err))
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	s.client = nil
	return errors.Join(errs...)
}
