package remote

import (
	"errors"
	"fmt"
)

// Kind classifies a remote failure.
type Kind int

const (
	KindConnection Kind = iota
	KindList
	KindRead
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindList:
		return "list"
	case KindRead:
		return "read"
	}
	return "unknown"
}

// ErrIsDirectory is returned by ReadFile when the path names a directory.
var ErrIsDirectory = errors.New("is a directory")

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Error is returned by every Session operation and by Connect.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err wraps a remote Error of kind k.
func IsKind(err error, k Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == k
}
