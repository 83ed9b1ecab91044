package appender

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"sftp-append/internal/remote"
)

// Source reads one selected file.
type Source interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Failure records a file whose section carries an error marker.
type Failure struct {
	Path string
	Err  error
}

// Result is one appended block.
type Result struct {
	Text     string
	Sections int
	Failures []Failure
}

// Header returns the marker line that opens a file's section.
func Header(path string) string {
	return "=== " + path + " ===\n"
}

// Append reads every path in order and joins the sections. A failing file
// gets an inline marker and the batch continues. Once ctx is done no further
// reads are issued; the remaining files are marked with the context error so
// every path still gets its section.
func Append(ctx context.Context, src Source, paths []string) Result {
	var res Result
	sections := make([]string, 0, len(paths))

	for _, p := range paths {
		var body string
		err := ctx.Err()
		if err == nil {
			var data []byte
			data, err = src.ReadFile(ctx, p)
			body = string(data)
		}

		switch {
		case err == nil:
			sections = append(sections, Header(p)+body+"\n")
		case errors.Is(err, remote.ErrIsDirectory):
			sections = append(sections, Header(p)+"[Directory, skipping]\n")
		default:
			log.Printf("[appender] %s: %v", p, err)
			res.Failures = append(res.Failures, Failure{Path: p, Err: err})
			sections = append(sections, Header(p)+fmt.Sprintf("[Error reading file: %v]\n", err))
		}
	}

	res.Sections = len(sections)
	if len(sections) > 0 {
		res.Text = strings.Join(sections, "\n") + "\n"
	}
	return res
}
