// Package errs narrows cockroachdb/errors to the operations this codebase
// needs, so call sites stay decoupled from the underlying library.
package errs

import (
	"fmt"
	"strings"

	cockroach "github.com/cockroachdb/errors"
)

func New(msg string) error {
	return cockroach.New(msg)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cockroach.Wrap(err, msg)
}

// Mark attaches markErr as a reference mark: errors.Is(err, markErr) holds
// afterwards while the original chain stays intact for errors.As.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cockroach.Mark(err, markErr)
}

// ExtractStackLines renders the verbose error chain and returns at most
// maxLines non-empty lines, trimmed for structured log output.
func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	lines := make([]string, 0, maxLines)
	for _, line := range strings.Split(fmt.Sprintf("%+v", err), "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if maxLines > 0 && len(lines) == maxLines {
			break
		}
	}
	return lines
}
