package paste

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// Source yields the Markdown payload of a paste.
type Source interface {
	Read(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Read(ctx context.Context) (string, error) { return f(ctx) }

// TextSource is a literal payload.
type TextSource string

func (s TextSource) Read(context.Context) (string, error) { return string(s), nil }

// FileSource reads a file, or Stdin when Path is "-".
type FileSource struct {
	Path  string
	Stdin io.Reader
}

func (s FileSource) Read(ctx context.Context) (string, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return "", fmt.Errorf("empty input source")
	}

	var r io.Reader
	if path == "-" {
		r = s.Stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return trimFinalNewline(string(data)), nil
}

// InputHasData reports whether r is piped input rather than a terminal.
func InputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	if file, ok := r.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) == 0
	}
	return true
}

// ErrNoClipboard is returned when the platform has no clipboard utility.
var ErrNoClipboard = errors.New("no clipboard utility found (install wl-clipboard, xclip or xsel)")

// ClipboardSource reads the system clipboard. The text is returned as is, so
// a trailing newline still produces a trailing blank row.
type ClipboardSource struct {
	unsupported func() bool
	run         func() (string, error)
}

func (s ClipboardSource) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	unsupported := s.unsupported
	if unsupported == nil {
		unsupported = func() bool { return clipboard.Unsupported }
	}
	run := s.run
	if run == nil {
		run = clipboard.ReadAll
	}

	if unsupported() {
		return "", ErrNoClipboard
	}
	text, err := run()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// trimFinalNewline drops one trailing line terminator so a file's final
// newline does not become a blank row.
func trimFinalNewline(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
