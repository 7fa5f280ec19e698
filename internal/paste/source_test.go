package paste

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSourceReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("  - indented\nlast\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := FileSource{Path: path}.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "  - indented\nlast" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestFileSourceReadsStdin(t *testing.T) {
	got, err := FileSource{Path: "-", Stdin: strings.NewReader("a\r\n\r\n")}.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "a\r\n" {
		t.Fatalf("expected one line terminator removed, got %q", got)
	}
}

func TestFileSourceErrors(t *testing.T) {
	if _, err := (FileSource{}).Read(context.Background()); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := (FileSource{Path: filepath.Join(t.TempDir(), "missing.md")}).Read(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestClipboardSourceKeepsTrailingNewline(t *testing.T) {
	src := ClipboardSource{
		unsupported: func() bool { return false },
		run:         func() (string, error) { return "# Clip\nbody\n", nil },
	}

	got, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "# Clip\nbody\n" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestClipboardSourceUnsupported(t *testing.T) {
	called := false
	src := ClipboardSource{
		unsupported: func() bool { return true },
		run: func() (string, error) {
			called = true
			return "", nil
		},
	}
	if _, err := src.Read(context.Background()); !errors.Is(err, ErrNoClipboard) {
		t.Fatalf("expected ErrNoClipboard, got %v", err)
	}
	if called {
		t.Fatal("clipboard should not be read when unsupported")
	}
}

func TestClipboardSourceReadError(t *testing.T) {
	boom := errors.New("boom")
	src := ClipboardSource{
		unsupported: func() bool { return false },
		run:         func() (string, error) { return "", boom },
	}
	_, err := src.Read(context.Background())
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "read clipboard:") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClipboardSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := ClipboardSource{run: func() (string, error) { return "x", nil }}
	if _, err := src.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := WriterNotifier{W: &buf, InfoOnly: true}

	n.Notify(Notice{Level: LevelInfo, Title: "Import Complete", Message: "Created 1 note from clipboard."})
	n.Notify(Notice{Level: LevelError, Title: "Paste Failed", Message: "boom"})

	if got := buf.String(); got != "Import Complete: Created 1 note from clipboard.\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}
