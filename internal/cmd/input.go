package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/paste"
)

// sourceFlags are the payload flags shared by paste, preview and split.
type sourceFlags struct {
	markdown  string
	file      string
	clipboard bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.markdown, "markdown", "m", "", "Markdown text to paste")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read Markdown from file (use - for stdin)")
	cmd.Flags().BoolVar(&f.clipboard, "clipboard", false, "Read Markdown from the system clipboard")
}

func (f *sourceFlags) reset() {
	*f = sourceFlags{}
}

// source picks the payload: --markdown, --file, --clipboard, piped stdin,
// then the clipboard.
func (f *sourceFlags) source(cmd *cobra.Command) (paste.Source, error) {
	set := 0
	for _, name := range []string{"markdown", "file", "clipboard"} {
		if cmd.Flags().Changed(name) {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("use only one of --markdown, --file or --clipboard")
	}

	stdin := stdinFromContext(cmd.Context())
	switch {
	case cmd.Flags().Changed("markdown"):
		return paste.TextSource(f.markdown), nil
	case cmd.Flags().Changed("file"):
		return paste.FileSource{Path: f.file, Stdin: stdin}, nil
	case !f.clipboard && paste.InputHasData(stdin):
		return paste.FileSource{Path: "-", Stdin: stdin}, nil
	default:
		return paste.SourceFunc(readClipboardFunc), nil
	}
}

// readInputSource reads content from a file path or stdin when source is "-".
func readInputSource(source string, stdin io.Reader) (string, error) {
	text, err := paste.FileSource{Path: source, Stdin: stdin}.Read(context.Background())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
