package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/api"
	"github.com/salmonumbrella/mdoutline/internal/config"
	"github.com/salmonumbrella/mdoutline/internal/markdown"
	"github.com/salmonumbrella/mdoutline/internal/outline"
	"github.com/salmonumbrella/mdoutline/internal/output"
	"github.com/salmonumbrella/mdoutline/internal/paste"
)

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Paste Markdown as outline notes",
	Long: `Convert Markdown into outline notes.

Without --note or --page, every top-level heading ("# Title") starts a new
note and text before the first heading goes into a note titled
"New Note". Text without any top-level heading becomes one note titled
"Imported Note". With --note or --page, the whole payload is appended to
that note after its last top-level item.

The payload comes from --markdown, --file, --clipboard, or piped stdin, and
falls back to the system clipboard.

Examples:
  mdoutline paste                          # from the clipboard
  mdoutline paste -f notes.md
  cat notes.md | mdoutline paste --title "Meeting"
  mdoutline paste -m "- [ ] follow up" --page "Inbox"
  mdoutline paste --backend roam --batch -f notes.md
  mdoutline paste --dry-run -f notes.md`,
	Args: cobra.NoArgs,
	RunE: runPaste,
}

// importFlags configure the conversion for paste and preview.
type importFlags struct {
	title       string
	frontMatter bool
	language    string
}

func (f *importFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title for notes that have no heading of their own")
	cmd.Flags().BoolVar(&f.frontMatter, "front-matter", false, "Strip YAML/TOML front matter and use its title")
	cmd.Flags().StringVar(&f.language, "language", "", "Language for code fences without one (default: plaintext)")
}

var (
	pasteInput          sourceFlags
	pasteImport         importFlags
	pasteNote           string
	pastePage           string
	pasteSkipDuplicates bool
	pasteDryRun         bool
	pasteBatch          bool
)

func init() {
	pasteInput.register(pasteCmd)
	pasteImport.register(pasteCmd)
	pasteCmd.Flags().StringVar(&pasteNote, "note", "", "Append to the note with this id")
	pasteCmd.Flags().StringVar(&pastePage, "page", "", "Append to the note with this title")
	pasteCmd.Flags().BoolVar(&pasteSkipDuplicates, "skip-duplicates", false, "Skip sections imported before (sqlite backend)")
	pasteCmd.Flags().BoolVar(&pasteDryRun, "dry-run", false, "Convert into memory and print the result without writing")
	pasteCmd.Flags().BoolVar(&pasteBatch, "batch", false, "Send Roam writes as one batch per note")

	rootCmd.AddCommand(pasteCmd)
}

// pasteOutput is the structured result of a paste.
type pasteOutput struct {
	paste.Result `yaml:",inline"`
	Backend string        `json:"backend"`
	Preview []previewNote `json:"preview,omitempty"`
}

func runPaste(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if pasteNote != "" && pastePage != "" {
		return fmt.Errorf("use only one of --note or --page")
	}

	src, err := pasteInput.source(cmd)
	if err != nil {
		return err
	}

	opts := notebookOptions{Batch: pasteBatch}
	if pasteDryRun {
		opts.Backend = config.BackendMemory
	}
	handle, err := openNotebookFunc(cmd, opts)
	if err != nil {
		return err
	}
	defer handle.Close()

	target, err := resolveTarget(ctx, handle.Notebook, pasteNote, pastePage)
	if err != nil {
		return err
	}

	im := newImporter(ctx, src, handle.Notebook, pasteImport)
	im.Target = target
	im.SkipDuplicates = pasteSkipDuplicates

	result, err := im.Run(ctx)
	if err != nil {
		return err
	}
	if result.Outcome == paste.OutcomeEmpty {
		return paste.ErrEmptyInput
	}

	out := pasteOutput{Result: result, Backend: handle.Backend}
	if mem, ok := handle.Notebook.(*outline.MemoryNotebook); ok {
		out.Preview = previewNotes(mem)
	}

	if structuredOutputRequested() {
		return printStructured(out)
	}
	printPasteResult(out)
	return nil
}

// newImporter builds an importer from the shared conversion flags.
func newImporter(ctx context.Context, src paste.Source, nb outline.Notebook, flags importFlags) *paste.Importer {
	logger := loggerFromContext(ctx)
	language := strings.TrimSpace(flags.language)
	if language == "" && loadedConfig != nil {
		language = strings.TrimSpace(loadedConfig.CodeLanguage)
	}

	im := &paste.Importer{
		Source:      src,
		Notebook:    nb,
		Builder:     markdown.Builder{DefaultLanguage: language, Logger: logger},
		Title:       strings.TrimSpace(flags.title),
		FrontMatter: flags.frontMatter,
		Logger:      logger,
	}
	if !output.QuietFromContext(ctx) {
		// Failures reach the user through the command error.
		im.Notifier = paste.WriterNotifier{W: stderrFromContext(ctx), InfoOnly: true}
	}
	return im
}

// resolveTarget opens the note to append to. Both ids empty means no
// target.
func resolveTarget(ctx context.Context, nb outline.Notebook, id, title string) (outline.Record, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	switch {
	case id == "" && title == "":
		return nil, nil
	case id == "":
		finder, ok := nb.(outline.RecordFinder)
		if !ok {
			// Notebooks without lookup address records by title.
			id = title
			break
		}
		found, err := finder.FindRecord(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("find note %q: %w", title, err)
		}
		if found == "" {
			return nil, api.NotFoundError{Message: fmt.Sprintf("note not found: %s", title)}
		}
		id = found
	}

	record, err := nb.Record(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open note %s: %w", id, err)
	}
	if record == nil {
		return nil, api.NotFoundError{Message: fmt.Sprintf("note not found: %s", id)}
	}
	return record, nil
}

func printPasteResult(out pasteOutput) {
	w := stdout()
	switch out.Outcome {
	case paste.OutcomeAppended:
		fmt.Fprintf(w, "Appended %d item(s) to %s\n", out.Stats.Created, out.Target)
	default:
		fmt.Fprintf(w, "Created %d note(s) with %d item(s)\n", len(out.Notes), out.Stats.Created)
		for _, id := range out.Notes {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	if out.Stats.Dropped > 0 {
		fmt.Fprintf(w, "Dropped %d line(s)\n", out.Stats.Dropped)
	}
	for _, title := range out.Skipped {
		fmt.Fprintf(w, "Skipped: %s\n", title)
	}
	for _, title := range out.Duplicates {
		fmt.Fprintf(w, "Duplicate: %s\n", title)
	}
	if len(out.Preview) > 0 {
		fmt.Fprintln(w)
		writeTree(w, out.Preview)
	}
}
