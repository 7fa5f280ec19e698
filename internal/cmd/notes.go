package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/api"
	"github.com/salmonumbrella/mdoutline/internal/markdown"
	"github.com/salmonumbrella/mdoutline/internal/outline"
	"github.com/salmonumbrella/mdoutline/internal/output"
	"github.com/salmonumbrella/mdoutline/internal/store"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect pasted notes",
	Long: `List, show and delete notes in the configured notebook.

list needs the sqlite backend; show and delete also work with roam, where
the note id is the page uid.`,
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE:  runNotesList,
}

var notesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a note's outline",
	Long: `Show a note's line items.

Examples:
  mdoutline notes show 6f1c...
  mdoutline notes show 6f1c... --as markdown
  mdoutline notes show abc123XYZ --backend roam -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runNotesShow,
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Long: `Delete a note and all of its line items.

This action is destructive and cannot be undone. Use the --yes flag
to skip the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runNotesDelete,
}

var notesShowAs string

func init() {
	notesShowCmd.Flags().StringVar(&notesShowAs, "as", "tree", "Text format (tree|markdown|html)")

	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesShowCmd)
	notesCmd.AddCommand(notesDeleteCmd)
	rootCmd.AddCommand(notesCmd)
}

func runNotesList(cmd *cobra.Command, args []string) error {
	handle, err := openNotebookFunc(cmd, notebookOptions{})
	if err != nil {
		return err
	}
	defer handle.Close()
	if handle.Store == nil {
		return fmt.Errorf("notes list is not supported by the %s backend", handle.Backend)
	}

	notes, err := handle.Store.List(cmd.Context())
	if err != nil {
		return err
	}
	if structuredOutputRequested() {
		return printStructured(notes)
	}
	if len(notes) == 0 {
		printf("No notes.\n")
		return nil
	}

	table := output.Table{Headers: []string{"ID", "TITLE", "ITEMS", "CREATED"}}
	for _, note := range output.ApplyListOptions(currentContext(), notes).([]store.RecordInfo) {
		table.Rows = append(table.Rows, []string{note.ID, note.Title, strconv.Itoa(note.Items), note.CreatedAt.Local().Format(time.DateTime)})
	}
	return output.NewPrinter(stdout(), output.FormatTable).Print(context.Background(), table)
}

func runNotesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := strings.TrimSpace(args[0])

	handle, err := openNotebookFunc(cmd, notebookOptions{})
	if err != nil {
		return err
	}
	defer handle.Close()

	note, err := loadNote(ctx, handle, id)
	if err != nil {
		return err
	}
	if structuredOutputRequested() {
		return printStructured(note)
	}

	w := stdout()
	switch strings.ToLower(strings.TrimSpace(notesShowAs)) {
	case "markdown", "md":
		fmt.Fprintf(w, "# %s\n\n%s", note.Title, markdown.RenderMarkdown(note.Items))
	case "html":
		body, err := markdown.RenderHTML(note.Items)
		if err != nil {
			return err
		}
		fmt.Fprint(w, body)
	case "tree", "":
		writeTree(w, []previewNote{note})
	default:
		return fmt.Errorf("invalid --as %q (expected tree|markdown|html)", notesShowAs)
	}
	return nil
}

// loadNote reads a whole note from the sqlite or roam backend.
func loadNote(ctx context.Context, handle *notebookHandle, id string) (previewNote, error) {
	var (
		title string
		items []*outline.TreeItem
	)
	switch {
	case handle.Store != nil:
		rec, tree, err := handle.Store.Tree(ctx, id)
		if err != nil {
			return previewNote{}, err
		}
		if rec == nil {
			return previewNote{}, api.NotFoundError{Message: fmt.Sprintf("note not found: %s", id)}
		}
		title, items = rec.Title(), tree
	case handle.Graph != nil:
		page, tree, err := handle.Graph.Tree(ctx, id)
		if err != nil {
			return previewNote{}, err
		}
		title, items = page.Title, tree
	default:
		return previewNote{}, fmt.Errorf("notes show is not supported by the %s backend", handle.Backend)
	}
	return previewNote{ID: id, Title: title, Count: outline.CountItems(items), Items: items}, nil
}

func runNotesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := strings.TrimSpace(args[0])

	if !output.YesFromContext(ctx) {
		errOut := stderrFromContext(ctx)
		fmt.Fprintf(errOut, "Are you sure you want to delete note %s? This cannot be undone.\n", id)
		fmt.Fprint(errOut, "Type 'yes' to confirm: ")
		reader := bufio.NewReader(stdinFromContext(ctx))
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			fmt.Fprintln(errOut, "Aborted.")
			return nil
		}
	}

	handle, err := openNotebookFunc(cmd, notebookOptions{})
	if err != nil {
		return err
	}
	defer handle.Close()

	switch {
	case handle.Store != nil:
		found, err := handle.Store.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		if !found {
			return api.NotFoundError{Message: fmt.Sprintf("note not found: %s", id)}
		}
	case handle.Graph != nil:
		if err := handle.Graph.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
	default:
		return fmt.Errorf("notes delete is not supported by the %s backend", handle.Backend)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "deleted",
			"id":     id,
		})
	}
	printf("Deleted note: %s\n", id)
	return nil
}
