package cmd

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/markdown"
	"github.com/salmonumbrella/mdoutline/internal/outline"
	"github.com/salmonumbrella/mdoutline/internal/output"
	"github.com/salmonumbrella/mdoutline/internal/paste"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the outline a paste would create",
	Long: `Convert Markdown in memory and print the resulting notes.

Formats:
  tree      indented line items with their types (default)
  markdown  the outline written back as Markdown
  html      the outline rendered to HTML
  json      the full line-item tree

Examples:
  mdoutline preview -f notes.md
  mdoutline preview --as markdown < notes.md
  mdoutline preview --as html -m "# Title\n- **bold** item"`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

var (
	previewInput  sourceFlags
	previewImport importFlags
	previewAs     string
)

func init() {
	previewInput.register(previewCmd)
	previewImport.register(previewCmd)
	previewCmd.Flags().StringVar(&previewAs, "as", "tree", "Preview format (tree|markdown|html|json)")

	rootCmd.AddCommand(previewCmd)
}

// previewNote is one converted note.
type previewNote struct {
	ID    string              `json:"id"`
	Title string              `json:"title"`
	Count int                 `json:"count"`
	Items []*outline.TreeItem `json:"items"`
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	as := strings.ToLower(strings.TrimSpace(previewAs))
	switch as {
	case "tree", "markdown", "md", "html", "json":
	default:
		return fmt.Errorf("invalid --as %q (expected tree|markdown|html|json)", previewAs)
	}

	src, err := previewInput.source(cmd)
	if err != nil {
		return err
	}

	nb := outline.NewMemoryNotebook()
	im := newImporter(ctx, src, nb, previewImport)
	im.Notifier = nil
	result, err := im.Run(ctx)
	if err != nil {
		return err
	}
	if result.Outcome == paste.OutcomeEmpty {
		return paste.ErrEmptyInput
	}

	notes := previewNotes(nb)
	if as == "json" || structuredOutputRequested() {
		format := GetOutputFormat()
		if !output.IsStructured(format) {
			format = output.FormatJSON
		}
		return output.NewPrinter(stdout(), format).Print(ctx, notes)
	}

	w := stdout()
	switch as {
	case "markdown", "md":
		for i, note := range notes {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n\n%s", note.Title, markdown.RenderMarkdown(note.Items))
		}
	case "html":
		for _, note := range notes {
			body, err := markdown.RenderHTML(note.Items)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "<h1>%s</h1>\n%s", html.EscapeString(note.Title), body)
		}
	default:
		writeTree(w, notes)
	}
	return nil
}

func previewNotes(nb *outline.MemoryNotebook) []previewNote {
	docs := nb.Documents()
	notes := make([]previewNote, 0, len(docs))
	for _, doc := range docs {
		items := doc.Items()
		notes = append(notes, previewNote{
			ID:    doc.ID(),
			Title: doc.Title(),
			Count: outline.CountItems(items),
			Items: items,
		})
	}
	return notes
}

// writeTree prints notes as indented items tagged with their block type.
func writeTree(w io.Writer, notes []previewNote) {
	for i, note := range notes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d items)\n", note.Title, note.Count)
		writeTreeItems(w, note.Items, 1)
	}
}

func writeTreeItems(w io.Writer, items []*outline.TreeItem, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range items {
		text := strings.ReplaceAll(item.Content, "\n", "\n"+indent+"  ")
		fmt.Fprintf(w, "%s- [%s] %s\n", indent, treeLabel(item.Node), text)
		writeTreeItems(w, item.Children, depth+1)
	}
}

func treeLabel(node outline.Node) string {
	switch {
	case node.IsCode():
		return "code:" + node.Language
	case node.Type == outline.BlockHeading:
		return fmt.Sprintf("h%d", node.HeadingLevel)
	case node.Type == outline.BlockTask && node.Checked:
		return "x"
	case node.Type == outline.BlockTask:
		return " "
	default:
		return string(node.Type)
	}
}
