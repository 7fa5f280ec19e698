package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/markdown"
	"github.com/salmonumbrella/mdoutline/internal/paste"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Show how Markdown splits into notes",
	Long: `Print the sections a paste would turn into separate notes.

Examples:
  mdoutline split -f notes.md
  mdoutline split -o json < notes.md`,
	Args: cobra.NoArgs,
	RunE: runSplit,
}

var (
	splitInput       sourceFlags
	splitTitle       string
	splitFrontMatter bool
	splitBodies      bool
)

func init() {
	splitInput.register(splitCmd)
	splitCmd.Flags().StringVar(&splitTitle, "title", "", "Title for sections that have no heading of their own")
	splitCmd.Flags().BoolVar(&splitFrontMatter, "front-matter", false, "Strip YAML/TOML front matter and use its title")
	splitCmd.Flags().BoolVar(&splitBodies, "body", false, "Print section bodies in text output")

	rootCmd.AddCommand(splitCmd)
}

// splitSection is one section with its digest.
type splitSection struct {
	markdown.Section `yaml:",inline"`
	Lines  int    `json:"lines"`
	Digest string `json:"digest"`
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src, err := splitInput.source(cmd)
	if err != nil {
		return err
	}
	text, err := src.Read(ctx)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(splitTitle)
	if splitFrontMatter {
		meta, body, err := markdown.ParseFrontMatter(text)
		if err != nil {
			return err
		}
		text = body
		if title == "" {
			title = meta.Title
		}
	}
	if strings.TrimSpace(text) == "" {
		return paste.ErrEmptyInput
	}

	splitter := markdown.Splitter{LeadingTitle: title, FallbackTitle: title}
	sections := splitter.Split(text)
	out := make([]splitSection, 0, len(sections))
	for _, section := range sections {
		out = append(out, splitSection{
			Section: section,
			Lines:   len(markdown.SplitLines(section.Body)),
			Digest:  paste.Digest(section),
		})
	}

	if structuredOutputRequested() {
		return printStructured(out)
	}

	w := stdout()
	for i, section := range out {
		fmt.Fprintf(w, "%d. %s (%d lines)\n", i+1, section.Title, section.Lines)
		if splitBodies {
			for _, line := range markdown.SplitLines(section.Body) {
				fmt.Fprintf(w, "   | %s\n", line)
			}
		}
	}
	return nil
}
