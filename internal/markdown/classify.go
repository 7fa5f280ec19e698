package markdown

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

const (
	fenceMarker = "```"
	ruleContent = "---"
)

var (
	rulePattern      = regexp.MustCompile(`^(\*{3,}|-{3,}|_{3,})$`)
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.*)`)
	taskPattern      = regexp.MustCompile(`^[-*]\s+\[([ xX])\]\s+(.*)`)
	unorderedPattern = regexp.MustCompile(`^[-*]\s+(.*)`)
	orderedPattern   = regexp.MustCompile(`^\d+\.\s+(.*)`)
	quotePrefix      = regexp.MustCompile(`^>\s*`)
)

// Line is the classification of one raw line.
type Line struct {
	Type         outline.BlockType
	Content      string
	HeadingLevel int
	Checked      bool
	IndentLevel  int
}

// IsFence reports whether line opens or closes a fenced code block.
func IsFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fenceMarker)
}

// IsRule reports whether line is a horizontal rule.
func IsRule(line string) bool {
	return rulePattern.MatchString(strings.TrimSpace(line))
}

// fenceLanguage returns the info string after the fence marker. Only the
// three marker backticks are removed, so "````py" yields "`py".
func fenceLanguage(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fenceMarker))
}

// IndentLevel counts leading whitespace, two characters per level. Tabs
// count as one character.
func IndentLevel(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n / 2
}

// ClassifyLine determines the block type and content of a non-blank line that
// is not a fence and not inside a code block.
func ClassifyLine(line string) Line {
	trimmed := strings.TrimSpace(line)
	out := Line{
		Type:        outline.BlockText,
		Content:     trimmed,
		IndentLevel: IndentLevel(line),
	}

	switch {
	case rulePattern.MatchString(trimmed):
		out.Type = outline.BlockRule
		out.Content = ruleContent
	case headingPattern.MatchString(trimmed):
		m := headingPattern.FindStringSubmatch(trimmed)
		out.Type = outline.BlockHeading
		out.HeadingLevel = len(m[1])
		out.Content = m[2]
	case taskPattern.MatchString(trimmed):
		m := taskPattern.FindStringSubmatch(trimmed)
		out.Type = outline.BlockTask
		out.Checked = strings.EqualFold(m[1], "x")
		out.Content = m[2]
	case unorderedPattern.MatchString(trimmed):
		out.Type = outline.BlockUnorderedList
		out.Content = unorderedPattern.FindStringSubmatch(trimmed)[1]
	case orderedPattern.MatchString(trimmed):
		out.Type = outline.BlockOrderedList
		out.Content = orderedPattern.FindStringSubmatch(trimmed)[1]
	case strings.HasPrefix(trimmed, ">"):
		out.Type = outline.BlockQuote
		out.Content = quotePrefix.ReplaceAllString(trimmed, "")
	}

	return out
}
