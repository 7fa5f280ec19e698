package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// RenderMarkdown writes an outline back out in the dialect Build reads.
// Nested items are indented two spaces per level.
func RenderMarkdown(items []*outline.TreeItem) string {
	var b strings.Builder
	renderItems(&b, items, 0)
	return b.String()
}

func renderItems(b *strings.Builder, items []*outline.TreeItem, depth int) {
	indent := strings.Repeat("  ", depth)
	ordinal := 0

	for _, item := range items {
		if item.Type == outline.BlockOrderedList {
			ordinal++
		} else {
			ordinal = 0
		}

		switch {
		case item.IsCode():
			b.WriteString("```" + item.Language + "\n")
			if item.Content != "" {
				b.WriteString(item.Content + "\n")
			}
			b.WriteString("```\n")
		case item.Type == outline.BlockText && item.Content == ruleContent:
			b.WriteString("***\n")
		default:
			b.WriteString(indent + marker(item, ordinal) + renderSpans(item.Segments, item.Content) + "\n")
		}

		renderItems(b, item.Children, depth+1)
	}
}

func marker(item *outline.TreeItem, ordinal int) string {
	switch item.Type {
	case outline.BlockHeading:
		level := item.HeadingLevel
		if level < 1 {
			level = 1
		}
		return strings.Repeat("#", level) + " "
	case outline.BlockTask:
		if item.Checked {
			return "- [x] "
		}
		return "- [ ] "
	case outline.BlockUnorderedList:
		return "- "
	case outline.BlockOrderedList:
		return strconv.Itoa(ordinal) + ". "
	case outline.BlockQuote:
		return "> "
	}
	return ""
}

func renderSpans(spans []outline.Span, fallback string) string {
	if len(spans) == 0 {
		return fallback
	}
	var b strings.Builder
	for _, span := range spans {
		switch span.Kind {
		case outline.SpanBold:
			b.WriteString("**" + span.Text + "**")
		case outline.SpanItalic:
			b.WriteString("*" + span.Text + "*")
		case outline.SpanCode:
			fence := "`"
			if strings.Contains(span.Text, "`") {
				fence = "``"
			}
			b.WriteString(fence + span.Text + fence)
		default:
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

// RenderHTML renders an outline to HTML through its Markdown form.
func RenderHTML(items []*outline.TreeItem) (string, error) {
	engine := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.TaskList),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	var buf bytes.Buffer
	if err := engine.Convert([]byte(RenderMarkdown(items)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
