package api

import (
	"strings"

	"github.com/google/uuid"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// Roam renders at most three heading sizes.
const maxHeading = 3

const (
	todoMarker = "{{[[TODO]]}} "
	doneMarker = "{{[[DONE]]}} "
)

// BlockString converts a line item to Roam block text and heading size.
// A nil heading means the block is not a heading.
func BlockString(node outline.Node) (string, *int) {
	if node.IsCode() {
		return "```" + node.Language + "\n" + node.Content + "\n```", nil
	}

	text := roamSpans(node.Segments, node.Content)
	switch node.Type {
	case outline.BlockHeading:
		level := node.HeadingLevel
		if level < 1 {
			level = 1
		}
		if level > maxHeading {
			level = maxHeading
		}
		return text, &level
	case outline.BlockTask:
		if node.Checked {
			return doneMarker + text, nil
		}
		return todoMarker + text, nil
	case outline.BlockQuote:
		return "> " + text, nil
	}
	return text, nil
}

func roamSpans(spans []outline.Span, fallback string) string {
	if len(spans) == 0 {
		return fallback
	}
	var b strings.Builder
	for _, span := range spans {
		switch span.Kind {
		case outline.SpanBold:
			b.WriteString("**" + span.Text + "**")
		case outline.SpanItalic:
			b.WriteString("__" + span.Text + "__")
		case outline.SpanCode:
			b.WriteString("`" + span.Text + "`")
		default:
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

// NewUID returns a Roam-style nine character uid.
func NewUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
