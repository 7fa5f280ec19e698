package markdown

import (
	"strings"
	"testing"
)

func TestRenderMarkdownRoundTrip(t *testing.T) {
	in := "# Title\n- a\n  - [x] b\n  - [ ] c\n1. one\n2. two\n> q **bold** and `code`\n***\n```go\nx := 1\n```"

	sink := newFakeSink()
	build(t, sink, in, nil)

	if got := RenderMarkdown(sink.doc.Items()); got != in+"\n" {
		t.Fatalf("RenderMarkdown =\n%s\nwant\n%s", got, in)
	}
}

func TestRenderMarkdownRenumbersOrderedLists(t *testing.T) {
	sink := newFakeSink()
	build(t, sink, "7. a\n9. b\n- x\n3. c", nil)

	want := "1. a\n2. b\n- x\n1. c\n"
	if got := RenderMarkdown(sink.doc.Items()); got != want {
		t.Fatalf("RenderMarkdown = %q, want %q", got, want)
	}
}

func TestRenderHTML(t *testing.T) {
	sink := newFakeSink()
	build(t, sink, "# Title\n- [x] done\nHello **World**", nil)

	out, err := RenderHTML(sink.doc.Items())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<h1>Title</h1>", "<strong>World</strong>", "checkbox"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
