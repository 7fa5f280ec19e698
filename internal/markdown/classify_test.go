package markdown

import (
	"testing"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		in   string
		want Line
	}{
		{"# Title", Line{Type: outline.BlockHeading, Content: "Title", HeadingLevel: 1}},
		{"###### six", Line{Type: outline.BlockHeading, Content: "six", HeadingLevel: 6}},
		{"#   spaced  title", Line{Type: outline.BlockHeading, Content: "spaced  title", HeadingLevel: 1}},
		{"####### seven", Line{Type: outline.BlockText, Content: "####### seven"}},
		{"#nospace", Line{Type: outline.BlockText, Content: "#nospace"}},
		{"  - [x] Done", Line{Type: outline.BlockTask, Content: "Done", Checked: true, IndentLevel: 1}},
		{"- [X] Upper", Line{Type: outline.BlockTask, Content: "Upper", Checked: true}},
		{"* [ ] Todo", Line{Type: outline.BlockTask, Content: "Todo"}},
		{"- item", Line{Type: outline.BlockUnorderedList, Content: "item"}},
		{"    * deep", Line{Type: outline.BlockUnorderedList, Content: "deep", IndentLevel: 2}},
		{"12. twelve", Line{Type: outline.BlockOrderedList, Content: "twelve"}},
		{"> quoted", Line{Type: outline.BlockQuote, Content: "quoted"}},
		{">tight", Line{Type: outline.BlockQuote, Content: "tight"}},
		{"***", Line{Type: outline.BlockRule, Content: "---"}},
		{"_____", Line{Type: outline.BlockRule, Content: "---"}},
		{"   plain text  ", Line{Type: outline.BlockText, Content: "plain text", IndentLevel: 1}},
		{"\tTabbed", Line{Type: outline.BlockText, Content: "Tabbed"}},
		{"\t\tTabbed", Line{Type: outline.BlockText, Content: "Tabbed", IndentLevel: 1}},
	}

	for _, tt := range tests {
		if got := ClassifyLine(tt.in); got != tt.want {
			t.Fatalf("ClassifyLine(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestClassifyLineIsIdempotentOnContent(t *testing.T) {
	lines := []string{
		"# Heading",
		"## Sub heading",
		"- [x] Done",
		"- [ ] Todo",
		"- bullet",
		"* star bullet",
		"1. first",
		"> quote",
	}

	for _, line := range lines {
		first := ClassifyLine(line)
		second := ClassifyLine(first.Content)
		if second.Type != outline.BlockText {
			t.Fatalf("reclassifying %q (from %q) gave %s, want text", first.Content, line, second.Type)
		}
		if second.Content != first.Content {
			t.Fatalf("reclassifying %q changed content to %q", first.Content, second.Content)
		}
	}
}

func TestIsFence(t *testing.T) {
	tests := map[string]bool{
		"```":       true,
		"```go":     true,
		"   ```js ": true,
		"````":      true,
		"``":        false,
		"text ```":  false,
	}
	for in, want := range tests {
		if got := IsFence(in); got != want {
			t.Fatalf("IsFence(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFenceLanguage(t *testing.T) {
	tests := map[string]string{
		"```":         "",
		"```js":       "js",
		"  ```  go  ": "go",
		"````python":  "`python",
		"```` ":       "`",
	}
	for in, want := range tests {
		if got := fenceLanguage(in); got != want {
			t.Fatalf("fenceLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
