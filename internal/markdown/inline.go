package markdown

import (
	"strings"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// inlineMatch is one recognized token: text[start:end] with the span it
// produces.
type inlineMatch struct {
	start, end int
	span       outline.Span
}

// inlineMatcher tries to recognize a token starting exactly at i.
type inlineMatcher func(text string, i int) (inlineMatch, bool)

// inlineMatchers are tried in order at every position; the first match wins.
// Two-character delimiters come before one-character ones.
var inlineMatchers = []inlineMatcher{
	matchCode,
	matchBold,
	matchItalic,
	matchStrike,
	matchLink,
}

// Tokenize splits one line of block content into styled spans. Strikethrough
// is kept as plain text including its tildes, and links keep only their label.
func Tokenize(text string) []outline.Span {
	var spans []outline.Span
	current := 0

	for i := 0; i < len(text); {
		m, ok := matchAt(text, i)
		if !ok {
			i++
			continue
		}
		if m.start > current {
			spans = append(spans, outline.Span{Kind: outline.SpanText, Text: text[current:m.start]})
		}
		spans = append(spans, m.span)
		current = m.end
		i = m.end
	}

	if current < len(text) {
		spans = append(spans, outline.Span{Kind: outline.SpanText, Text: text[current:]})
	}
	if len(spans) == 0 {
		spans = append(spans, outline.Span{Kind: outline.SpanText, Text: text})
	}
	return spans
}

func matchAt(text string, i int) (inlineMatch, bool) {
	for _, match := range inlineMatchers {
		if m, ok := match(text, i); ok {
			return m, true
		}
	}
	return inlineMatch{}, false
}

// matchCode recognizes `code`, ``code`` and so on. The longest opening run is
// tried first; shorter runs leave the extra backticks inside the content.
func matchCode(text string, i int) (inlineMatch, bool) {
	run := 0
	for i+run < len(text) && text[i+run] == '`' {
		run++
	}
	for n := run; n >= 1; n-- {
		if m, ok := matchDelimited(text, i, strings.Repeat("`", n), outline.SpanCode); ok {
			return m, true
		}
	}
	return inlineMatch{}, false
}

func matchBold(text string, i int) (inlineMatch, bool) {
	for _, delim := range []string{"**", "__"} {
		if strings.HasPrefix(text[i:], delim) {
			return matchDelimited(text, i, delim, outline.SpanBold)
		}
	}
	return inlineMatch{}, false
}

func matchItalic(text string, i int) (inlineMatch, bool) {
	switch text[i] {
	case '*', '_':
		return matchDelimited(text, i, text[i:i+1], outline.SpanItalic)
	}
	return inlineMatch{}, false
}

func matchStrike(text string, i int) (inlineMatch, bool) {
	if !strings.HasPrefix(text[i:], "~~") {
		return inlineMatch{}, false
	}
	m, ok := matchDelimited(text, i, "~~", outline.SpanText)
	if ok {
		m.span.Text = text[m.start:m.end]
	}
	return m, ok
}

// matchLink recognizes [label](target) and keeps the label only.
func matchLink(text string, i int) (inlineMatch, bool) {
	if text[i] != '[' {
		return inlineMatch{}, false
	}
	labelEnd := strings.IndexByte(text[i+1:], ']')
	if labelEnd <= 0 {
		return inlineMatch{}, false
	}
	labelEnd += i + 1
	if labelEnd+1 >= len(text) || text[labelEnd+1] != '(' {
		return inlineMatch{}, false
	}
	targetStart := labelEnd + 2
	targetEnd := strings.IndexByte(text[targetStart:], ')')
	if targetEnd <= 0 {
		return inlineMatch{}, false
	}
	targetEnd += targetStart

	return inlineMatch{
		start: i,
		end:   targetEnd + 1,
		span:  outline.Span{Kind: outline.SpanText, Text: text[i+1 : labelEnd]},
	}, true
}

// matchDelimited finds the earliest closing delim after the opening one at i.
// Content may be empty but never crosses a line terminator.
func matchDelimited(text string, i int, delim string, kind outline.SpanKind) (inlineMatch, bool) {
	if !strings.HasPrefix(text[i:], delim) {
		return inlineMatch{}, false
	}
	contentStart := i + len(delim)
	closing := strings.Index(text[contentStart:], delim)
	if closing < 0 {
		return inlineMatch{}, false
	}
	content := text[contentStart : contentStart+closing]
	if strings.ContainsAny(content, "\n\r\u2028\u2029") {
		return inlineMatch{}, false
	}
	return inlineMatch{
		start: i,
		end:   contentStart + closing + len(delim),
		span:  outline.Span{Kind: kind, Text: content},
	}, true
}
