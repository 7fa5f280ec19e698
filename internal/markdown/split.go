package markdown

import (
	"regexp"
	"strings"
)

const (
	// LeadingSectionTitle names content that precedes the first top-level
	// heading.
	LeadingSectionTitle = "New Note"
	// FallbackSectionTitle names the single section of a payload without any
	// top-level heading.
	FallbackSectionTitle = "Imported Note"
)

var topLevelHeading = regexp.MustCompile(`^#\s+(.+)`)

// Section is one independently importable part of a payload.
type Section struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

// Splitter partitions a payload at top-level headings. Empty titles fall
// back to LeadingSectionTitle and FallbackSectionTitle.
type Splitter struct {
	LeadingTitle  string
	FallbackTitle string
}

// SplitSections splits text with the default placeholder titles.
func SplitSections(text string) []Section {
	return Splitter{}.Split(text)
}

// Split returns the sections of text in order. Text without a top-level
// heading yields exactly one section holding text verbatim.
func (s Splitter) Split(text string) []Section {
	var (
		sections []Section
		title    = s.leadingTitle()
		body     []string
		found    bool
	)

	for _, line := range SplitLines(text) {
		m := topLevelHeading.FindStringSubmatch(line)
		if m == nil {
			body = append(body, line)
			continue
		}
		if found || hasContent(body) {
			sections = append(sections, Section{Title: title, Body: strings.Join(body, "\n")})
		}
		title = strings.TrimSpace(m[1])
		body = nil
		found = true
	}

	if !found {
		return []Section{{Title: s.fallbackTitle(), Body: text}}
	}
	return append(sections, Section{Title: title, Body: strings.Join(body, "\n")})
}

func (s Splitter) leadingTitle() string {
	if s.LeadingTitle != "" {
		return s.LeadingTitle
	}
	return LeadingSectionTitle
}

func (s Splitter) fallbackTitle() string {
	if s.FallbackTitle != "" {
		return s.FallbackTitle
	}
	return FallbackSectionTitle
}

func hasContent(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}
