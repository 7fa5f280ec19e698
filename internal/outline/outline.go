// Package outline defines the line-item model produced by the Markdown
// converter and the capabilities a destination notebook must provide.
package outline

import "context"

// BlockType identifies how a line item is rendered.
type BlockType string

const (
	BlockText          BlockType = "text"
	BlockHeading       BlockType = "heading"
	BlockTask          BlockType = "task"
	BlockUnorderedList BlockType = "ulist"
	BlockOrderedList   BlockType = "olist"
	BlockQuote         BlockType = "quote"
	// BlockRule is produced by line classification only. Rules are stored
	// as text items with the content "---".
	BlockRule BlockType = "hr"
)

// SpanKind is the styling of one run of text inside a line item.
type SpanKind string

const (
	SpanText   SpanKind = "text"
	SpanBold   SpanKind = "bold"
	SpanItalic SpanKind = "italic"
	SpanCode   SpanKind = "code"
)

// Span is one styled run of text.
type Span struct {
	Kind SpanKind `json:"type" yaml:"type"`
	Text string   `json:"text" yaml:"text"`
}

// PlainText concatenates the text of all spans.
func PlainText(spans []Span) string {
	switch len(spans) {
	case 0:
		return ""
	case 1:
		return spans[0].Text
	}
	n := 0
	for _, s := range spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// Node describes a line item to create. Content is the block content
// before inline parsing; Segments is the parsed form.
type Node struct {
	Type         BlockType `json:"type" yaml:"type"`
	Content      string    `json:"content" yaml:"content"`
	HeadingLevel int       `json:"heading_level,omitempty" yaml:"heading_level,omitempty"`
	Checked      bool      `json:"checked,omitempty" yaml:"checked,omitempty"`
	Segments     []Span    `json:"segments" yaml:"segments"`
	// Language is set on fenced code blocks only.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// IsCode reports whether the node came from a fenced code block.
func (n Node) IsCode() bool {
	return n.Language != ""
}

// Item is a handle to a line item owned by a notebook.
type Item interface {
	ID() string
}

// Sink materializes line items. A nil parent means the record root; a nil
// after means "first under parent". Returning a nil Item (with or without
// an error) means the item could not be created.
type Sink interface {
	CreateLineItem(ctx context.Context, parent, after Item, node Node) (Item, error)
}

// Record is one destination note.
type Record interface {
	Sink
	ID() string
	Title() string
	// LineItems returns the record's top-level items in document order.
	LineItems(ctx context.Context) ([]Item, error)
}

// Notebook creates and opens records. CreateRecord returns an empty id when
// the record could not be created; Record returns nil for a missing id.
type Notebook interface {
	CreateRecord(ctx context.Context, title string) (string, error)
	Record(ctx context.Context, id string) (Record, error)
}

// Committer is implemented by notebooks that buffer writes.
type Committer interface {
	Commit(ctx context.Context) error
}

// RecordFinder looks a record up by title. It returns an empty id when no
// record has that title.
type RecordFinder interface {
	FindRecord(ctx context.Context, title string) (string, error)
}

// DigestIndex remembers content digests of imported records.
type DigestIndex interface {
	HasDigest(ctx context.Context, digest string) (bool, error)
	SetDigest(ctx context.Context, id, digest string) error
}
