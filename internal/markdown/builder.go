// Package markdown converts a small line-oriented Markdown dialect into
// outline line items.
package markdown

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// DefaultCodeLanguage tags fenced blocks that name no language.
const DefaultCodeLanguage = "plaintext"

var lineBreak = regexp.MustCompile(`\r?\n`)

// SplitLines splits text on LF or CRLF.
func SplitLines(text string) []string {
	return lineBreak.Split(text, -1)
}

// Stats counts the outcome of one Build pass.
type Stats struct {
	Created int `json:"created"`
	Dropped int `json:"dropped"`
}

// Builder turns lines into line items on a sink. The zero value is ready to
// use.
type Builder struct {
	// DefaultLanguage replaces DefaultCodeLanguage when set.
	DefaultLanguage string
	Logger          *slog.Logger
}

// nesting tracks, per indentation level, the item that owns the next level
// (parents) and the last item created at that level (siblings).
type nesting struct {
	parents  []outline.Item
	siblings []outline.Item
}

func newNesting(after outline.Item) *nesting {
	return &nesting{
		parents:  []outline.Item{nil},
		siblings: []outline.Item{after},
	}
}

// clamp limits level to the deepest open level.
func (n *nesting) clamp(level int) int {
	if level >= len(n.parents) {
		return len(n.parents) - 1
	}
	return level
}

func (n *nesting) anchor(level int) (parent, after outline.Item) {
	parent = n.parents[level]
	if level < len(n.siblings) {
		after = n.siblings[level]
	}
	return parent, after
}

// push records item as the newest sibling at level and the parent of
// level+1. Deeper siblings and ancestors are discarded.
func (n *nesting) push(level int, item outline.Item) {
	if level < len(n.siblings) {
		n.siblings = n.siblings[:level+1]
		n.siblings[level] = item
	} else {
		n.siblings = append(n.siblings, item)
	}
	n.parents = append(n.parents[:level+1], item)
}

// reset returns to the root with item as the level-0 anchor.
func (n *nesting) reset(item outline.Item) {
	n.parents = []outline.Item{nil}
	n.siblings = []outline.Item{item}
}

// Build creates one line item per line on sink, or one per fenced code block.
// after is the item new top-level items are inserted after; nil inserts at
// the top of the record. A line the sink cannot create is dropped without
// touching the nesting state. Build stops with ctx.Err() when ctx is done.
func (b *Builder) Build(ctx context.Context, sink outline.Sink, lines []string, after outline.Item) (Stats, error) {
	var (
		stats    Stats
		state    = newNesting(after)
		inCode   bool
		language string
		code     []string
	)

	create := func(parent, after outline.Item, node outline.Node, line int) outline.Item {
		item, err := sink.CreateLineItem(ctx, parent, after, node)
		if err != nil || item == nil {
			stats.Dropped++
			b.logger().Debug("line item not created", "line", line+1, "type", node.Type, "error", err)
			return nil
		}
		stats.Created++
		return item
	}

	flushCode := func(line int) {
		content := strings.Join(code, "\n")
		_, anchor := state.anchor(0)
		node := outline.Node{
			Type:     outline.BlockText,
			Content:  content,
			Segments: []outline.Span{{Kind: outline.SpanText, Text: content}},
			Language: language,
		}
		if item := create(nil, anchor, node, line); item != nil {
			state.reset(item)
		}
		inCode = false
		language = ""
		code = nil
	}

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if inCode {
				code = append(code, "")
				continue
			}
			_, anchor := state.anchor(0)
			node := outline.Node{
				Type:     outline.BlockText,
				Segments: []outline.Span{{Kind: outline.SpanText}},
			}
			if item := create(nil, anchor, node, i); item != nil {
				state.siblings[0] = item
			}
			continue
		}

		if IsFence(line) {
			if inCode {
				flushCode(i)
				continue
			}
			inCode = true
			language = fenceLanguage(line)
			if language == "" {
				language = b.defaultLanguage()
			}
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}

		if IsRule(line) {
			_, anchor := state.anchor(0)
			node := outline.Node{
				Type:     outline.BlockText,
				Content:  ruleContent,
				Segments: []outline.Span{{Kind: outline.SpanText, Text: ruleContent}},
			}
			if item := create(nil, anchor, node, i); item != nil {
				state.reset(item)
			}
			continue
		}

		classified := ClassifyLine(line)
		level := state.clamp(classified.IndentLevel)
		parent, anchor := state.anchor(level)
		node := outline.Node{
			Type:     classified.Type,
			Content:  classified.Content,
			Segments: Tokenize(classified.Content),
		}
		switch classified.Type {
		case outline.BlockHeading:
			node.HeadingLevel = classified.HeadingLevel
		case outline.BlockTask:
			node.Checked = classified.Checked
		}
		if item := create(parent, anchor, node, i); item != nil {
			state.push(level, item)
		}
	}

	if inCode {
		b.logger().Debug("flushing unterminated code block", "lines", len(code))
		flushCode(len(lines) - 1)
	}

	return stats, nil
}

func (b *Builder) defaultLanguage() string {
	if b.DefaultLanguage != "" {
		return b.DefaultLanguage
	}
	return DefaultCodeLanguage
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(slog.DiscardHandler)
}
