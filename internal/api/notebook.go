package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/salmonumbrella/mdoutline/internal/outline"
	"github.com/salmonumbrella/mdoutline/internal/roamdb"
)

// GraphNotebook stores notes as Roam pages. Block uids are generated
// locally so line items can be nested before the server has seen them.
type GraphNotebook struct {
	graph  Graph
	batch  *BatchBuilder
	logger *slog.Logger
	newUID func() string

	mu    sync.Mutex
	pages map[string]string
}

// NotebookOption configures a GraphNotebook.
type NotebookOption func(*GraphNotebook)

// WithBatch queues writes until Commit and sends them as one batch-actions
// request.
func WithBatch() NotebookOption {
	return func(n *GraphNotebook) {
		n.batch = NewBatchBuilder()
	}
}

// WithNotebookLogger sets the notebook logger.
func WithNotebookLogger(logger *slog.Logger) NotebookOption {
	return func(n *GraphNotebook) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewGraphNotebook returns a notebook backed by graph.
func NewGraphNotebook(graph Graph, opts ...NotebookOption) *GraphNotebook {
	n := &GraphNotebook{
		graph:  graph,
		logger: slog.New(slog.DiscardHandler),
		newUID: NewUID,
		pages:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// write sends one action now, or queues it in batch mode.
func (n *GraphNotebook) write(ctx context.Context, action WriteAction, data map[string]interface{}) error {
	if n.batch == nil {
		return n.graph.Write(ctx, action, data)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	switch action {
	case ActionCreatePage:
		n.batch.CreatePage(data["page"].(Page))
	case ActionCreateBlock:
		loc := data["location"].(BlockLocation)
		n.batch.CreateBlock(loc.ParentUID.(string), loc.Order, data["block"].(Block))
	default:
		return fmt.Errorf("action %s cannot be batched", action)
	}
	return nil
}

// CreateRecord creates a page titled title and returns its uid.
func (n *GraphNotebook) CreateRecord(ctx context.Context, title string) (string, error) {
	uid := n.newUID()
	if err := n.write(ctx, ActionCreatePage, map[string]interface{}{
		"page": Page{Title: title, UID: uid},
	}); err != nil {
		return "", fmt.Errorf("create page %q: %w", title, err)
	}

	n.mu.Lock()
	n.pages[uid] = title
	n.mu.Unlock()
	n.logger.Debug("page created", "uid", uid, "title", title)
	return uid, nil
}

// Record opens the page with uid. It returns nil when no page has that uid.
func (n *GraphNotebook) Record(ctx context.Context, uid string) (outline.Record, error) {
	n.mu.Lock()
	title, ok := n.pages[uid]
	n.mu.Unlock()
	if ok {
		return &PageRecord{notebook: n, uid: uid, title: title}, nil
	}

	rows, err := n.graph.Query(ctx, roamdb.QueryPageTitleByUID(uid))
	if err != nil {
		return nil, fmt.Errorf("look up page %s: %w", uid, err)
	}
	title, ok = roamdb.FirstString(rows)
	if !ok {
		return nil, nil
	}
	return &PageRecord{notebook: n, uid: uid, title: title}, nil
}

// FindRecord returns the uid of the page titled title, or "".
func (n *GraphNotebook) FindRecord(ctx context.Context, title string) (string, error) {
	n.mu.Lock()
	for uid, t := range n.pages {
		if t == title {
			n.mu.Unlock()
			return uid, nil
		}
	}
	n.mu.Unlock()

	rows, err := n.graph.Query(ctx, roamdb.QueryPageUIDByTitle(title))
	if err != nil {
		return "", fmt.Errorf("find page %q: %w", title, err)
	}
	uid, _ := roamdb.FirstString(rows)
	return uid, nil
}

// Commit sends queued writes. It is a no-op outside batch mode.
func (n *GraphNotebook) Commit(ctx context.Context) error {
	if n.batch == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.batch.Len() == 0 {
		return nil
	}

	count := n.batch.Len()
	if err := n.graph.Write(ctx, ActionBatchActions, map[string]interface{}{
		"actions": n.batch.Build(),
	}); err != nil {
		return fmt.Errorf("send batch of %d actions: %w", count, err)
	}
	n.batch.Reset()
	n.logger.Debug("batch sent", "actions", count)
	return nil
}

// Delete removes the page with uid.
func (n *GraphNotebook) Delete(ctx context.Context, uid string) error {
	if err := n.graph.Write(ctx, ActionDeletePage, map[string]interface{}{
		"page": map[string]interface{}{"uid": uid},
	}); err != nil {
		return fmt.Errorf("delete page %s: %w", uid, err)
	}
	n.mu.Lock()
	delete(n.pages, uid)
	n.mu.Unlock()
	return nil
}

// Tree loads a page and its blocks as an outline.
func (n *GraphNotebook) Tree(ctx context.Context, uid string) (*roamdb.Page, []*outline.TreeItem, error) {
	raw, err := n.graph.Pull(ctx, fmt.Sprintf(`[:block/uid "%s"]`, roamdb.EscapeString(uid)), roamdb.TreeSelector)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, NotFoundError{Message: fmt.Sprintf("page not found: %s", uid)}
	}
	page, err := roamdb.ParsePage(raw)
	if err != nil {
		return nil, nil, err
	}
	return page, treeItems(page.Children), nil
}

func treeItems(blocks []roamdb.Block) []*outline.TreeItem {
	out := make([]*outline.TreeItem, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, &outline.TreeItem{
			UID:      block.UID,
			Node:     nodeFromBlock(block),
			Children: treeItems(block.Children),
		})
	}
	return out
}

// nodeFromBlock reverses BlockString for the block shapes it produces.
func nodeFromBlock(block roamdb.Block) outline.Node {
	text := block.String
	switch {
	case block.Heading > 0:
		return plainNode(outline.BlockHeading, text, block.Heading)
	case strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && strings.Contains(text, "\n"):
		body := strings.TrimSuffix(text, "```")
		header, content, _ := strings.Cut(body, "\n")
		content = strings.TrimSuffix(content, "\n")
		language := strings.TrimPrefix(header, "```")
		if language == "" {
			language = "plaintext"
		}
		return outline.Node{
			Type:     outline.BlockText,
			Content:  content,
			Segments: []outline.Span{{Kind: outline.SpanText, Text: content}},
			Language: language,
		}
	case strings.HasPrefix(text, doneMarker):
		node := plainNode(outline.BlockTask, strings.TrimPrefix(text, doneMarker), 0)
		node.Checked = true
		return node
	case strings.HasPrefix(text, todoMarker):
		return plainNode(outline.BlockTask, strings.TrimPrefix(text, todoMarker), 0)
	case strings.HasPrefix(text, "> "):
		return plainNode(outline.BlockQuote, strings.TrimPrefix(text, "> "), 0)
	}
	return plainNode(outline.BlockText, text, 0)
}

func plainNode(typ outline.BlockType, content string, level int) outline.Node {
	return outline.Node{
		Type:         typ,
		Content:      content,
		HeadingLevel: level,
		Segments:     []outline.Span{{Kind: outline.SpanText, Text: content}},
	}
}

// blockRef is a handle to a block and its position among its siblings.
type blockRef struct {
	uid   string
	page  string
	order int
}

func (b *blockRef) ID() string { return b.uid }

// PageRecord is a Roam page opened for writing.
type PageRecord struct {
	notebook *GraphNotebook
	uid      string
	title    string
}

func (p *PageRecord) ID() string    { return p.uid }
func (p *PageRecord) Title() string { return p.title }

// LineItems returns the page's top-level blocks in order.
func (p *PageRecord) LineItems(ctx context.Context) ([]outline.Item, error) {
	rows, err := p.notebook.graph.Query(ctx, roamdb.QueryChildren(p.uid))
	if err != nil {
		return nil, fmt.Errorf("list blocks of %s: %w", p.uid, err)
	}
	children := roamdb.ParseChildren(rows)
	out := make([]outline.Item, 0, len(children))
	for _, child := range children {
		out = append(out, &blockRef{uid: child.UID, page: p.uid, order: child.Order})
	}
	return out, nil
}

// CreateLineItem creates a block under parent, directly after the after
// block.
func (p *PageRecord) CreateLineItem(ctx context.Context, parent, after outline.Item, node outline.Node) (outline.Item, error) {
	parentUID := p.uid
	if parent != nil {
		ref, err := p.own(parent)
		if err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
		parentUID = ref.uid
	}

	order := 0
	if after != nil {
		ref, err := p.own(after)
		if err != nil {
			return nil, fmt.Errorf("anchor: %w", err)
		}
		order = ref.order + 1
	}

	text, heading := BlockString(node)
	uid := p.notebook.newUID()
	if err := p.notebook.write(ctx, ActionCreateBlock, map[string]interface{}{
		"location": BlockLocation{ParentUID: parentUID, Order: order},
		"block":    Block{String: text, UID: uid, Heading: heading},
	}); err != nil {
		return nil, fmt.Errorf("create block in %s: %w", p.uid, err)
	}
	return &blockRef{uid: uid, page: p.uid, order: order}, nil
}

func (p *PageRecord) own(item outline.Item) (*blockRef, error) {
	ref, ok := item.(*blockRef)
	if !ok || ref.page != p.uid {
		return nil, fmt.Errorf("block %s does not belong to page %s", item.ID(), p.uid)
	}
	return ref, nil
}

var (
	_ outline.Notebook     = (*GraphNotebook)(nil)
	_ outline.Committer    = (*GraphNotebook)(nil)
	_ outline.RecordFinder = (*GraphNotebook)(nil)
	_ outline.Record       = (*PageRecord)(nil)
)
