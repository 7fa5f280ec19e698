package outline

import (
	"context"
	"fmt"
	"strconv"
)

// TreeItem is a line item held in memory together with its children.
type TreeItem struct {
	UID      string      `json:"id" yaml:"id"`
	Node     `yaml:",inline"`
	Children []*TreeItem `json:"children,omitempty" yaml:"children,omitempty"`

	doc *Document
}

// ID returns the item identifier.
func (t *TreeItem) ID() string {
	return t.UID
}

// Document is an in-memory record. It is used for previews and dry runs and
// as the staging area for notebooks that upload a whole tree at once.
type Document struct {
	id    string
	title string
	items []*TreeItem
	seq   int
}

// NewDocument returns an empty document.
func NewDocument(id, title string) *Document {
	return &Document{id: id, title: title}
}

func (d *Document) ID() string    { return d.id }
func (d *Document) Title() string { return d.title }

// Items returns the top-level tree.
func (d *Document) Items() []*TreeItem {
	return d.items
}

// LineItems returns the top-level items in order.
func (d *Document) LineItems(ctx context.Context) ([]Item, error) {
	out := make([]Item, 0, len(d.items))
	for _, item := range d.items {
		out = append(out, item)
	}
	return out, nil
}

// CreateLineItem inserts node under parent, directly after the after item.
func (d *Document) CreateLineItem(ctx context.Context, parent, after Item, node Node) (Item, error) {
	siblings := &d.items
	if parent != nil {
		p, ok := parent.(*TreeItem)
		if !ok || p.doc != d {
			return nil, fmt.Errorf("parent %s does not belong to document %s", parent.ID(), d.id)
		}
		siblings = &p.Children
	}

	idx := 0
	if after != nil {
		idx = -1
		for i, sib := range *siblings {
			if Item(sib) == after {
				idx = i + 1
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("anchor %s is not a child of the requested parent", after.ID())
		}
	}

	d.seq++
	item := &TreeItem{
		UID:  d.id + "." + strconv.Itoa(d.seq),
		Node: node,
		doc:  d,
	}

	list := *siblings
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = item
	*siblings = list

	return item, nil
}

// Count returns the number of items in the document, nested ones included.
func (d *Document) Count() int {
	return CountItems(d.items)
}

// CountItems counts items recursively.
func CountItems(items []*TreeItem) int {
	n := len(items)
	for _, item := range items {
		n += CountItems(item.Children)
	}
	return n
}

// MemoryNotebook keeps records in memory.
type MemoryNotebook struct {
	docs []*Document
	seq  int
}

// NewMemoryNotebook returns an empty notebook.
func NewMemoryNotebook() *MemoryNotebook {
	return &MemoryNotebook{}
}

// CreateRecord adds an empty document.
func (n *MemoryNotebook) CreateRecord(ctx context.Context, title string) (string, error) {
	n.seq++
	doc := NewDocument("note-"+strconv.Itoa(n.seq), title)
	n.docs = append(n.docs, doc)
	return doc.id, nil
}

// Record returns the document with id, or nil.
func (n *MemoryNotebook) Record(ctx context.Context, id string) (Record, error) {
	if doc := n.Document(id); doc != nil {
		return doc, nil
	}
	return nil, nil
}

// Document returns the document with id, or nil.
func (n *MemoryNotebook) Document(id string) *Document {
	for _, doc := range n.docs {
		if doc.id == id {
			return doc
		}
	}
	return nil
}

// FindRecord returns the id of the first document titled title.
func (n *MemoryNotebook) FindRecord(ctx context.Context, title string) (string, error) {
	for _, doc := range n.docs {
		if doc.title == title {
			return doc.id, nil
		}
	}
	return "", nil
}

// Documents returns all documents in creation order.
func (n *MemoryNotebook) Documents() []*Document {
	return n.docs
}
