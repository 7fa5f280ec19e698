package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// AppendNotebook writes notes through the Append API. Records are addressed
// by page title, or by a block reference "((uid))" to append under a block.
// Line items are staged in memory and uploaded as one nested request on
// Commit. Existing content cannot be read, so new items always go to the
// end of the target.
type AppendNotebook struct {
	client *AppendClient
}

// NewAppendNotebook returns a notebook backed by client.
func NewAppendNotebook(client *AppendClient) *AppendNotebook {
	return &AppendNotebook{client: client}
}

// CreateRecord returns title as the record id. The page is created by the
// first upload.
func (n *AppendNotebook) CreateRecord(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", nil
	}
	return title, nil
}

// Record opens a staging record for the page title or block reference id.
func (n *AppendNotebook) Record(ctx context.Context, id string) (outline.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	loc := AppendLocation{Page: &AppendPage{Title: id}}
	if uid, ok := blockReference(id); ok {
		loc = AppendLocation{Block: &AppendBlockTarget{UID: uid}}
	}
	return &AppendRecord{
		Document: outline.NewDocument(id, id),
		client:   n.client,
		location: loc,
	}, nil
}

func blockReference(id string) (string, bool) {
	if !strings.HasPrefix(id, "((") || !strings.HasSuffix(id, "))") || len(id) <= 4 {
		return "", false
	}
	return id[2 : len(id)-2], true
}

// AppendRecord stages line items for one Append API target.
type AppendRecord struct {
	*outline.Document
	client   *AppendClient
	location AppendLocation
}

// LineItems returns the staged top-level items. Items already on the
// server are not visible.
func (r *AppendRecord) LineItems(ctx context.Context) ([]outline.Item, error) {
	return r.Document.LineItems(ctx)
}

// Commit uploads the staged items and clears the stage.
func (r *AppendRecord) Commit(ctx context.Context) error {
	items := r.Document.Items()
	if len(items) == 0 {
		return nil
	}
	if err := r.client.Append(ctx, r.location, AppendBlocks(items)); err != nil {
		return fmt.Errorf("append to %s: %w", r.ID(), err)
	}
	r.Document = outline.NewDocument(r.ID(), r.Title())
	return nil
}

// AppendBlocks converts an outline to nested Append API blocks.
func AppendBlocks(items []*outline.TreeItem) []AppendBlock {
	out := make([]AppendBlock, 0, len(items))
	for _, item := range items {
		text, heading := BlockString(item.Node)
		block := AppendBlock{String: text, Heading: heading}
		if len(item.Children) > 0 {
			block.Children = AppendBlocks(item.Children)
		}
		out = append(out, block)
	}
	return out
}

var (
	_ outline.Notebook  = (*AppendNotebook)(nil)
	_ outline.Record    = (*AppendRecord)(nil)
	_ outline.Committer = (*AppendRecord)(nil)
)
