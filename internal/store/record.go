package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// Record is a stored note.
type Record struct {
	store *Store
	id    string
	title string
}

// lineItem is a handle to a stored line item.
type lineItem struct {
	id       string
	recordID string
}

func (i *lineItem) ID() string { return i.id }

func (r *Record) ID() string    { return r.id }
func (r *Record) Title() string { return r.title }

// LineItems returns the top-level items in order.
func (r *Record) LineItems(ctx context.Context) ([]outline.Item, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT id FROM line_items WHERE record_id = ? AND parent_id = '' ORDER BY position`, r.id)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", r.id, err)
	}
	defer rows.Close()

	var out []outline.Item
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, &lineItem{id: id, recordID: r.id})
	}
	return out, rows.Err()
}

// CreateLineItem inserts node under parent directly after the after item,
// shifting later siblings down.
func (r *Record) CreateLineItem(ctx context.Context, parent, after outline.Item, node outline.Node) (outline.Item, error) {
	parentID, err := r.ownID(parent)
	if err != nil {
		return nil, fmt.Errorf("parent: %w", err)
	}
	afterID, err := r.ownID(after)
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}

	segments, err := json.Marshal(node.Segments)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}
	headingSize := 0
	if node.Type == outline.BlockHeading {
		headingSize = node.HeadingLevel
	}
	checked := node.Type == outline.BlockTask && node.Checked

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	position := 0
	if afterID != "" {
		err := tx.QueryRowContext(ctx,
			`SELECT position FROM line_items WHERE id = ? AND record_id = ? AND parent_id = ?`,
			afterID, r.id, parentID).Scan(&position)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("anchor %s is not a child of the requested parent", afterID)
		}
		if err != nil {
			return nil, fmt.Errorf("load anchor %s: %w", afterID, err)
		}
		position++
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE line_items SET position = position + 1 WHERE record_id = ? AND parent_id = ? AND position >= ?`,
		r.id, parentID, position); err != nil {
		return nil, fmt.Errorf("shift siblings: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO line_items (id, record_id, parent_id, position, type, content, heading_size, checked, language, segments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.id, parentID, position, string(node.Type), node.Content, headingSize, checked, node.Language, string(segments)); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &lineItem{id: id, recordID: r.id}, nil
}

// ownID returns the id of item, which must belong to this record. A nil item
// yields "".
func (r *Record) ownID(item outline.Item) (string, error) {
	if item == nil {
		return "", nil
	}
	li, ok := item.(*lineItem)
	if !ok || li.recordID != r.id {
		return "", fmt.Errorf("item %s does not belong to note %s", item.ID(), r.id)
	}
	return li.id, nil
}

// Tree loads the note's full outline.
func (r *Record) Tree(ctx context.Context) ([]*outline.TreeItem, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, parent_id, type, content, heading_size, checked, language, segments
		FROM line_items WHERE record_id = ? ORDER BY position`, r.id)
	if err != nil {
		return nil, fmt.Errorf("load items of %s: %w", r.id, err)
	}
	defer rows.Close()

	type row struct {
		item     *outline.TreeItem
		parentID string
	}
	var (
		ordered []row
		byID    = map[string]*outline.TreeItem{}
	)
	for rows.Next() {
		var (
			item     outline.TreeItem
			parentID string
			typ      string
			segments string
		)
		if err := rows.Scan(&item.UID, &parentID, &typ, &item.Content, &item.HeadingLevel, &item.Checked, &item.Language, &segments); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Type = outline.BlockType(typ)
		if err := json.Unmarshal([]byte(segments), &item.Segments); err != nil {
			return nil, fmt.Errorf("decode segments of %s: %w", item.UID, err)
		}
		ordered = append(ordered, row{item: &item, parentID: parentID})
		byID[item.UID] = &item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var roots []*outline.TreeItem
	for _, entry := range ordered {
		parent, ok := byID[entry.parentID]
		if !ok {
			roots = append(roots, entry.item)
			continue
		}
		parent.Children = append(parent.Children, entry.item)
	}
	return roots, nil
}

// Tree loads the outline of the note with id. It returns nil, nil when the
// note does not exist.
func (s *Store) Tree(ctx context.Context, id string) (*Record, []*outline.TreeItem, error) {
	rec, err := s.record(ctx, id)
	if err != nil || rec == nil {
		return nil, nil, err
	}
	items, err := rec.Tree(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rec, items, nil
}
