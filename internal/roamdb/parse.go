package roamdb

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParsePage parses a pull response into a Page with children in order.
func ParsePage(raw json.RawMessage) (*Page, error) {
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	NormalizeBlocks(page.Children)
	return &page, nil
}

// NormalizeBlocks sorts blocks by order and recurses into children.
func NormalizeBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Order < blocks[j].Order
	})
	for i := range blocks {
		NormalizeBlocks(blocks[i].Children)
	}
}

// Child is one row of a QueryChildren result.
type Child struct {
	UID   string
	Order int
}

// ParseChildren converts QueryChildren rows, sorted by order. Malformed rows
// are skipped.
func ParseChildren(rows [][]interface{}) []Child {
	out := make([]Child, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		uid, ok := row[0].(string)
		if !ok {
			continue
		}
		var order int
		switch v := row[1].(type) {
		case float64:
			order = int(v)
		case int:
			order = v
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				continue
			}
			order = int(n)
		default:
			continue
		}
		out = append(out, Child{UID: uid, Order: order})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// FirstString returns the first column of the first row as a string.
func FirstString(rows [][]interface{}) (string, bool) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", false
	}
	s, ok := rows[0][0].(string)
	return s, ok
}
