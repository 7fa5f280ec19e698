package roamdb

import (
	"encoding/json"
	"strings"
)

// Page is a Roam page as returned by pull.
type Page struct {
	Title    string  `json:"node/title"`
	UID      string  `json:"block/uid"`
	Children []Block `json:"block/children,omitempty"`
}

// Block is a Roam block as returned by pull.
type Block struct {
	String   string  `json:"block/string"`
	UID      string  `json:"block/uid"`
	Order    int     `json:"block/order,omitempty"`
	Heading  int     `json:"block/heading,omitempty"`
	Children []Block `json:"block/children,omitempty"`
}

// UnmarshalJSON accepts both "node/title" and EDN-style ":node/title" keys.
func (p *Page) UnmarshalJSON(data []byte) error {
	type plain Page
	return decodeAttrs(data, (*plain)(p))
}

// UnmarshalJSON accepts both "block/string" and EDN-style ":block/string" keys.
func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	return decodeAttrs(data, (*plain)(b))
}

// decodeAttrs strips a leading colon from every top-level key before
// decoding into v.
func decodeAttrs(data []byte, v interface{}) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized := make(map[string]json.RawMessage, len(raw))
	for k, val := range raw {
		normalized[strings.TrimPrefix(k, ":")] = val
	}
	buf, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}
