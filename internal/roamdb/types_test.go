package roamdb

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParsePageColonKeys(t *testing.T) {
	data := []byte(`{
		":node/title": "Test Page",
		":block/uid": "page-uid",
		":block/children": [
			{":block/string": "second", ":block/uid": "b2", ":block/order": 1},
			{":block/string": "first", ":block/uid": "b1", ":block/order": 0, ":block/heading": 2}
		]
	}`)

	page, err := ParsePage(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.Title != "Test Page" || page.UID != "page-uid" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if len(page.Children) != 2 || page.Children[0].String != "first" || page.Children[0].Heading != 2 {
		t.Fatalf("children not normalized: %+v", page.Children)
	}
}

func TestParsePagePlainKeys(t *testing.T) {
	data := []byte(`{
		"node/title": "Standard",
		"block/uid": "std",
		"block/children": [
			{"block/string": "parent", "block/uid": "p", "block/order": 0,
			 "block/children": [
				{"block/string": "b", "block/uid": "c2", "block/order": 1},
				{"block/string": "a", "block/uid": "c1", "block/order": 0}
			 ]}
		]
	}`)

	page, err := ParsePage(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	nested := page.Children[0].Children
	if len(nested) != 2 || nested[0].UID != "c1" || nested[1].UID != "c2" {
		t.Fatalf("nested children not normalized: %+v", nested)
	}
}

func TestParsePageInvalid(t *testing.T) {
	if _, err := ParsePage(json.RawMessage(`[1,2]`)); err == nil {
		t.Fatalf("expected error for non-object")
	}
}

func TestParseChildren(t *testing.T) {
	rows := [][]interface{}{
		{"b", float64(1)},
		{"a", float64(0)},
		{"bad"},
		{42, float64(2)},
		{"c", json.Number("2")},
	}
	got := ParseChildren(rows)
	want := []Child{{UID: "a", Order: 0}, {UID: "b", Order: 1}, {UID: "c", Order: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseChildren = %+v, want %+v", got, want)
	}
}

func TestFirstString(t *testing.T) {
	if s, ok := FirstString([][]interface{}{{"uid"}}); !ok || s != "uid" {
		t.Fatalf("unexpected result: %q %v", s, ok)
	}
	if _, ok := FirstString(nil); ok {
		t.Fatalf("expected no result for empty rows")
	}
}
