package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseFrontMatterYAML(t *testing.T) {
	in := "---\ntitle: Weekly Review \ntags: [work, review]\n---\n- item\n"

	meta, body, err := ParseFrontMatter(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.Title != "Weekly Review" {
		t.Fatalf("expected title, got %q", meta.Title)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"work", "review"}) {
		t.Fatalf("unexpected tags: %v", meta.Tags)
	}
	if strings.TrimSpace(body) != "- item" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestParseFrontMatterTOML(t *testing.T) {
	in := "+++\ntitle = \"Notes\"\n+++\nbody"

	meta, body, err := ParseFrontMatter(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.Title != "Notes" || strings.TrimSpace(body) != "body" {
		t.Fatalf("unexpected result: %+v %q", meta, body)
	}
}

func TestParseFrontMatterAbsent(t *testing.T) {
	in := "# Title\ntext"

	meta, body, err := ParseFrontMatter(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.Title != "" || len(meta.Tags) != 0 {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
	if body != in {
		t.Fatalf("expected body unchanged, got %q", body)
	}
}
