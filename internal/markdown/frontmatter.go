package markdown

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the metadata block at the top of a payload.
type FrontMatter struct {
	Title string   `yaml:"title" toml:"title" json:"title,omitempty"`
	Tags  []string `yaml:"tags" toml:"tags" json:"tags,omitempty"`
}

// ParseFrontMatter strips a leading YAML or TOML front matter block from text.
// Text without front matter is returned unchanged with a zero FrontMatter.
func ParseFrontMatter(text string) (FrontMatter, string, error) {
	var meta FrontMatter

	body, err := frontmatter.Parse(strings.NewReader(text), &meta)
	if err != nil {
		return FrontMatter{}, "", fmt.Errorf("parse front matter: %w", err)
	}

	meta.Title = strings.TrimSpace(meta.Title)
	return meta, string(body), nil
}
