package manifest

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html"
)

// TOCEntry is one <tocitem> of a table-of-contents template, listed in
// document order. Parent is the index of the enclosing entry, -1 at the top.
type TOCEntry struct {
	Target    string
	HasTarget bool
	Text      string
	Parent    int
}

// ParseTOC flattens the nested <tocitem> elements of a table-of-contents
// template into pre-order.
func ParseTOC(r io.Reader) ([]TOCEntry, error) {
	var (
		entries []TOCEntry
		stack   []int
	)
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return entries, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "tocitem" {
				continue
			}
			attrs := tagAttrs(z, hasAttr)
			target, ok := attrs["target"]
			parent := -1
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			entries = append(entries, TOCEntry{
				Target:    target,
				HasTarget: ok,
				Text:      attrs["text"],
				Parent:    parent,
			})
			if tt == html.StartTagToken {
				stack = append(stack, len(entries)-1)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "tocitem" && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// ReadTOC parses the table-of-contents template at path.
func ReadTOC(path string) ([]TOCEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table of contents: %w", err)
	}
	defer f.Close()

	entries, err := ParseTOC(f)
	if err != nil {
		return nil, fmt.Errorf("parse table of contents %s: %w", path, err)
	}
	return entries, nil
}
