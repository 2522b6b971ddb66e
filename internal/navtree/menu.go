package navtree

import (
	"path"
	"strings"
)

// RenderMenu renders the tree as nested <li>/<ul> items for the page at
// pageURL. Root nodes are not rendered. The current page is bold; it and its
// ancestors are marked on-path and their lists open. Links are relative to
// the page's directory.
func (t *Tree) RenderMenu(pageURL string) string {
	onPath := make(map[int]bool)
	if page, ok := t.byURL[pageURL]; ok {
		onPath[page] = true
		for _, a := range t.nodes[page].Ancestors {
			onPath[a] = true
		}
	}
	pageDir := path.Dir(pageURL)

	var lines []string
	depth := 1
	for i, n := range t.nodes {
		d := n.Depth()
		if d == 0 {
			continue
		}
		for depth > d {
			depth--
			lines = append(lines, indent(depth)+"</ul></li>")
		}

		class := ` class="offpath"`
		current := n.URL == pageURL
		if current || onPath[i] {
			class = ` class="onpath"`
		}

		var entry string
		if current {
			entry = "<b" + class + ">" + n.Text + "</b>"
		} else {
			entry = `<a href="` + relLink(pageDir, n.URL) + `"` + class + ">" + n.Text + "</a>"
		}

		if len(n.Children) == 0 {
			lines = append(lines, indent(depth)+"<li>"+entry+"</li>")
			continue
		}
		ul := "<ul>"
		if current || onPath[i] {
			ul = `<ul rel="open">`
		}
		lines = append(lines, indent(depth)+"<li>"+entry+ul)
		depth++
	}
	for depth > 1 {
		depth--
		lines = append(lines, indent(depth)+"</ul></li>")
	}
	return strings.Join(lines, "\n")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// relLink returns the slash path from directory dir to target, both
// relative to the same root.
func relLink(dir, target string) string {
	from := splitPath(dir)
	to := splitPath(target)

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	return strings.Join(parts, "/")
}

func splitPath(p string) []string {
	p = path.Clean(p)
	if p == "." || p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
