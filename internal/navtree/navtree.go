// Package navtree builds the navigation tree of a locale's documentation
// and renders it as a nested tree menu.
package navtree

import (
	"html"
	"log/slog"

	"github.com/dgallion1/docloc/internal/manifest"
)

// Node is one addressable documentation page.
type Node struct {
	Target    string
	URL       string
	Text      string // HTML-escaped display label
	Ancestors []int  // nearest parent first; empty at the root
	Children  []int
}

// Depth is the number of ancestors of the node.
func (n Node) Depth() int {
	return len(n.Ancestors)
}

// Tree stores the nodes of one locale in pre-order.
type Tree struct {
	nodes    []Node
	byTarget map[string]int
	byURL    map[string]int
}

// Build resolves the entries of a table-of-contents template against the
// help-map. Entries without a target, or whose target has no URL, are
// logged and skipped; their children attach to the nearest resolved
// ancestor. Labels come from the contents listings, then from the template,
// then from the target itself.
func Build(entries []manifest.TOCEntry, urls *manifest.HelpMap, labels manifest.Labels, log *slog.Logger) *Tree {
	t := &Tree{
		byTarget: make(map[string]int),
		byURL:    make(map[string]int),
	}

	// effective[i] is the node that entry i's children attach to.
	effective := make([]int, len(entries))
	for i, e := range entries {
		parent := -1
		if e.Parent >= 0 {
			parent = effective[e.Parent]
		}
		effective[i] = parent

		if !e.HasTarget {
			log.Warn("table of contents: node is missing target")
			continue
		}
		url, ok := urls.URL(e.Target)
		if !ok {
			log.Warn("table of contents: unknown target", "target", e.Target)
			continue
		}

		var ancestors []int
		if parent >= 0 {
			ancestors = make([]int, 0, len(t.nodes[parent].Ancestors)+1)
			ancestors = append(ancestors, parent)
			ancestors = append(ancestors, t.nodes[parent].Ancestors...)
		}

		idx := len(t.nodes)
		t.nodes = append(t.nodes, Node{
			Target:    e.Target,
			URL:       url,
			Text:      label(e, labels),
			Ancestors: ancestors,
		})
		if parent >= 0 {
			t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
		}
		t.byTarget[e.Target] = idx
		t.byURL[url] = idx
		effective[i] = idx
	}
	return t
}

func label(e manifest.TOCEntry, labels manifest.Labels) string {
	if text, ok := labels.Lookup(e.Target); ok {
		return text
	}
	if e.Text != "" {
		return html.EscapeString(e.Text)
	}
	return html.EscapeString(e.Target)
}

// Len is the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node at index i.
func (t *Tree) Node(i int) Node {
	return t.nodes[i]
}

// ByTarget returns the index of the node for target.
func (t *Tree) ByTarget(target string) (int, bool) {
	i, ok := t.byTarget[target]
	return i, ok
}

// ByURL returns the index of the node published at url.
func (t *Tree) ByURL(url string) (int, bool) {
	i, ok := t.byURL[url]
	return i, ok
}
