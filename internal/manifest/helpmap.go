// Package manifest reads and synthesizes the help manifests of a
// documentation tree: the help-map (target to URL), the contents listing
// (target to display text) and the table-of-contents template.
package manifest

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/net/html"
)

// HelpMap associates target IDs with URLs relative to a locale root.
type HelpMap struct {
	urls    map[string]string
	targets map[string]string
	order   []string
}

// NewHelpMap returns an empty help-map.
func NewHelpMap() *HelpMap {
	return &HelpMap{
		urls:    make(map[string]string),
		targets: make(map[string]string),
	}
}

// Add records a target. A later entry for the same target wins.
func (m *HelpMap) Add(target, url string) {
	if _, ok := m.urls[target]; !ok {
		m.order = append(m.order, target)
	}
	m.urls[target] = url
	m.targets[url] = target
}

// URL returns the URL of target.
func (m *HelpMap) URL(target string) (string, bool) {
	u, ok := m.urls[target]
	return u, ok
}

// Target returns the target published at url.
func (m *HelpMap) Target(url string) (string, bool) {
	t, ok := m.targets[url]
	return t, ok
}

// Targets returns the targets in file order.
func (m *HelpMap) Targets() []string {
	return m.order
}

// Len is the number of targets.
func (m *HelpMap) Len() int {
	return len(m.order)
}

// ReadHelpMap parses the help-map file at path.
func ReadHelpMap(path string, log *slog.Logger) (*HelpMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open help-map: %w", err)
	}
	defer f.Close()

	m, err := ParseHelpMap(f, log)
	if err != nil {
		return nil, fmt.Errorf("parse help-map %s: %w", path, err)
	}
	return m, nil
}

// ParseHelpMap reads <mapID target="..." url="..."/> elements. Elements
// missing either attribute are logged and ignored.
func ParseHelpMap(r io.Reader, log *slog.Logger) (*HelpMap, error) {
	m := NewHelpMap()
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return m, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "mapid" {
				continue
			}
			attrs := tagAttrs(z, hasAttr)
			target, okTarget := attrs["target"]
			url, okURL := attrs["url"]
			if !okTarget || !okURL {
				log.Warn("help-map node is missing target or url attribute, ignored")
				continue
			}
			m.Add(target, url)
		}
	}
}

func tagAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs[string(key)] = string(val)
	}
	return attrs
}
