package manifest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docloc/internal/locale"
	"golang.org/x/net/html"
)

// ContentsListing is the path of a locale's contents listing relative to the
// locale root.
const ContentsListing = "html/contents.html"

// ParseListing collects <a id="T">text</a> anchors. Text is kept as raw
// HTML with double quotes escaped so it can be placed in an attribute.
// Anchors containing markup are ignored.
func ParseListing(r io.Reader) (map[string]string, error) {
	labels := make(map[string]string)
	z := html.NewTokenizer(r)

	var (
		id   string
		open bool
		text strings.Builder
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return labels, nil
			}
			return nil, z.Err()
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			open = false
			if string(name) != "a" {
				continue
			}
			if v, ok := tagAttrs(z, hasAttr)["id"]; ok {
				id, open = v, true
				text.Reset()
			}
		case html.TextToken:
			if open {
				text.Write(z.Raw())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if open && string(name) == "a" {
				labels[id] = strings.ReplaceAll(text.String(), `"`, "&quot;")
			}
			open = false
		default:
			open = false
		}
	}
}

// ReadListing parses the listing at path. A missing file yields an empty
// listing.
func ReadListing(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	labels, err := ParseListing(f)
	if err != nil {
		return nil, fmt.Errorf("parse contents listing %s: %w", path, err)
	}
	return labels, nil
}

// Labels resolves the display text of a target, preferring the locale's own
// listing and falling back to the base listing entry by entry.
type Labels struct {
	local map[string]string
	base  map[string]string
}

// NewLabels builds Labels from already parsed listings.
func NewLabels(local, base map[string]string) Labels {
	return Labels{local: local, base: base}
}

// LoadLabels reads the contents listings of loc and of the base locale from
// the documentation source tree.
func LoadLabels(srcDir, loc string, log *slog.Logger) (Labels, error) {
	base, err := ReadListing(filepath.Join(srcDir, locale.Base, filepath.FromSlash(ContentsListing)))
	if err != nil {
		return Labels{}, err
	}
	local := base
	if loc != locale.Base {
		local, err = ReadListing(filepath.Join(srcDir, loc, filepath.FromSlash(ContentsListing)))
		if err != nil {
			return Labels{}, err
		}
	}
	log.Debug("loaded contents listings", "locale", loc, "local", len(local), "base", len(base))
	return NewLabels(local, base), nil
}

// Lookup returns the label of target.
func (l Labels) Lookup(target string) (string, bool) {
	if text, ok := l.local[target]; ok {
		return text, true
	}
	text, ok := l.base[target]
	return text, ok
}
