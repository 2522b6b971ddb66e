// Package imgtag rewrites <img> tags so that they point at the published
// copy of an image and carry its measured size.
package imgtag

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docloc/internal/imagemap"
)

// TagPattern matches a complete <img ...> tag.
var TagPattern = regexp.MustCompile(`(?s)<img\s[^>]*>`)

var attrPattern = regexp.MustCompile(`\s([a-zA-Z0-9-]+)(?:\s*=\s*("[^"]*"|'[^']*'|[^\s"'>]+))?`)

const iconOverride = 32

// Context describes the file a tag appears in. Roots and Dir are absolute
// paths in the source tree.
type Context struct {
	Dir        string
	LocaleRoot string
	BaseRoot   string
	Locale     imagemap.Map
	Base       imagemap.Map
}

type attr struct {
	name  string
	value string
	raw   string
}

// Rewrite returns tag with its src redirected to the published image and
// width/height set from the resource maps. Attributes other than src, width
// and height are kept in order. Width and height are omitted when no size is
// known.
func Rewrite(tag string, c Context) string {
	attrs := parseAttrs(tag)

	values := make(map[string]string, len(attrs))
	var kept []string
	for _, a := range attrs {
		values[a.name] = a.value
		switch a.name {
		case "src", "width", "height":
		default:
			kept = append(kept, a.raw)
		}
	}

	src, ok := values["src"]
	if !ok || isExternal(src) {
		return tag
	}

	target, width, height, sized := resolve(src, c)

	if strings.HasSuffix(src, ".gif") && values["width"] == "32" && values["height"] == "32" {
		width, height, sized = iconOverride, iconOverride, true
	}

	rel, err := filepath.Rel(c.Dir, target)
	if err != nil {
		rel = target
	}

	pieces := append([]string{"<img"}, kept...)
	pieces = append(pieces, `src="`+filepath.ToSlash(rel)+`"`)
	if sized {
		pieces = append(pieces,
			`width="`+strconv.Itoa(width)+`"`,
			`height="`+strconv.Itoa(height)+`"`,
		)
	}

	end := ">"
	if strings.HasSuffix(tag, "/>") {
		end = " />"
	}
	return strings.Join(pieces, " ") + end
}

// RewriteAll applies Rewrite to every <img> tag in text.
func RewriteAll(text string, c Context) string {
	return TagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		return Rewrite(tag, c)
	})
}

// resolve returns the absolute path the tag must point at and the size of
// the image. sized is false when no map knows the image. Paths under the
// base root are looked up in the base map first.
func resolve(src string, c Context) (target string, width, height int, sized bool) {
	p := filepath.Clean(filepath.Join(c.Dir, filepath.FromSlash(src)))

	if rel, ok := within(c.BaseRoot, p); ok {
		if a, found := c.Base.Lookup(imagemap.KeyFor(rel)); found {
			return p, a.Width, a.Height, true
		}
		return p, 0, 0, false
	}

	if rel, ok := within(c.LocaleRoot, p); ok {
		key := imagemap.KeyFor(rel)
		if a, found := c.Locale.Lookup(key); found {
			return p, a.Width, a.Height, true
		}
		if a, found := c.Base.Lookup(key); found {
			return filepath.Join(c.BaseRoot, filepath.FromSlash(key.Rel())), a.Width, a.Height, true
		}
	}
	return p, 0, 0, false
}

// within reports whether p lies under root and returns the slash-separated
// path relative to it.
func within(root, p string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isExternal(src string) bool {
	return src == "" ||
		strings.HasPrefix(src, "/") ||
		strings.HasPrefix(src, "data:") ||
		strings.Contains(src, "://")
}

func parseAttrs(tag string) []attr {
	var attrs []attr
	for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
		name := strings.ToLower(m[1])
		if name == "img" {
			continue
		}
		attrs = append(attrs, attr{
			name:  name,
			value: unquote(m[2]),
			raw:   strings.TrimSpace(m[0]),
		})
	}
	return attrs
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
