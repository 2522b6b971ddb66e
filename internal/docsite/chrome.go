// Package docsite turns a documentation tree into browsable website pages
// by wrapping each page with a navigation tree menu.
package docsite

import (
	"path"
	"regexp"
	"strings"

	"github.com/dgallion1/docloc/internal/locale"
	"github.com/dgallion1/docloc/internal/navtree"
)

const headEnd = `<link rel="shortcut icon" href="{rel}/../../../logisim.ico" />
<link rel="stylesheet" type="text/css" href="{rel}/../../docstyle.css" />
<link rel="stylesheet" type="text/css" href="{rel}/../../tree/simpletree.css" />
<script type="text/javascript" src="{rel}/../../tree/simpletreemenu.js">

/***********************************************
* Simple Tree Menu- © Dynamic Drive DHTML code library (www.dynamicdrive.com)
* This notice MUST stay intact for legal use
* Visit Dynamic Drive at http://www.dynamicdrive.com/ for full source code
***********************************************/

// (from http://www.dynamicdrive.com/dynamicindex1/navigate1.htm)
</script>`

const bodyStart = `<div id="content">`

const bodyEnd = `</div>

<div id="map">
<a href="{rel}/../../../{lang}index.html"><img src="{rel}/../../../{lang}header.png"
    border="0" width="227" height="137"></a>
<ul id="maptree" class="treeview">
{map}
</ul>
</div>
<script type="text/javascript"><!--
ddtreemenu.setPath('{rel}/../../tree');
ddtreemenu.createTree("maptree");
// --></script>`

var bodyOpen = regexp.MustCompile(`<body[^>]*>`)

// Chrome decorates the pages of one locale.
type Chrome struct {
	tree *navtree.Tree
	lang string
}

// NewChrome returns the decorator for loc's pages.
func NewChrome(tree *navtree.Tree, loc string) *Chrome {
	return &Chrome{tree: tree, lang: locale.URLPrefix(loc)}
}

// Decorate adds the stylesheet links to the head, wraps the body in a
// content division and appends the tree menu. rel is the page path relative
// to the locale root.
func (c *Chrome) Decorate(text, rel string) string {
	r := strings.NewReplacer(
		"{rel}", rootFrom(rel),
		"{lang}", c.lang,
		"{map}", c.tree.RenderMenu(rel),
	)

	if i := strings.Index(text, "</head>"); i >= 0 {
		text = text[:i] + r.Replace(headEnd) + "\n" + text[i:]
	}
	if loc := bodyOpen.FindStringIndex(text); loc != nil {
		text = text[:loc[1]] + "\n" + r.Replace(bodyStart) + text[loc[1]:]
	}
	if i := strings.Index(text, "</body>"); i >= 0 {
		text = text[:i] + r.Replace(bodyEnd) + "\n" + text[i:]
	}
	return text
}

// rootFrom returns the relative path from the directory of rel back to the
// locale root.
func rootFrom(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return "."
	}
	ups := make([]string, strings.Count(dir, "/")+1)
	for i := range ups {
		ups[i] = ".."
	}
	return strings.Join(ups, "/")
}
