package website

import (
	"strings"

	"github.com/dgallion1/docloc/internal/locale"
)

const (
	langMenuOther = `<tr>
    <th><a href="{rel}{xndir}{file}">[{xn}]</a></th>
    <td><a href="{rel}{xndir}{file}">{xnname}</a></td>
</tr>`
	langMenuCurrent = `<tr><th>[{xn}]</th><td>{xnname}</td></tr>`
)

// Pages maps a published file name to the sorted locales publishing it.
type Pages map[string][]string

// LangMenu renders the language switcher of file for lang. It is empty when
// fewer than two locales publish the file.
func LangMenu(pages Pages, file, lang string) string {
	langs := pages[file]
	if len(langs) < 2 {
		return ""
	}

	rel := "../"
	if lang == locale.Base {
		rel = ""
	}

	lines := []string{`<div class="langmenu"><table><tbody>`}
	for _, xn := range langs {
		tmpl := langMenuOther
		if xn == lang {
			tmpl = langMenuCurrent
		}
		r := strings.NewReplacer(
			"{rel}", rel,
			"{xndir}", locale.URLPrefix(xn),
			"{file}", file,
			"{xn}", xn,
			"{xnname}", locale.DisplayName(xn),
		)
		lines = append(lines, r.Replace(tmpl))
	}
	lines = append(lines, "</tbody></table></div>")
	return strings.Join(lines, "\n")
}
