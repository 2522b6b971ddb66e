package manifest

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/docloc/internal/locale"
)

// Template locations inside the documentation source tree.
const (
	ContentsTemplate = "support/base-contents.xml"
	MapTemplate      = "support/base-map.jhm"
	HelpsetTemplate  = "support/base-doc.hs"
)

var (
	tocItemPattern = regexp.MustCompile(`(<tocitem[^>]*target=")([^"]*)(")([^>]*>)`)
	mapIDPattern   = regexp.MustCompile(`(<mapID[^>]*url=")([^"]*)("[^>]*>)`)
)

// SynthesizeContents inserts the display text of every <tocitem> target into
// the shared table-of-contents template. Targets without a label are logged
// and left unchanged.
func SynthesizeContents(template string, labels Labels, log *slog.Logger) string {
	return tocItemPattern.ReplaceAllStringFunc(template, func(item string) string {
		m := tocItemPattern.FindStringSubmatch(item)
		target := m[2]
		text, ok := labels.Lookup(target)
		if !ok {
			log.Warn("contents template: no label for target", "target", target)
			return item
		}
		return m[1] + target + m[3] + ` text="` + text + `"` + m[4]
	})
}

// SynthesizeMap prefixes every <mapID> url of the shared help-map template
// with the locale that publishes the file: loc when its tree has it, the
// base locale otherwise. Unknown URLs are left unchanged.
func SynthesizeMap(template, loc string, localFiles, baseFiles map[string]bool) string {
	return mapIDPattern.ReplaceAllStringFunc(template, func(id string) string {
		m := mapIDPattern.FindStringSubmatch(id)
		url := m[2]
		switch {
		case localFiles[url]:
			url = loc + "/" + url
		case baseFiles[url]:
			url = locale.Base + "/" + url
		}
		return m[1] + url + m[3]
	})
}

// SynthesizeHelpset substitutes the locale into the shared helpset template.
func SynthesizeHelpset(template, loc string) string {
	return strings.ReplaceAll(template, "{lang}", loc)
}

// ListFiles returns the slash-separated paths of all regular files under
// root, skipping hidden directories. A missing root yields an empty set.
func ListFiles(root string) (map[string]bool, error) {
	files := make(map[string]bool)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
