package rewrite

import (
	"path/filepath"

	"github.com/dgallion1/docloc/internal/imagemap"
)

type kind int

const (
	kindVerbatim kind = iota
	kindImage
	kindText
)

// textExtensions are rewritten rather than copied.
var textExtensions = map[string]bool{
	".html": true,
	".jhm":  true,
}

func kindFor(name string) kind {
	switch {
	case imagemap.IsRaster(name):
		return kindImage
	case textExtensions[filepath.Ext(name)]:
		return kindText
	default:
		return kindVerbatim
	}
}

func isPage(name string) bool {
	return filepath.Ext(name) == ".html"
}
