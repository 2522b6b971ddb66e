package docsite

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/docloc/internal/locale"
	"github.com/dgallion1/docloc/internal/manifest"
	"github.com/dgallion1/docloc/internal/navtree"
)

// Manifest files of a locale tree that are not published on the website.
var Manifests = []string{"contents.xml", "doc.hs", "jhindexer.cfg", "map.jhm"}

// LoadTree builds loc's navigation tree from the documentation source tree.
// The help-map is the locale's map.jhm, else the base locale's, else the
// shared template; the table of contents is the locale's contents.xml, else
// the shared template.
func LoadTree(srcDir, loc string, log *slog.Logger) (*navtree.Tree, error) {
	mapPath, err := firstExisting(
		filepath.Join(srcDir, loc, "map.jhm"),
		filepath.Join(srcDir, locale.Base, "map.jhm"),
		filepath.Join(srcDir, filepath.FromSlash(manifest.MapTemplate)),
	)
	if err != nil {
		return nil, fmt.Errorf("help-map for %s: %w", loc, err)
	}
	tocPath, err := firstExisting(
		filepath.Join(srcDir, loc, "contents.xml"),
		filepath.Join(srcDir, filepath.FromSlash(manifest.ContentsTemplate)),
	)
	if err != nil {
		return nil, fmt.Errorf("table of contents for %s: %w", loc, err)
	}

	urls, err := manifest.ReadHelpMap(mapPath, log)
	if err != nil {
		return nil, err
	}
	entries, err := manifest.ReadTOC(tocPath)
	if err != nil {
		return nil, err
	}
	labels, err := manifest.LoadLabels(srcDir, loc, log)
	if err != nil {
		return nil, err
	}

	tree := navtree.Build(entries, urls, labels, log.With("locale", loc))
	log.Info("navigation tree built", "locale", loc, "help_map", mapPath, "contents", tocPath, "nodes", tree.Len())
	return tree, nil
}

// CheckDestination refuses to publish into the documentation source tree.
func CheckDestination(srcDir, dstDir string) error {
	src, err := filepath.Abs(srcDir)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(dstDir)
	if err != nil {
		return err
	}
	if src == dst {
		return errors.New("cannot place result into source directory")
	}
	if _, err := os.Stat(filepath.Join(dst, "doc.hs")); err == nil {
		return errors.New("cannot place result into source directory")
	}
	return nil
}

func firstExisting(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("none of %v: %w", paths, fs.ErrNotExist)
}
