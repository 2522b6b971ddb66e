// Package rewrite copies a locale's documentation tree into a destination
// tree, publishing only locale-specific images and rewriting pages so that
// shared images resolve to the base locale.
package rewrite

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docloc/internal/imagemap"
	"github.com/dgallion1/docloc/internal/imgtag"
	"github.com/dgallion1/docloc/internal/locale"
	"github.com/gobwas/glob"
)

// Decorator adds navigation chrome to a rewritten page. rel is the page's
// slash path relative to the locale root.
type Decorator interface {
	Decorate(text, rel string) string
}

// Stats counts what happened to the files of one locale.
type Stats struct {
	Files        int `yaml:"files"`
	Pages        int `yaml:"pages"`
	ImagesCopied int `yaml:"images_copied"`
	ImagesShared int `yaml:"images_shared"`
	Copied       int `yaml:"copied"`
	Excluded     int `yaml:"excluded"`
	Kept         int `yaml:"kept"`
	Warnings     int `yaml:"warnings"`
}

// Rewriter copies locale trees from src to dst.
type Rewriter struct {
	src      string
	dst      string
	exclude  []glob.Glob
	replacer Replacer
	log      *slog.Logger

	base imagemap.Map
}

// New returns a Rewriter. Exclusion patterns are globs matched against the
// file name and against its slash path relative to the locale root.
func New(src, dst string, exclude []string, replacer Replacer, log *slog.Logger) (*Rewriter, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return nil, err
	}

	r := &Rewriter{
		src:      srcAbs,
		dst:      dstAbs,
		replacer: replacer,
		log:      log,
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		r.exclude = append(r.exclude, g)
	}
	return r, nil
}

// BaseImages returns the resource map of the base locale, scanning it on
// first use.
func (r *Rewriter) BaseImages() (imagemap.Map, error) {
	if r.base != nil {
		return r.base, nil
	}
	root := filepath.Join(r.src, locale.Base)
	m, err := imagemap.Scan(root, root)
	if err != nil {
		return nil, err
	}
	r.base = m
	return m, nil
}

// CopyLocale rewrites src/<loc> into dst/<loc>. deco may be nil.
func (r *Rewriter) CopyLocale(ctx context.Context, loc string, deco Decorator, stats *Stats) error {
	log := r.log.With("locale", loc)
	localeSrc := filepath.Join(r.src, loc)
	baseSrc := filepath.Join(r.src, locale.Base)
	localeDst := filepath.Join(r.dst, loc)

	if _, err := os.Stat(localeSrc); err != nil {
		return fmt.Errorf("locale source: %w", err)
	}

	base, err := r.BaseImages()
	if err != nil {
		return err
	}
	images := base
	if loc != locale.Base {
		if images, err = imagemap.Scan(localeSrc, baseSrc); err != nil {
			return err
		}
	}
	log.Debug("scanned images", "locale_specific", len(images), "base", len(base))

	if err := os.MkdirAll(localeDst, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	return filepath.WalkDir(localeSrc, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(localeSrc, p)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(localeDst, rel)

		if d.IsDir() {
			if p != localeSrc && imagemap.IsHidden(d.Name()) {
				return filepath.SkipDir
			}
			return os.MkdirAll(dstPath, 0o755)
		}

		slashRel := filepath.ToSlash(rel)
		stats.Files++
		if r.excluded(slashRel) {
			stats.Excluded++
			return nil
		}

		if _, err := os.Stat(dstPath); err == nil {
			replace, err := r.replacer.Replace(slashRel)
			if err != nil {
				return err
			}
			if !replace {
				stats.Kept++
				return nil
			}
			if err := os.Remove(dstPath); err != nil {
				return err
			}
		}

		switch kindFor(d.Name()) {
		case kindImage:
			if _, ok := images.Lookup(imagemap.KeyFor(slashRel)); !ok {
				stats.ImagesShared++
				return nil
			}
			stats.ImagesCopied++
			return copyFile(p, dstPath)

		case kindText:
			c := imgtag.Context{
				Dir:        filepath.Dir(p),
				LocaleRoot: localeSrc,
				BaseRoot:   baseSrc,
				Locale:     images,
				Base:       base,
			}
			var pageDeco Decorator
			if isPage(d.Name()) {
				pageDeco = deco
			}
			written, err := r.rewriteText(p, dstPath, filepath.Join(baseSrc, rel), slashRel, c, pageDeco)
			if err != nil {
				return err
			}
			if !written {
				log.Warn("error copying file, skipped", "file", slashRel, "error", "invalid UTF-8")
				stats.Warnings++
				return nil
			}
			stats.Pages++
			return nil

		default:
			stats.Copied++
			return copyFile(p, dstPath)
		}
	})
}

// rewriteText rewrites one page. It reports false when the source is not
// valid UTF-8 and nothing was written.
func (r *Rewriter) rewriteText(srcPath, dstPath, basePath, rel string, c imgtag.Context, deco Decorator) (bool, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(string(data)) == "" && basePath != srcPath {
		// Untranslated stub: publish the base locale's page instead.
		data, err = os.ReadFile(basePath)
		if err != nil {
			return false, fmt.Errorf("empty %s has no base counterpart: %w", rel, err)
		}
	}
	if !utf8.Valid(data) {
		return false, nil
	}

	text := imgtag.RewriteAll(string(data), c)
	if deco != nil {
		text = deco.Decorate(text, rel)
	}
	if err := os.WriteFile(dstPath, []byte(text), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	return true, nil
}

func (r *Rewriter) excluded(rel string) bool {
	name := filepath.Base(rel)
	for _, g := range r.exclude {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
