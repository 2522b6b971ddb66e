// Package imagemap finds the raster images of a locale's documentation tree
// that cannot be shared with the base locale, and measures them.
package imagemap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrTruncatedHeader is returned when a PNG file is too short to carry its
// dimensions.
var ErrTruncatedHeader = errors.New("truncated png header")

// IconSize is the fixed edge length of GIF icons.
const IconSize = 16

const (
	headerLen    = 64
	widthOffset  = 16
	heightOffset = 20
)

// Key identifies an image inside a locale tree. Dir is slash separated and
// "." for the tree root.
type Key struct {
	Dir  string
	Name string
}

// KeyFor splits a slash-separated path relative to a locale root into a Key.
func KeyFor(rel string) Key {
	rel = path.Clean(rel)
	return Key{Dir: path.Dir(rel), Name: path.Base(rel)}
}

// Rel joins the key back into a relative slash path.
func (k Key) Rel() string {
	return path.Join(k.Dir, k.Name)
}

// Asset is a measured image.
type Asset struct {
	Path           string
	Width          int
	Height         int
	LocaleSpecific bool
}

// Map holds the images of one locale tree that must be published from that
// tree rather than from the base locale.
type Map map[Key]Asset

// Lookup returns the asset recorded for key.
func (m Map) Lookup(k Key) (Asset, bool) {
	a, ok := m[k]
	return a, ok
}

// IsRaster reports whether name is one of the supported raster formats.
func IsRaster(name string) bool {
	return strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".gif")
}

// IsHidden reports whether a directory entry is hidden and must be skipped.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Scan walks localeRoot and records every raster image that has no
// byte-identical counterpart at the same relative path under baseRoot. When
// both roots are the same directory every image is recorded.
func Scan(localeRoot, baseRoot string) (Map, error) {
	localeAbs, err := filepath.Abs(localeRoot)
	if err != nil {
		return nil, err
	}
	baseAbs, err := filepath.Abs(baseRoot)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(localeAbs); err != nil {
		return nil, fmt.Errorf("locale root: %w", err)
	}
	self := localeAbs == baseAbs

	images := make(Map)
	err = filepath.WalkDir(localeAbs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != localeAbs && IsHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsRaster(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(localeAbs, p)
		if err != nil {
			return err
		}
		if !self {
			same, err := sameContent(p, filepath.Join(baseAbs, rel))
			if err != nil {
				return err
			}
			if same {
				return nil
			}
		}

		w, h, err := Dimensions(p)
		if err != nil {
			return err
		}
		images[KeyFor(filepath.ToSlash(rel))] = Asset{
			Path:           p,
			Width:          w,
			Height:         h,
			LocaleSpecific: !self,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", localeRoot, err)
	}
	return images, nil
}

// Dimensions returns the pixel size of a supported raster image. GIF files
// are icons of a fixed size and are not opened.
func Dimensions(p string) (int, int, error) {
	if strings.HasSuffix(p, ".gif") {
		return IconSize, IconSize, nil
	}
	return PNGDimensions(p)
}

// PNGDimensions reads width and height from the IHDR chunk of a PNG file.
func PNGDimensions(p string) (int, int, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	header := make([]byte, headerLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, 0, fmt.Errorf("read %s: %w", p, err)
	}
	if n < heightOffset+4 {
		return 0, 0, fmt.Errorf("%s: %w (%d bytes)", p, ErrTruncatedHeader, n)
	}
	w := binary.BigEndian.Uint32(header[widthOffset:])
	h := binary.BigEndian.Uint32(header[heightOffset:])
	return int(w), int(h), nil
}

func sameContent(a, b string) (bool, error) {
	bi, err := os.Stat(b)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}

	ad, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	bd, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ad, bd), nil
}
