// Package locale discovers the translations present in a documentation tree.
package locale

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/language"
)

// Base is the canonical locale every other locale falls back to.
const Base = "en"

// Unknown is rendered in place of a display name the table does not know.
const Unknown = "???"

var displayNames = map[string]string{
	"de": "Deutsch",
	"el": "Ελληνικά",
	"en": "English",
	"es": "español",
	"pt": "Português",
	"ru": "Русский",
}

// DisplayName returns the native name of a two-letter locale code.
func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	return Unknown
}

// IsCode reports whether name is a well-formed two-letter language code.
// Codes missing from the ISO 639 registry are accepted; they render with the
// Unknown display name.
func IsCode(name string) bool {
	if len(name) != 2 {
		return false
	}
	_, err := language.ParseBase(name)
	var unknown language.ValueError
	return err == nil || errors.As(err, &unknown)
}

// Discover returns the sorted locale directories of a documentation source
// tree. A locale directory has a two-letter name and contains
// html/contents.html.
func Discover(srcDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var locales []string
	for _, e := range entries {
		if !e.IsDir() || !IsCode(e.Name()) {
			continue
		}
		contents := filepath.Join(srcDir, e.Name(), "html", "contents.html")
		if _, err := os.Stat(contents); err != nil {
			continue
		}
		locales = append(locales, e.Name())
	}
	sort.Strings(locales)
	return locales, nil
}

// URLPrefix is the directory prefix a locale is published under on the
// website. The base locale lives at the root.
func URLPrefix(code string) string {
	if code == Base {
		return ""
	}
	return code + "/"
}
