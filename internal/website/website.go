// Package website builds the translated marketing website from per-locale
// page fragments and a per-locale page template.
package website

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docloc/internal/imagemap"
	"github.com/dgallion1/docloc/internal/locale"
	"github.com/yuin/goldmark"
)

// RootDir is the source directory publishing the base locale.
const RootDir = "root"

const templateFile = "template.html"

var (
	templateHead = regexp.MustCompile(`(?s)<head>\s*<meta http-equiv="content-type[^>]*>\s*(\S.*)</head>`)
	templateBody = regexp.MustCompile(`(?s)<body>(.*)</body>`)
	pageBody     = regexp.MustCompile(`(?s)<body>(.*)</body>`)
	langMenuTag  = regexp.MustCompile(`<langmenu\s*/?>`)
	contentsTag  = regexp.MustCompile(`<contents\s*/?>`)
)

// copied lists the extensions published unchanged.
var copied = map[string]bool{
	".png": true,
	".css": true,
	".ico": true,
}

// Language is one source directory of the website.
type Language struct {
	Code string
	Dir  string
}

// Builder publishes the website.
type Builder struct {
	src string
	dst string
	log *slog.Logger
	md  goldmark.Markdown
}

// NewBuilder returns a Builder reading src and writing dst.
func NewBuilder(src, dst string, log *slog.Logger) *Builder {
	return &Builder{
		src: src,
		dst: dst,
		log: log,
		md:  goldmark.New(),
	}
}

// Languages lists the source directories. The base locale directory is
// ignored; its pages live in RootDir.
func (b *Builder) Languages() ([]Language, error) {
	entries, err := os.ReadDir(b.src)
	if err != nil {
		return nil, fmt.Errorf("read website source: %w", err)
	}
	var langs []Language
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == locale.Base || imagemap.IsHidden(name) {
			continue
		}
		code := name
		if name == RootDir {
			code = locale.Base
		}
		langs = append(langs, Language{Code: code, Dir: filepath.Join(b.src, name)})
	}
	return langs, nil
}

// Index collects which locales publish each page.
func (b *Builder) Index(langs []Language) (Pages, error) {
	pages := make(Pages)
	for _, l := range langs {
		entries, err := os.ReadDir(l.Dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if name, ok := publishedName(e.Name()); ok {
				pages[name] = append(pages[name], l.Code)
			}
		}
	}
	for _, langs := range pages {
		sort.Strings(langs)
	}
	return pages, nil
}

// Build publishes every language.
func (b *Builder) Build(ctx context.Context) error {
	langs, err := b.Languages()
	if err != nil {
		return err
	}
	b.log.Info("determining HTML files available", "languages", len(langs))
	pages, err := b.Index(langs)
	if err != nil {
		return err
	}

	for _, l := range langs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.buildLanguage(l, pages); err != nil {
			return fmt.Errorf("build %s: %w", l.Code, err)
		}
	}
	b.log.Info("HTML generation complete")
	return nil
}

func (b *Builder) buildLanguage(l Language, pages Pages) error {
	log := b.log.With("locale", l.Code)
	log.Info("building directory")

	head, body, err := b.loadTemplate(l, log)
	if err != nil {
		return err
	}

	dst := b.dst
	if l.Code != locale.Base {
		dst = filepath.Join(b.dst, l.Code)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		srcPath := filepath.Join(l.Dir, name)

		if copied[filepath.Ext(name)] {
			if err := copyFile(srcPath, filepath.Join(dst, name)); err != nil {
				return err
			}
			continue
		}
		published, ok := publishedName(name)
		if !ok {
			continue
		}

		text, err := b.readPage(srcPath)
		if err != nil {
			return err
		}
		text = Compose(text, head, body, LangMenu(pages, published, l.Code))
		if err := os.WriteFile(filepath.Join(dst, published), []byte(text), 0o644); err != nil {
			return err
		}
		log.Debug("page written", "file", published)
	}
	return nil
}

// loadTemplate returns the head and body of the language's page template.
// Without a template the head is empty and the body is the page itself.
func (b *Builder) loadTemplate(l Language, log *slog.Logger) (string, string, error) {
	head, body := "", "<contents />"

	data, err := os.ReadFile(filepath.Join(l.Dir, templateFile))
	if os.IsNotExist(err) {
		return head, body, nil
	}
	if err != nil {
		return "", "", err
	}

	text := string(data)
	if m := templateHead.FindStringSubmatch(text); m != nil {
		head = m[1]
	} else {
		log.Warn("template: no head", "length", len(text))
	}
	if m := templateBody.FindStringSubmatch(text); m != nil {
		body = m[1]
	} else {
		log.Warn("template: no body", "length", len(text))
	}
	return head, body, nil
}

// readPage returns the page as HTML, rendering Markdown fragments.
func (b *Builder) readPage(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	if filepath.Ext(p) != ".md" {
		return string(data), nil
	}

	var buf bytes.Buffer
	if err := b.md.Convert(data, &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", filepath.Base(p), err)
	}
	return "<html>\n<head>\n</head>\n<body>" + buf.String() + "</body>\n</html>\n", nil
}

// Compose merges a page into its language template: the template head goes
// before </head>, the page body is replaced by the template body, and the
// <langmenu/> and <contents/> placeholders are filled in.
func Compose(page, head, body, menu string) string {
	page = strings.ReplaceAll(page, "</head>", head+"</head>")

	content := ""
	if loc := pageBody.FindStringSubmatchIndex(page); loc != nil {
		content = page[loc[2]:loc[3]]
		page = page[:loc[0]] + "<body>" + body + "</body>" + page[loc[1]:]
	}
	page = langMenuTag.ReplaceAllLiteralString(page, menu)
	return contentsTag.ReplaceAllLiteralString(page, content)
}

// publishedName maps a source page to the file it is published as.
func publishedName(name string) (string, bool) {
	switch filepath.Ext(name) {
	case ".html":
		if name == templateFile {
			return "", false
		}
		return name, true
	case ".md":
		return strings.TrimSuffix(name, ".md") + ".html", true
	}
	return "", false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
