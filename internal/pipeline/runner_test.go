package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docloc/internal/rewrite"
	"github.com/dgallion1/docloc/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func docTree(t *testing.T) string {
	t.Helper()

	src := t.TempDir()
	page := `<html><head><title>Start</title></head><body><img src="../images/logo.png"></body></html>`

	testutils.WriteString(t, src, "en/html/contents.html", `<a id="top">Top</a><a id="guide">Guide</a>`)
	testutils.WriteString(t, src, "en/html/index.html", page)
	testutils.WriteString(t, src, "en/html/guide.html", "<html><head></head><body>English guide</body></html>")
	testutils.WriteFile(t, src, "en/images/logo.png", testutils.PNG(10, 20, 0))
	testutils.WriteString(t, src, "en/map.jhm", `<map version="1.0">
<mapID target="top" url="html/index.html"/>
<mapID target="guide" url="html/guide.html"/>
</map>`)
	testutils.WriteString(t, src, "en/doc.hs", "<helpset/>")

	testutils.WriteString(t, src, "de/html/contents.html", `<a id="guide">Anleitung</a>`)
	testutils.WriteString(t, src, "de/html/index.html", page)
	testutils.WriteString(t, src, "de/html/guide.html", "\n")
	testutils.WriteFile(t, src, "de/images/logo.png", testutils.PNG(10, 20, 0))

	testutils.WriteString(t, src, "support/base-contents.xml", `<toc version="2.0">
<tocitem target="top">
<tocitem target="guide"/>
</tocitem>
</toc>`)
	testutils.WriteString(t, src, "support/base-map.jhm", `<map version="1.0">
<mapID target="top" url="html/index.html"/>
<mapID target="guide" url="html/guide.html"/>
</map>`)
	testutils.WriteString(t, src, "support/base-doc.hs", `<helpset><title>{lang}</title><data>map_{lang}.jhm</data></helpset>`)
	return src
}

func newRunner(src, dst string, locales ...string) *Runner {
	return NewRunner(Options{SrcDir: src, DstDir: dst, Locales: locales}, rewrite.NewReplacer(rewrite.PolicyOverwrite, nil, nil), discard)
}

func TestLocales_Discovered(t *testing.T) {
	r := newRunner(docTree(t), t.TempDir())
	locales, err := r.Locales()
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en"}, locales)

	r = newRunner(t.TempDir(), t.TempDir())
	_, err = r.Locales()
	require.Error(t, err)
}

func TestBuildDocs(t *testing.T) {
	src := docTree(t)
	dst := t.TempDir()
	testutils.WriteString(t, dst, "map_en.jhm", "keep")

	r := newRunner(src, dst)
	require.NoError(t, r.BuildDocs(context.Background()))

	page := testutils.ReadString(t, dst, "de/html/index.html")
	assert.Contains(t, page, `<img src="../../en/images/logo.png" width="10" height="20">`)
	assert.False(t, testutils.Exists(dst, "de/images/logo.png"), "identical image is shared with English")
	assert.True(t, testutils.Exists(dst, "en/images/logo.png"))
	assert.Equal(t, "<html><head></head><body>English guide</body></html>", testutils.ReadString(t, dst, "de/html/guide.html"))

	contents := testutils.ReadString(t, dst, "de/contents.xml")
	assert.Contains(t, contents, `<tocitem target="top" text="Top">`)
	assert.Contains(t, contents, `<tocitem target="guide" text="Anleitung"/>`)

	assert.Contains(t, testutils.ReadString(t, dst, "map_de.jhm"), `url="de/html/index.html"`)
	assert.Equal(t, "keep", testutils.ReadString(t, dst, "map_en.jhm"), "existing aggregates are kept")
	assert.Equal(t, "<helpset><title>de</title><data>map_de.jhm</data></helpset>", testutils.ReadString(t, dst, "doc_de.hs"))

	jobs := r.Jobs()
	require.Len(t, jobs, 2)
	de := jobs[0]
	assert.Equal(t, "de", de.Locale)
	assert.Equal(t, StatusCompleted, de.Status)
	assert.Equal(t, 4, de.Progress.Files)
	assert.Equal(t, 3, de.Progress.Pages)
	assert.Equal(t, 1, de.Progress.ImagesShared)
	assert.Equal(t, 0, de.Progress.ImagesCopied)

	en := jobs[1]
	assert.Equal(t, 1, en.Progress.ImagesCopied)
}

func TestBuildDocs_MissingTemplates(t *testing.T) {
	src := docTree(t)
	dst := t.TempDir()
	require.NoError(t, os.RemoveAll(filepath.Join(src, "support")))

	err := newRunner(src, dst, "de").BuildDocs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read template")
	assert.True(t, testutils.Exists(dst, "de/html/index.html"), "locales are copied before aggregates")
}

func TestBuildDocs_MissingLocaleFails(t *testing.T) {
	r := newRunner(docTree(t), t.TempDir(), "ru")
	err := r.BuildDocs(context.Background())
	require.Error(t, err)

	jobs := r.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, StatusFailed, jobs[0].Status)
	assert.NotEmpty(t, jobs[0].Errors)
}

func TestBuildDocs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newRunner(docTree(t), t.TempDir()).BuildDocs(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildWebsite(t *testing.T) {
	src := docTree(t)
	dst := t.TempDir()

	r := newRunner(src, dst, "de")
	require.NoError(t, r.BuildWebsite(context.Background()))

	page := testutils.ReadString(t, dst, "de/html/index.html")
	assert.Contains(t, page, `<ul id="maptree" class="treeview">`)
	assert.Contains(t, page, `Anleitung`)
	assert.Contains(t, page, `<div id="content">`)
	assert.False(t, testutils.Exists(dst, "de/contents.xml"))
	assert.False(t, testutils.Exists(dst, "map_de.jhm"))
	assert.Equal(t, StatusCompleted, r.Jobs()[0].Status)
}

func TestBuildWebsite_RefusesSourceTree(t *testing.T) {
	src := docTree(t)
	err := newRunner(src, filepath.Join(src, "en")).BuildWebsite(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source directory")
}

func TestWriteReport(t *testing.T) {
	src := docTree(t)
	dst := t.TempDir()
	r := newRunner(src, dst, "de")
	require.NoError(t, r.BuildWebsite(context.Background()))

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, r.WriteReport(path, "www"))

	var rep Report
	require.NoError(t, yaml.Unmarshal([]byte(testutils.ReadString(t, filepath.Dir(path), "report.yaml")), &rep))
	assert.Equal(t, "www", rep.Command)
	require.Len(t, rep.Jobs, 1)
	assert.Equal(t, "de", rep.Jobs[0].Locale)
	assert.Equal(t, StatusCompleted, rep.Jobs[0].Status)
	assert.Equal(t, 3, rep.Jobs[0].Progress.Pages)
}
