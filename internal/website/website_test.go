package website

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docloc/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const siteTemplate = `<html>
<head>
<meta http-equiv="content-type" content="text/html; charset=utf-8">
<link rel="stylesheet" href="site.css">
</head>
<body>
<langmenu/>
<div id="main"><contents /></div>
</body>
</html>
`

func siteFixture(t *testing.T) string {
	t.Helper()

	www := t.TempDir()
	testutils.WriteString(t, www, "root/template.html", siteTemplate)
	testutils.WriteString(t, www, "root/index.html", "<html><head><title>Home</title></head><body><p>Welcome</p></body></html>")
	testutils.WriteString(t, www, "root/about.md", "# About\n")
	testutils.WriteString(t, www, "root/site.css", "body {}")
	testutils.WriteString(t, www, "root/notes.txt", "private")
	testutils.WriteString(t, www, "de/index.html", "<html><head></head><body><p>Willkommen</p></body></html>")
	testutils.WriteString(t, www, "en/index.html", "<html><body>stale</body></html>")
	testutils.WriteString(t, www, ".git/index.html", "<html><body>hidden</body></html>")
	return www
}

func TestLangMenu(t *testing.T) {
	pages := Pages{"index.html": {"de", "en"}, "about.html": {"en"}}

	want := `<div class="langmenu"><table><tbody>
<tr><th>[de]</th><td>Deutsch</td></tr>
<tr>
    <th><a href="../index.html">[en]</a></th>
    <td><a href="../index.html">English</a></td>
</tr>
</tbody></table></div>`
	assert.Equal(t, want, LangMenu(pages, "index.html", "de"))

	en := LangMenu(pages, "index.html", "en")
	assert.Contains(t, en, `<th><a href="de/index.html">[de]</a></th>`)
	assert.Contains(t, en, `<tr><th>[en]</th><td>English</td></tr>`)

	assert.Empty(t, LangMenu(pages, "about.html", "en"), "single locale has no menu")
	assert.Empty(t, LangMenu(pages, "missing.html", "en"))
}

func TestLangMenu_UnknownLocale(t *testing.T) {
	pages := Pages{"index.html": {"en", "xx"}}
	assert.Contains(t, LangMenu(pages, "index.html", "en"), `<td><a href="xx/index.html">???</a></td>`)
}

func TestCompose(t *testing.T) {
	page := "<html><head><title>X</title></head><body><p>hi</p></body></html>"
	got := Compose(page, "<link href=\"s.css\">\n", "<div>\n<langmenu/>\n<contents />\n</div>", "MENU")

	want := "<html><head><title>X</title><link href=\"s.css\">\n</head><body><div>\nMENU\n<p>hi</p>\n</div></body></html>"
	assert.Equal(t, want, got)
}

func TestCompose_LiteralReplacement(t *testing.T) {
	got := Compose("<body>cost $1</body>", "", "<contents/>", "")
	assert.Equal(t, "<body>cost $1</body>", got)
}

func TestPublishedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"index.html", "index.html", true},
		{"about.md", "about.html", true},
		{"template.html", "", false},
		{"site.css", "", false},
	}
	for _, tt := range tests {
		got, ok := publishedName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIndex(t *testing.T) {
	www := siteFixture(t)
	b := NewBuilder(www, t.TempDir(), discard)

	langs, err := b.Languages()
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "de", langs[0].Code)
	assert.Equal(t, "en", langs[1].Code)
	assert.Equal(t, filepath.Join(www, "root"), langs[1].Dir)

	pages, err := b.Index(langs)
	require.NoError(t, err)
	assert.Equal(t, Pages{
		"index.html": {"de", "en"},
		"about.html": {"en"},
	}, pages)
}

func TestBuild(t *testing.T) {
	www := siteFixture(t)
	dst := t.TempDir()

	require.NoError(t, NewBuilder(www, dst, discard).Build(context.Background()))

	index := testutils.ReadString(t, dst, "index.html")
	assert.Contains(t, index, "<title>Home</title><link rel=\"stylesheet\" href=\"site.css\">\n</head>")
	assert.Contains(t, index, `<div id="main"><p>Welcome</p></div>`)
	assert.Contains(t, index, `<th><a href="de/index.html">[de]</a></th>`)
	assert.NotContains(t, index, "<langmenu")
	assert.NotContains(t, index, "<contents")

	de := testutils.ReadString(t, dst, "de/index.html")
	assert.Contains(t, de, "<body><p>Willkommen</p></body>")

	about := testutils.ReadString(t, dst, "about.html")
	assert.Contains(t, about, "<h1>About</h1>")
	assert.NotContains(t, about, "langmenu")

	assert.True(t, testutils.Exists(dst, "site.css"))
	assert.False(t, testutils.Exists(dst, "template.html"))
	assert.False(t, testutils.Exists(dst, "notes.txt"))
	assert.False(t, testutils.Exists(dst, "en"))
	assert.False(t, testutils.Exists(dst, ".git"))
}

func TestBuild_Cancelled(t *testing.T) {
	www := siteFixture(t)
	dst := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewBuilder(www, dst, discard).Build(ctx), context.Canceled)
	assert.False(t, testutils.Exists(dst, "index.html"))
}

func TestBuild_MissingSource(t *testing.T) {
	err := NewBuilder(filepath.Join(t.TempDir(), "nope"), t.TempDir(), discard).Build(context.Background())
	require.Error(t, err)
}
