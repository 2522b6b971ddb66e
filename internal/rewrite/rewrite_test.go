package rewrite

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docloc/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type upper struct{}

func (upper) Decorate(text, rel string) string {
	return "<!-- " + rel + " -->" + text
}

func docFixture(t *testing.T) string {
	t.Helper()

	src := t.TempDir()
	testutils.WriteFile(t, src, "en/html/guide/foo.png", testutils.PNG(120, 40, 0))
	testutils.WriteFile(t, src, "en/html/guide/local.png", testutils.PNG(8, 8, 0))
	testutils.WriteFile(t, src, "en/html/icons/and.gif", []byte("GIF89a-en"))
	testutils.WriteString(t, src, "en/html/guide/index.html", `<p><img src="foo.png"></p>`)
	testutils.WriteString(t, src, "en/html/stub.html", `<p>English <img src="guide/foo.png"></p>`)
	testutils.WriteString(t, src, "en/map.jhm", `<map></map>`)

	testutils.WriteFile(t, src, "de/html/guide/foo.png", testutils.PNG(120, 40, 0))
	testutils.WriteFile(t, src, "de/html/guide/local.png", testutils.PNG(9, 7, 1))
	testutils.WriteString(t, src, "de/html/guide/index.html", `<p><img src="foo.png"> <img src="local.png"> <img src="../icons/and.gif" width="32" height="32"></p>`)
	testutils.WriteString(t, src, "de/html/stub.html", "  \n")
	testutils.WriteFile(t, src, "de/html/bad.html", []byte{'<', 'p', '>', 0xff, 0xfe})
	testutils.WriteString(t, src, "de/html/style.css", "p { color: red }")
	testutils.WriteString(t, src, "de/map.jhm", `<map><mapID target="x" url="html/guide/index.html"/></map>`)
	testutils.WriteString(t, src, "de/.svn/entries", "svn")
	return src
}

func TestCopyLocale_SharedImagesResolveToBase(t *testing.T) {
	src := docFixture(t)
	dst := t.TempDir()

	r, err := New(src, dst, nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)

	var stats Stats
	require.NoError(t, r.CopyLocale(context.Background(), "de", nil, &stats))

	assert.False(t, testutils.Exists(dst, "de/html/guide/foo.png"), "identical image must not be duplicated")
	assert.True(t, testutils.Exists(dst, "de/html/guide/local.png"), "locale-specific image must be copied")
	assert.False(t, testutils.Exists(dst, "de/.svn"), "hidden directories are skipped")

	page := testutils.ReadString(t, dst, "de/html/guide/index.html")
	assert.Equal(t,
		`<p><img src="../../../en/html/guide/foo.png" width="120" height="40"> <img src="local.png" width="9" height="7"> <img src="../../../en/html/icons/and.gif" width="32" height="32"></p>`,
		page)

	assert.Equal(t, 1, stats.ImagesCopied)
	assert.Equal(t, 1, stats.ImagesShared)
	assert.Equal(t, 1, stats.Warnings)
}

func TestCopyLocale_EmptyStubUsesBasePage(t *testing.T) {
	src := docFixture(t)
	dst := t.TempDir()

	r, err := New(src, dst, nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)
	require.NoError(t, r.CopyLocale(context.Background(), "de", nil, &Stats{}))

	stub := testutils.ReadString(t, dst, "de/html/stub.html")
	assert.Equal(t, `<p>English <img src="../../en/html/guide/foo.png" width="120" height="40"></p>`, stub)
}

func TestCopyLocale_EmptyStubWithoutBaseIsFatal(t *testing.T) {
	src := docFixture(t)
	testutils.WriteString(t, src, "de/html/lonely.html", "")

	r, err := New(src, t.TempDir(), nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)
	err = r.CopyLocale(context.Background(), "de", nil, &Stats{})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCopyLocale_InvalidUTF8IsSkipped(t *testing.T) {
	src := docFixture(t)
	dst := t.TempDir()
	var logs bytes.Buffer

	r, err := New(src, dst, nil, NewReplacer(PolicySkip, nil, nil), slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	require.NoError(t, r.CopyLocale(context.Background(), "de", nil, &Stats{}))

	assert.False(t, testutils.Exists(dst, "de/html/bad.html"))
	assert.Contains(t, logs.String(), "html/bad.html")
}

func TestCopyLocale_DecoratesPagesOnly(t *testing.T) {
	src := docFixture(t)
	dst := t.TempDir()

	r, err := New(src, dst, nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)
	require.NoError(t, r.CopyLocale(context.Background(), "de", upper{}, &Stats{}))

	assert.True(t, strings.HasPrefix(testutils.ReadString(t, dst, "de/html/guide/index.html"), "<!-- html/guide/index.html -->"))
	assert.Equal(t, `<map><mapID target="x" url="html/guide/index.html"/></map>`, testutils.ReadString(t, dst, "de/map.jhm"))
	assert.Equal(t, "p { color: red }", testutils.ReadString(t, dst, "de/html/style.css"))
}

func TestCopyLocale_Exclusions(t *testing.T) {
	src := docFixture(t)
	dst := t.TempDir()

	r, err := New(src, dst, []string{"map.jhm", "html/*.css"}, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)

	var stats Stats
	require.NoError(t, r.CopyLocale(context.Background(), "de", nil, &stats))
	assert.False(t, testutils.Exists(dst, "de/map.jhm"))
	assert.False(t, testutils.Exists(dst, "de/html/style.css"))
	assert.Equal(t, 2, stats.Excluded)
}

func TestCopyLocale_BaseLocaleCopiesAllImages(t *testing.T) {
	src := docFixture(t)
	dst := t.TempDir()

	r, err := New(src, dst, nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)
	require.NoError(t, r.CopyLocale(context.Background(), "en", nil, &Stats{}))

	assert.True(t, testutils.Exists(dst, "en/html/guide/foo.png"))
	assert.True(t, testutils.Exists(dst, "en/html/icons/and.gif"))
	assert.Equal(t, `<p><img src="foo.png" width="120" height="40"></p>`, testutils.ReadString(t, dst, "en/html/guide/index.html"))
}

func TestCopyLocale_Idempotent(t *testing.T) {
	src := docFixture(t)
	first, second := t.TempDir(), t.TempDir()

	for _, dst := range []string{first, second} {
		r, err := New(src, dst, nil, NewReplacer(PolicySkip, nil, nil), discard)
		require.NoError(t, err)
		for _, loc := range []string{"en", "de"} {
			require.NoError(t, r.CopyLocale(context.Background(), loc, upper{}, &Stats{}))
		}
	}

	assert.Equal(t, snapshot(t, first), snapshot(t, second))
}

func TestCopyLocale_ReplacePolicies(t *testing.T) {
	src := docFixture(t)

	tests := map[string]struct {
		policy    Policy
		want      string
		wantAbort bool
	}{
		"skip keeps the existing file": {policy: PolicySkip, want: "old"},
		"overwrite replaces it":        {policy: PolicyOverwrite, want: "p { color: red }"},
		"abort stops the run":          {policy: PolicyAbort, want: "old", wantAbort: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dst := t.TempDir()
			testutils.WriteString(t, dst, "de/html/style.css", "old")

			r, err := New(src, dst, nil, NewReplacer(tc.policy, nil, nil), discard)
			require.NoError(t, err)
			err = r.CopyLocale(context.Background(), "de", nil, &Stats{})
			if tc.wantAbort {
				require.ErrorIs(t, err, ErrAborted)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, testutils.ReadString(t, dst, "de/html/style.css"))
		})
	}
}

func TestCopyLocale_MissingLocale(t *testing.T) {
	src := docFixture(t)
	r, err := New(src, t.TempDir(), nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)
	require.Error(t, r.CopyLocale(context.Background(), "ru", nil, &Stats{}))
}

func TestCopyLocale_Cancelled(t *testing.T) {
	src := docFixture(t)
	r, err := New(src, t.TempDir(), nil, NewReplacer(PolicySkip, nil, nil), discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.CopyLocale(ctx, "de", nil, &Stats{}), context.Canceled)
}

func TestNew_BadPattern(t *testing.T) {
	_, err := New(t.TempDir(), t.TempDir(), []string{"[unclosed"}, NewReplacer(PolicySkip, nil, nil), discard)
	require.Error(t, err)
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}
