// Package testutils builds documentation fixture trees for tests.
package testutils

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// PNG returns the first bytes of a PNG file declaring the given size. The
// extra byte makes otherwise equal sizes distinguishable by content.
func PNG(width, height int, extra byte) []byte {
	b := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
	b = binary.BigEndian.AppendUint32(b, uint32(width))
	b = binary.BigEndian.AppendUint32(b, uint32(height))
	return append(b, 8, 6, 0, 0, 0, extra)
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel string, content []byte) string {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755), "Setup: cannot create fixture directory")
	require.NoError(t, os.WriteFile(p, content, 0o644), "Setup: cannot write fixture file")
	return p
}

// WriteString is WriteFile for text fixtures.
func WriteString(t *testing.T, root, rel, content string) string {
	t.Helper()
	return WriteFile(t, root, rel, []byte(content))
}

// ReadString reads root/rel and fails the test when it is missing.
func ReadString(t *testing.T, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err, "cannot read %s", rel)
	return string(data)
}

// Exists reports whether root/rel exists.
func Exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}
