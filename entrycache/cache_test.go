package entrycache

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgock999/SupraView-sub001/handler"
)

// tempReader is the minimal byteReader fake used by these tests: it writes
// the given bytes to a real temp file so the real zip handler can open it,
// exactly mirroring what archivemgr.Manager does in production.
type tempReader struct{ dir string }

func (r *tempReader) MaterializeTemp(data []byte, suggestedName string) (string, func(), error) {
	p := filepath.Join(r.dir, suggestedName)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", nil, err
	}
	return p, func() { os.Remove(p) }, nil
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestBuildNestedZipResolution(t *testing.T) {
	pngBytes := append([]byte{0x89, 0x50, 0x4E, 0x47}, bytes.Repeat([]byte{0}, 96)...) // 100 bytes, PNG signature
	require.Len(t, pngBytes, 100)

	innerZip := buildZip(t, map[string][]byte{"pics/cat.png": pngBytes})
	outerZip := buildZip(t, map[string][]byte{"inner.zip": innerZip})

	dir := t.TempDir()
	outerPath := filepath.Join(dir, "archive.zip")
	require.NoError(t, os.WriteFile(outerPath, outerZip, 0o600))

	reg := handler.NewDefaultRegistry()
	b := &Builder{Registry: reg, Reader: &tempReader{dir: dir}}

	cache, err := b.Build(context.Background(), outerPath)
	require.NoError(t, err)

	for _, key := range []string{"", "inner.zip", "inner.zip/pics", "inner.zip/pics/cat.png"} {
		_, ok := cache.Get(key)
		assert.True(t, ok, "missing key %q", key)
	}

	_, ok := cache.Get("inner.zip")
	require.True(t, ok)
	assert.Equal(t, pngBytes, mustReadNested(t, reg, outerPath, dir))
}

// mustReadNested re-derives the bytes the way archivemgr.ExtractItem would,
// purely to assert scenario 1's literal claim (100 bytes starting 89 50 4E 47).
func mustReadNested(t *testing.T, reg *handler.Registry, outerPath, dir string) []byte {
	t.Helper()
	h := reg.GetHandler(outerPath)
	require.NoError(t, h.SetCurrentPath(context.Background(), outerPath))
	entries, err := h.ListAllEntries(context.Background())
	require.NoError(t, err)
	var innerName string
	for _, e := range entries {
		if e.Name == "inner.zip" {
			innerName = e.NameInArc
		}
	}
	require.NotEmpty(t, innerName)
	innerBytes, err := h.ReadFile(context.Background(), innerName)
	require.NoError(t, err)

	tmp := filepath.Join(dir, "inner.zip")
	require.NoError(t, os.WriteFile(tmp, innerBytes, 0o600))

	zh := handler.NewZipHandler()
	require.NoError(t, zh.SetCurrentPath(context.Background(), tmp))
	innerEntries, err := zh.ListAllEntries(context.Background())
	require.NoError(t, err)
	var catName string
	for _, e := range innerEntries {
		if e.RelPath == "pics/cat.png" {
			catName = e.NameInArc
		}
	}
	require.NotEmpty(t, catName)
	data, err := zh.ReadFile(context.Background(), catName)
	require.NoError(t, err)
	return data
}

func TestSynthesizedParents(t *testing.T) {
	z := buildZip(t, map[string][]byte{"a/b/leaf.txt": []byte("hi")})
	dir := t.TempDir()
	p := filepath.Join(dir, "x.zip")
	require.NoError(t, os.WriteFile(p, z, 0o600))

	reg := handler.NewDefaultRegistry()
	b := &Builder{Registry: reg, Reader: &tempReader{dir: dir}}
	cache, err := b.Build(context.Background(), p)
	require.NoError(t, err)

	for _, key := range []string{"", "a", "a/b", "a/b/leaf.txt"} {
		_, ok := cache.Get(key)
		assert.True(t, ok, "missing synthesized parent %q", key)
	}
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, NaturalLess("img1.png", "img2.png"))
	assert.True(t, NaturalLess("img2.png", "img10.png"))
	assert.False(t, NaturalLess("img10.png", "img2.png"))
}
