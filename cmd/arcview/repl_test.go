package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPNG is a valid 1x1 PNG, enough for decoder.Extensions to classify
// it as an image without needing a real decode.
var minimalPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 'I', 'D', 'A', 'T',
	0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00, 0x05,
	0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00,
	0x00, 0x00, 'I', 'E', 'N', 'D', 0xae, 0x42, 0x60, 0x82,
}

func writeDirFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "1.png"), minimalPNG, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "2.png"), minimalPNG, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "1.png"), minimalPNG, 0o644))
	return dir
}

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	var out bytes.Buffer
	s := &session{
		log:   log,
		mgr:   mustNewManager(log),
		pages: 1,
		out:   &out,
	}
	t.Cleanup(s.mgr.Close)
	return s, &out
}

func TestReplOpenAndListFolder(t *testing.T) {
	dir := writeDirFixture(t)
	s, out := newTestSession(t)

	require.NoError(t, s.open(context.Background(), dir))
	assert.Contains(t, out.String(), "3 images")

	out.Reset()
	ok := s.dispatch(context.Background(), "l a")
	assert.True(t, ok)
	assert.Contains(t, out.String(), "1.png")
	assert.Contains(t, out.String(), "2.png")
}

func TestReplNavigationCommands(t *testing.T) {
	dir := writeDirFixture(t)
	s, out := newTestSession(t)
	require.NoError(t, s.open(context.Background(), dir))

	out.Reset()
	s.dispatch(context.Background(), "n")
	assert.Contains(t, out.String(), "a/2.png")

	out.Reset()
	s.dispatch(context.Background(), "nn")
	assert.Contains(t, out.String(), "b/1.png")

	out.Reset()
	s.dispatch(context.Background(), "pp")
	assert.Contains(t, out.String(), "a/1.png")

	out.Reset()
	s.dispatch(context.Background(), "gl")
	assert.Contains(t, out.String(), "b/1.png")
}

func TestReplJumpUnknownFails(t *testing.T) {
	dir := writeDirFixture(t)
	s, out := newTestSession(t)
	require.NoError(t, s.open(context.Background(), dir))

	out.Reset()
	s.dispatch(context.Background(), "j nope.png")
	assert.Contains(t, out.String(), "error:")
}

func TestReplRequiresOpenRoot(t *testing.T) {
	s, out := newTestSession(t)
	ok := s.dispatch(context.Background(), "n")
	assert.True(t, ok)
	assert.Contains(t, out.String(), "no root open")
}

func TestReplQuitStopsLoop(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.dispatch(context.Background(), "Q"))
}

func TestReplToggleDualAndShift(t *testing.T) {
	dir := writeDirFixture(t)
	s, out := newTestSession(t)
	require.NoError(t, s.open(context.Background(), dir))

	out.Reset()
	s.dispatch(context.Background(), "A")
	assert.Contains(t, out.String(), "pages=2")

	out.Reset()
	s.dispatch(context.Background(), "T")
	assert.Contains(t, out.String(), "shift=true")
}

func TestReplFullLoop(t *testing.T) {
	dir := writeDirFixture(t)
	s, out := newTestSession(t)

	input := "S " + dir + "\nlf\nQ\n"
	err := s.loop(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "images")
}
