package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/entrycache"
)

var pngExts = map[string]bool{"png": true}

func buildCache(rels ...string) *entrycache.Cache {
	entries := make(map[string]*entry.Info)
	for _, r := range rels {
		entries[r] = &entry.Info{Name: baseOf(r), RelPath: r, Type: entry.File}
	}
	return entrycache.FromEntries(entries)
}

func baseOf(r string) string {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == '/' {
			return r[i+1:]
		}
	}
	return r
}

func TestFolderBoundaryNavigation(t *testing.T) {
	cache := buildCache("a/1.png", "a/2.png", "b/1.png", "b/2.png")
	c, err := New(cache, pngExts, 1, false, false)
	require.NoError(t, err)

	require.NoError(t, c.Jump("a/2.png"))
	assert.Equal(t, 1, c.Index())

	c.NextFolder()
	assert.Equal(t, 2, c.Index())
	assert.Equal(t, []string{"b/1.png"}, c.GetCurrent())

	c.PrevFolder()
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, []string{"a/1.png"}, c.GetCurrent())
}

func TestDualModeWithShift(t *testing.T) {
	cache := buildCache("p0.png", "p1.png", "p2.png", "p3.png", "p4.png")
	c, err := New(cache, pngExts, 2, true, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"p0.png"}, c.GetCurrent())

	c.Next()
	assert.Equal(t, 1, c.Index())
	assert.Equal(t, []string{"p1.png", "p2.png"}, c.GetCurrent())

	c.Next()
	assert.Equal(t, 3, c.Index())
	assert.Equal(t, []string{"p3.png", "p4.png"}, c.GetCurrent())
}

func TestJumpRoundTrip(t *testing.T) {
	cache := buildCache("a/1.png", "a/2.png", "b/1.png")
	c, err := New(cache, pngExts, 1, false, false)
	require.NoError(t, err)

	for _, p := range []string{"a/1.png", "a/2.png", "b/1.png"} {
		require.NoError(t, c.Jump(p))
		assert.Equal(t, p, c.GetCurrent()[0])
	}

	err = c.Jump("missing.png")
	assert.Error(t, err)
}

func TestNextPrevReturnsToOriginalIndex(t *testing.T) {
	cache := buildCache("a/1.png", "a/2.png", "a/3.png")
	c, err := New(cache, pngExts, 1, false, false)
	require.NoError(t, err)

	require.NoError(t, c.Jump("a/2.png"))
	start := c.Index()

	c.Next()
	c.Prev()
	assert.Equal(t, start, c.Index())
}

func TestBoundaryClampEmitsStatus(t *testing.T) {
	cache := buildCache("a/1.png")
	c, err := New(cache, pngExts, 1, false, false)
	require.NoError(t, err)

	var msgs []string
	c.StatusFunc = func(m string) { msgs = append(msgs, m) }

	c.Prev()
	c.Next()
	assert.Len(t, msgs, 2)
}

func TestRTLReversesDisplayOrder(t *testing.T) {
	cache := buildCache("p0.png", "p1.png")
	c, err := New(cache, pngExts, 2, false, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1.png", "p0.png"}, c.GetCurrent())
}
