package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgock999/SupraView-sub001/arcerr"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"a/b", "a/b"},
		{`a\b`, "a/b"},
		{"a//b", "a/b"},
		{"./a/b", "a/b"},
		{"a/./b", "a/b"},
		{"a/b/..", "a"},
		{"/a/b", "/a/b"},
		{`C:\Users\pics`, "C:/Users/pics"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestNormalizeAboveRoot(t *testing.T) {
	_, err := Normalize("..")
	assert.ErrorIs(t, err, arcerr.ErrInvalidPath)
}

func TestNormalizeRejectsNUL(t *testing.T) {
	_, err := Normalize("a\x00b")
	require.Error(t, err)
}

func TestSplitBoundary(t *testing.T) {
	base, internal, err := SplitBoundary("archive.zip:/inner/sub")
	require.NoError(t, err)
	assert.Equal(t, "archive.zip", base)
	assert.Equal(t, "inner/sub", internal)

	base, internal, err = SplitBoundary("plain/dir")
	require.NoError(t, err)
	assert.Equal(t, "plain/dir", base)
	assert.Equal(t, "", internal)
}

func TestParentBase(t *testing.T) {
	assert.Equal(t, "a/b", Parent("a/b/c.png"))
	assert.Equal(t, "c.png", Base("a/b/c.png"))
	assert.Equal(t, "", Parent("top.png"))
}

