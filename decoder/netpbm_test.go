package decoder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePPMAscii(t *testing.T) {
	src := "P3\n2 1\n255\n255 0 0  0 255 0\n"
	buf, meta, err := (netpbmDecoder{}).Decode(bytes.NewReader([]byte(src)))
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Width)
	assert.Equal(t, 1, meta.Height)

	r, g, b, _ := buf.Img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)

	r, g, b, _ = buf.Img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0), b)
}

func TestDecodePGMBinary(t *testing.T) {
	header := []byte("P5\n2 2\n255\n")
	pixels := []byte{10, 20, 30, 40}
	buf, meta, err := (netpbmDecoder{}).Decode(bytes.NewReader(append(header, pixels...)))
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Width)
	assert.Equal(t, 2, meta.Height)

	gr, _, _, _ := buf.Img.At(0, 0).RGBA()
	assert.Equal(t, uint32(10)*0x101, gr)
}

func TestDecodePBMAscii(t *testing.T) {
	src := "P1\n3 1\n1 0 1\n"
	buf, meta, err := (netpbmDecoder{}).Decode(bytes.NewReader([]byte(src)))
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Width)

	gr, _, _, _ := buf.Img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), gr) // 1 = black

	gr, _, _, _ = buf.Img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), gr) // 0 = white
}

func TestDefaultRegistryCoversAllExtensions(t *testing.T) {
	r := NewDefaultRegistry()
	for _, ext := range []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp", "ppm", "pgm", "pbm", "mag", "ico"} {
		_, ok := r.Get(ext)
		assert.Truef(t, ok, "expected decoder registered for %q", ext)
	}
}
