package decoder

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalMAG constructs a 2x1, 16-color, non-interlaced MAG image with
// an empty comment and a zero-length flag table, so every pixel is encoded
// directly in the pixel-data section (flag 0, "new pixel data").
func buildMinimalMAG() []byte {
	data := make([]byte, 91)
	copy(data[0:8], []byte("MAKI02  "))
	data[8] = 0x1A // empty comment, EOF mark

	// header region starts at offset 9
	// screen_mode (idx 12) left 0: 16-color, non-200-line
	binary.LittleEndian.PutUint16(data[13:15], 0) // x1
	binary.LittleEndian.PutUint16(data[15:17], 0) // y1
	binary.LittleEndian.PutUint16(data[17:19], 1) // x2 -> width = 2
	binary.LittleEndian.PutUint16(data[19:21], 0) // y2 -> height = 1
	binary.LittleEndian.PutUint32(data[21:25], 0) // flag_a_offset (relative)
	binary.LittleEndian.PutUint32(data[25:29], 0) // flag_b_offset (relative, equal -> zero-size flag table)
	binary.LittleEndian.PutUint32(data[29:33], 0) // flag_b_size (unused by decode)
	binary.LittleEndian.PutUint32(data[33:37], 80) // pixel_offset (relative)
	binary.LittleEndian.PutUint32(data[37:41], 2)  // pixel_size (unused by decode)

	// palette starts at offset+32 = 41, 16 entries of (G,R,B)
	// index 1 -> red
	data[44], data[45], data[46] = 0, 255, 0
	// index 2 -> green
	data[47], data[48], data[49] = 255, 0, 0

	// pixel data at 41+48=89: low nibble pair selects palette[1] then palette[2]
	data[89] = 0x12
	data[90] = 0x00

	return data
}

func TestDecodeMAGMinimal(t *testing.T) {
	raw := buildMinimalMAG()
	buf, meta, err := (magDecoder{}).Decode(bytes.NewReader(raw))
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

func TestDecodeMAGRejectsBadHeader(t *testing.T) {
	_, _, err := (magDecoder{}).Decode(bytes.NewReader([]byte("not a mag file at all")))
	assert.Error(t, err)
}
