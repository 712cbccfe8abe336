package decoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// icoDecoder decodes the first directory entry of a Windows .ico file by
// re-framing it as a standalone PNG or BMP and handing that to image/png or
// golang.org/x/image/bmp, matching original_source/decoder/interface.py's dispatch by
// sniffing the entry's own magic bytes (spec §4.9a).
type icoDecoder struct{}

func (icoDecoder) Decode(r io.Reader) (PixelBuffer, Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico read: %w", err)
	}
	if len(data) < 6 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: file too short")
	}
	count := binary.LittleEndian.Uint16(data[4:6])
	if count == 0 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: no entries")
	}
	if len(data) < 6+16 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: truncated directory entry")
	}

	entry := data[6 : 6+16]
	bytesInRes := binary.LittleEndian.Uint32(entry[8:12])
	imageOffset := binary.LittleEndian.Uint32(entry[12:16])

	end := uint64(imageOffset) + uint64(bytesInRes)
	if imageOffset >= uint32(len(data)) || end > uint64(len(data)) {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: entry payload out of bounds")
	}
	payload := data[imageOffset : imageOffset+bytesInRes]

	if len(payload) >= 8 && bytes.Equal(payload[:8], pngSignature) {
		img, err := png.Decode(bytes.NewReader(payload))
		if err != nil {
			return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico png entry: %w", err)
		}
		buf, meta := bufferOf(img)
		return buf, meta, nil
	}

	return decodeICOBitmap(payload)
}

// decodeICOBitmap reframes a headerless BITMAPINFOHEADER DIB (the common
// form stored inside .ico entries) as a standalone BMP file: the DIB
// height field counts XOR+AND rows combined, so it's halved, and only the
// XOR color data is kept (the AND transparency mask is dropped).
func decodeICOBitmap(dib []byte) (PixelBuffer, Metadata, error) {
	if len(dib) < 40 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: DIB header too short")
	}
	headerSize := binary.LittleEndian.Uint32(dib[0:4])
	if headerSize < 40 || uint64(headerSize) > uint64(len(dib)) {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: invalid DIB header size %d", headerSize)
	}
	width := int32(binary.LittleEndian.Uint32(dib[4:8]))
	doubledHeight := int32(binary.LittleEndian.Uint32(dib[8:12]))
	bitCount := binary.LittleEndian.Uint16(dib[14:16])
	height := doubledHeight / 2
	if width <= 0 || height <= 0 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: invalid dimensions %dx%d", width, height)
	}

	clrUsed := binary.LittleEndian.Uint32(dib[32:36])
	var numColors uint32
	if bitCount <= 8 {
		numColors = clrUsed
		if numColors == 0 {
			numColors = 1 << bitCount
		}
	}
	paletteSize := numColors * 4

	if uint64(headerSize)+uint64(paletteSize) > uint64(len(dib)) {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: palette out of bounds")
	}

	rowSize := ((int64(width)*int64(bitCount) + 31) / 32) * 4
	xorSize := rowSize * int64(height)
	pixelStart := int64(headerSize) + int64(paletteSize)
	if pixelStart+xorSize > int64(len(dib)) {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico: pixel data out of bounds")
	}

	correctedHeader := make([]byte, headerSize)
	copy(correctedHeader, dib[:headerSize])
	binary.LittleEndian.PutUint32(correctedHeader[8:12], uint32(height))

	var buf bytes.Buffer
	pixelDataOffset := uint32(14) + headerSize + paletteSize
	buf.WriteString("BM")
	binary.Write(&buf, binary.LittleEndian, uint32(14)+headerSize+paletteSize+uint32(xorSize))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, pixelDataOffset)
	buf.Write(correctedHeader)
	buf.Write(dib[headerSize : headerSize+paletteSize])
	buf.Write(dib[pixelStart : pixelStart+xorSize])

	img, err := bmp.Decode(&buf)
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: ico bmp entry: %w", err)
	}
	pb, meta := bufferOf(img)
	return pb, meta, nil
}
