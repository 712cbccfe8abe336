package decoder

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// magDecoder reads X68000/PC-98 MAG images, ported from
// original_source/decoder/mag_decoder.py's _decode_mag, which in turn
// follows the MAGBIBLE.txt format spec. Flag-run-length pixel copying and
// the row-to-row XOR delta are both preserved verbatim; only the container
// (numpy array -> image.NRGBA) and error style change.
type magDecoder struct{}

// magCopyOffsets maps a non-zero flag nibble to the (dx, dy) cell it
// copies from, per MAGBIBLE.txt's flag table.
var magCopyOffsets = [16][2]int{
	0:  {0, 0}, // unused (flag 0 means "new pixel data", handled separately)
	1:  {-1, 0},
	2:  {-2, 0},
	3:  {-4, 0},
	4:  {0, -1},
	5:  {-1, -1},
	6:  {0, -2},
	7:  {-1, -2},
	8:  {-2, -2},
	9:  {0, -4},
	10: {-1, -4},
	11: {-2, -4},
	12: {0, -8},
	13: {-1, -8},
	14: {-2, -8},
	15: {0, -16},
}

func (magDecoder) Decode(r io.Reader) (PixelBuffer, Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: mag read: %w", err)
	}
	img, err := decodeMAG(data)
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: mag: %w", err)
	}
	buf, meta := bufferOf(img)
	return buf, meta, nil
}

func decodeMAG(data []byte) (*image.NRGBA, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("invalid MAG data: too short")
	}
	header := string(data[0:8])
	if header != "MAKI02  " && header != "MAKI03  " {
		return nil, fmt.Errorf("invalid MAG header: %q", header)
	}

	offset := 8
	for offset < len(data) && data[offset] != 0x1A && data[offset] != 0x00 {
		offset++
	}
	if offset < len(data) {
		offset++
	}
	if offset+32 > len(data) {
		return nil, fmt.Errorf("invalid MAG data: missing header region")
	}

	screenMode := data[offset+3]
	x1 := int(le16(data[offset+4 : offset+6]))
	y1 := int(le16(data[offset+6 : offset+8]))
	x2 := int(le16(data[offset+8 : offset+10]))
	y2 := int(le16(data[offset+10 : offset+12]))

	width := x2 - x1 + 1
	height := y2 - y1 + 1

	flagAOffset := int(le32(data[offset+12:offset+16])) + offset
	flagBOffset := int(le32(data[offset+16:offset+20])) + offset
	pixelOffset := int(le32(data[offset+24:offset+28])) + offset

	is256Color := screenMode&0x80 != 0
	is200Line := screenMode&0x01 != 0

	pixelUnit := 4
	if is256Color {
		pixelUnit = 2
	}
	hPixels := (width + pixelUnit - 1) / pixelUnit

	if width <= 0 || height <= 0 || width > 10000 || height > 10000 {
		return nil, fmt.Errorf("invalid image size: %dx%d", width, height)
	}

	paletteOffset := offset + 32
	colorCount := 16
	if is256Color {
		colorCount = 256
	}
	paletteSize := colorCount * 3
	if paletteOffset+paletteSize > len(data) {
		return nil, fmt.Errorf("invalid MAG data: missing palette")
	}

	palette := make([]color.NRGBA, colorCount)
	for i := 0; i < colorCount; i++ {
		g := data[paletteOffset+i*3]
		r := data[paletteOffset+i*3+1]
		b := data[paletteOffset+i*3+2]
		palette[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}

	flags := make([]byte, hPixels*height)
	flagAsize := flagBOffset - flagAOffset
	flagABits := flagAsize * 8

	bitPos := 0
	flagBIndex := 0
	flagIndex := 0
	for i := 0; i < hPixels*height/2; i++ {
		if bitPos >= flagABits {
			break
		}
		bytePos := bitPos / 8
		bitInByte := 7 - (bitPos % 8)
		if flagAOffset+bytePos >= len(data) {
			break
		}
		flagAByte := data[flagAOffset+bytePos]
		flagABit := (flagAByte >> uint(bitInByte)) & 1
		bitPos++

		if flagABit == 0 {
			if flagIndex+1 < len(flags) {
				flags[flagIndex] = 0
				flags[flagIndex+1] = 0
				flagIndex += 2
			} else {
				break
			}
		} else {
			if flagBOffset+flagBIndex < len(data) {
				flagBByte := data[flagBOffset+flagBIndex]
				if flagIndex+1 < len(flags) {
					flags[flagIndex] = (flagBByte >> 4) & 0x0F
					flags[flagIndex+1] = flagBByte & 0x0F
					flagIndex += 2
				} else {
					break
				}
				flagBIndex++
			} else {
				for flagIndex < len(flags) {
					flags[flagIndex] = 0
					flagIndex++
				}
				break
			}
		}
	}

	// Undo the row-to-row XOR delta, top to bottom.
	for y := 1; y < height; y++ {
		lineStart := y * hPixels
		prevLineStart := (y - 1) * hPixels
		for x := 0; x < hPixels; x++ {
			flags[lineStart+x] ^= flags[prevLineStart+x]
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	pixelIndex := 0

	setPixel := func(y, x int, c color.NRGBA) {
		if x >= 0 && x < width && y >= 0 && y < height {
			img.SetNRGBA(x, y, c)
		}
	}
	getPixel := func(y, x int) color.NRGBA {
		if x < 0 || x >= width || y < 0 || y >= height {
			return color.NRGBA{}
		}
		return img.NRGBAAt(x, y)
	}

	for y := 0; y < height; y++ {
		for px := 0; px < hPixels; px++ {
			if y*hPixels+px >= len(flags) {
				continue
			}
			flag := flags[y*hPixels+px]

			if flag == 0 {
				if pixelOffset+pixelIndex+1 < len(data) {
					lo := data[pixelOffset+pixelIndex]
					hi := data[pixelOffset+pixelIndex+1]
					pixelIndex += 2

					if !is256Color {
						c3 := (hi >> 4) & 0x0F
						c4 := hi & 0x0F
						c1 := (lo >> 4) & 0x0F
						c2 := lo & 0x0F
						setPixel(y, px*4, palette[c1])
						setPixel(y, px*4+1, palette[c2])
						setPixel(y, px*4+2, palette[c3])
						setPixel(y, px*4+3, palette[c4])
					} else {
						setPixel(y, px*2, palette[lo])
						setPixel(y, px*2+1, palette[hi])
					}
				} else {
					black := color.NRGBA{A: 255}
					if !is256Color {
						for i := 0; i < 4; i++ {
							setPixel(y, px*4+i, black)
						}
					} else {
						for i := 0; i < 2; i++ {
							setPixel(y, px*2+i, black)
						}
					}
				}
				continue
			}

			off := magCopyOffsets[flag&0x0F]
			copyX, copyY := px+off[0], y+off[1]
			if copyX < 0 || copyX >= hPixels || copyY < 0 || copyY >= height {
				continue
			}
			if !is256Color {
				for i := 0; i < 4; i++ {
					srcX, destX := copyX*4+i, px*4+i
					if srcX >= 0 && srcX < width && destX >= 0 && destX < width {
						setPixel(y, destX, getPixel(copyY, srcX))
					}
				}
			} else {
				for i := 0; i < 2; i++ {
					srcX, destX := copyX*2+i, px*2+i
					if srcX >= 0 && srcX < width && destX >= 0 && destX < width {
						setPixel(y, destX, getPixel(copyY, srcX))
					}
				}
			}
		}
	}

	if is200Line {
		doubled := image.NewNRGBA(image.Rect(0, 0, width, height*2))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := img.NRGBAAt(x, y)
				doubled.SetNRGBA(x, y*2, c)
				doubled.SetNRGBA(x, y*2+1, c)
			}
		}
		return doubled, nil
	}

	return img, nil
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
