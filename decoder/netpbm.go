package decoder

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
)

// netpbmDecoder reads the portable bitmap/graymap/pixmap family (PBM/PGM/PPM,
// magic numbers P1-P6) from scratch, per spec §4.9a — these have no stdlib
// or golang.org/x/image decoder.
type netpbmDecoder struct{}

func (netpbmDecoder) Decode(r io.Reader) (PixelBuffer, Metadata, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: netpbm magic: %w", err)
	}

	switch magic {
	case "P1":
		return decodePBM(br, false)
	case "P4":
		return decodePBM(br, true)
	case "P2":
		return decodePGM(br, false)
	case "P5":
		return decodePGM(br, true)
	case "P3":
		return decodePPM(br, false)
	case "P6":
		return decodePPM(br, true)
	default:
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: netpbm: unrecognized magic %q", magic)
	}
}

// readToken reads one whitespace-delimited token, skipping '#' comments
// that run to end-of-line, per the netpbm header grammar.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		if b == '#' {
			for {
				c, err := br.ReadByte()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		if isSpace(b) {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, b)
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func readDims(br *bufio.Reader) (width, height int, err error) {
	wTok, err := readToken(br)
	if err != nil {
		return 0, 0, err
	}
	hTok, err := readToken(br)
	if err != nil {
		return 0, 0, err
	}
	width, err = strconv.Atoi(wTok)
	if err != nil {
		return 0, 0, fmt.Errorf("netpbm: bad width %q", wTok)
	}
	height, err = strconv.Atoi(hTok)
	if err != nil {
		return 0, 0, fmt.Errorf("netpbm: bad height %q", hTok)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("netpbm: invalid dimensions %dx%d", width, height)
	}
	return width, height, nil
}

func decodePBM(br *bufio.Reader, binary bool) (PixelBuffer, Metadata, error) {
	width, height, err := readDims(br)
	if err != nil {
		return PixelBuffer{}, Metadata{}, err
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	if binary {
		// After the header, exactly one whitespace byte precedes the
		// packed bitmap rows (MSB-first, 1 = black); readDims has already
		// consumed it as the height token's delimiter.
		rowBytes := (width + 7) / 8
		row := make([]byte, rowBytes)
		for y := 0; y < height; y++ {
			if _, err := io.ReadFull(br, row); err != nil {
				return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: pbm row %d: %w", y, err)
			}
			for x := 0; x < width; x++ {
				bit := (row[x/8] >> (7 - uint(x%8))) & 1
				v := byte(255)
				if bit == 1 {
					v = 0
				}
				img.SetGray(x, y, color.Gray{Y: v})
			}
		}
	} else {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				tok, err := readToken(br)
				if err != nil {
					return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: pbm pixel (%d,%d): %w", x, y, err)
				}
				v := byte(255)
				if tok == "1" {
					v = 0
				}
				img.SetGray(x, y, color.Gray{Y: v})
			}
		}
	}

	buf, meta := bufferOf(img)
	return buf, meta, nil
}

func decodePGM(br *bufio.Reader, binary bool) (PixelBuffer, Metadata, error) {
	width, height, err := readDims(br)
	if err != nil {
		return PixelBuffer{}, Metadata{}, err
	}
	maxvalTok, err := readToken(br)
	if err != nil {
		return PixelBuffer{}, Metadata{}, err
	}
	maxval, err := strconv.Atoi(maxvalTok)
	if err != nil || maxval <= 0 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: bad maxval %q", maxvalTok)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))

	if binary {
		// readToken already consumed the single whitespace after maxval.
		bytesPerSample := 1
		if maxval > 255 {
			bytesPerSample = 2
		}
		row := make([]byte, width*bytesPerSample)
		for y := 0; y < height; y++ {
			if _, err := io.ReadFull(br, row); err != nil {
				return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: pgm row %d: %w", y, err)
			}
			for x := 0; x < width; x++ {
				var sample int
				if bytesPerSample == 1 {
					sample = int(row[x])
				} else {
					sample = int(row[2*x])<<8 | int(row[2*x+1])
				}
				img.SetGray(x, y, color.Gray{Y: scale8(sample, maxval)})
			}
		}
	} else {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				tok, err := readToken(br)
				if err != nil {
					return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: pgm pixel (%d,%d): %w", x, y, err)
				}
				sample, err := strconv.Atoi(tok)
				if err != nil {
					return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: bad sample %q", tok)
				}
				img.SetGray(x, y, color.Gray{Y: scale8(sample, maxval)})
			}
		}
	}

	buf, meta := bufferOf(img)
	return buf, meta, nil
}

func decodePPM(br *bufio.Reader, binary bool) (PixelBuffer, Metadata, error) {
	width, height, err := readDims(br)
	if err != nil {
		return PixelBuffer{}, Metadata{}, err
	}
	maxvalTok, err := readToken(br)
	if err != nil {
		return PixelBuffer{}, Metadata{}, err
	}
	maxval, err := strconv.Atoi(maxvalTok)
	if err != nil || maxval <= 0 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: bad maxval %q", maxvalTok)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	if binary {
		// readToken already consumed the single whitespace after maxval.
		bytesPerSample := 1
		if maxval > 255 {
			bytesPerSample = 2
		}
		row := make([]byte, width*3*bytesPerSample)
		for y := 0; y < height; y++ {
			if _, err := io.ReadFull(br, row); err != nil {
				return PixelBuffer{}, Metadata{}, fmt.Errorf("netpbm: ppm row %d: %w", y, err)
			}
			for x := 0; x < width; x++ {
				r, g, b := readSample3(row, x, bytesPerSample)
				img.SetRGBA(x, y, color.RGBA{
					R: scale8(r, maxval), G: scale8(g, maxval), B: scale8(b, maxval), A: 255,
				})
			}
		}
	} else {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, err := readIntToken(br)
				if err != nil {
					return PixelBuffer{}, Metadata{}, err
				}
				g, err := readIntToken(br)
				if err != nil {
					return PixelBuffer{}, Metadata{}, err
				}
				b, err := readIntToken(br)
				if err != nil {
					return PixelBuffer{}, Metadata{}, err
				}
				img.SetRGBA(x, y, color.RGBA{
					R: scale8(r, maxval), G: scale8(g, maxval), B: scale8(b, maxval), A: 255,
				})
			}
		}
	}

	buf, meta := bufferOf(img)
	return buf, meta, nil
}

func readIntToken(br *bufio.Reader) (int, error) {
	tok, err := readToken(br)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("netpbm: bad integer token %q", tok)
	}
	return v, nil
}

func readSample3(row []byte, x, bytesPerSample int) (r, g, b int) {
	base := x * 3 * bytesPerSample
	if bytesPerSample == 1 {
		return int(row[base]), int(row[base+1]), int(row[base+2])
	}
	return int(row[base])<<8 | int(row[base+1]),
		int(row[base+2])<<8 | int(row[base+3]),
		int(row[base+4])<<8 | int(row[base+5])
}

func scale8(sample, maxval int) byte {
	if maxval == 255 {
		return byte(sample)
	}
	return byte((sample * 255) / maxval)
}
