package decoder

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// stdlibDecoder wraps one of the stdlib or golang.org/x/image still-image
// decoders behind the common Decoder interface.
type stdlibDecoder struct {
	name string
}

func (d stdlibDecoder) Decode(r io.Reader) (PixelBuffer, Metadata, error) {
	var img image.Image
	var err error

	switch d.name {
	case "png":
		img, err = png.Decode(r)
	case "jpeg":
		img, err = jpeg.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "tiff":
		img, err = tiff.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	default:
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: unknown stdlib decoder %q", d.name)
	}
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: %s decode: %w", d.name, err)
	}
	buf, meta := bufferOf(img)
	return buf, meta, nil
}

// gifFirstFrameDecoder keeps only the first frame of an animated GIF, per
// spec §4.9a ("GIF(first frame)").
type gifFirstFrameDecoder struct{}

func (gifFirstFrameDecoder) Decode(r io.Reader) (PixelBuffer, Metadata, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: gif decode: %w", err)
	}
	if len(g.Image) == 0 {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: gif has no frames")
	}
	buf, meta := bufferOf(g.Image[0])
	return buf, meta, nil
}
