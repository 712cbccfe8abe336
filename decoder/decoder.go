// Package decoder implements the Decoder trait named in spec.md §1 as an
// external collaborator, reference-implemented here to exercise imagepipeline
// end-to-end (spec §4.9a).
//
// Registry keyed by lowercased extension mirrors handler.Registry's own
// lookup pattern (spec §4.2).
package decoder

import (
	"fmt"
	"image"
	"io"
	"strings"
	"sync"
)

// Metadata describes a decoded image without its pixels.
type Metadata struct {
	Format string
	Width  int
	Height int
}

// PixelBuffer wraps a decoded image.Image. Kept as a distinct type (rather
// than passing image.Image directly) so imagepipeline and superres can grow
// fields (e.g. a raw byte buffer for SR models) without reshaping call sites.
type PixelBuffer struct {
	Img image.Image
}

func bufferOf(img image.Image) (PixelBuffer, Metadata) {
	b := img.Bounds()
	return PixelBuffer{Img: img}, Metadata{Width: b.Dx(), Height: b.Dy()}
}

// Decoder decodes one still image from r.
type Decoder interface {
	Decode(r io.Reader) (PixelBuffer, Metadata, error)
}

// Registry dispatches to a Decoder by lowercased file extension (without
// the leading dot).
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register binds ext (without leading dot, case-insensitive) to d.
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[strings.ToLower(ext)] = d
}

// Get returns the Decoder registered for ext, if any.
func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return d, ok
}

// Decode looks up a Decoder for ext and runs it against r.
func (r *Registry) Decode(ext string, reader io.Reader) (PixelBuffer, Metadata, error) {
	d, ok := r.Get(ext)
	if !ok {
		return PixelBuffer{}, Metadata{}, fmt.Errorf("decoder: no decoder registered for extension %q", ext)
	}
	buf, meta, err := d.Decode(reader)
	if err == nil {
		meta.Format = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	return buf, meta, err
}

// Extensions is the canonical set of image extensions NewDefaultRegistry
// handles, keyed lowercase without the leading dot. entry.Info.IsImage
// takes this as a parameter rather than importing this package directly,
// to avoid entry depending on the (much heavier) decoder package.
var Extensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
	"tif": true, "tiff": true, "webp": true,
	"ppm": true, "pgm": true, "pbm": true,
	"mag": true, "ico": true,
}

// NewDefaultRegistry registers every reference decoder named in spec §4.9a:
// PNG/JPEG/GIF(first frame)/BMP/TIFF via stdlib image/* + golang.org/x/image/bmp
// and golang.org/x/image/tiff; WebP via golang.org/x/image/webp; PPM/PGM/PBM
// and MAG via from-scratch readers; ICO via re-framing its first directory
// entry as PNG or BMP.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("png", stdlibDecoder{name: "png"})
	r.Register("jpg", stdlibDecoder{name: "jpeg"})
	r.Register("jpeg", stdlibDecoder{name: "jpeg"})
	r.Register("gif", gifFirstFrameDecoder{})
	r.Register("bmp", stdlibDecoder{name: "bmp"})
	r.Register("tif", stdlibDecoder{name: "tiff"})
	r.Register("tiff", stdlibDecoder{name: "tiff"})
	r.Register("webp", stdlibDecoder{name: "webp"})

	r.Register("ppm", netpbmDecoder{})
	r.Register("pgm", netpbmDecoder{})
	r.Register("pbm", netpbmDecoder{})

	r.Register("mag", magDecoder{})

	r.Register("ico", icoDecoder{})

	return r
}
