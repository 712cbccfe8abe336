package handler

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/zgock999/SupraView-sub001/entry"
)

var tarExtensions = map[string]bool{"tar": true}
var tarGzExtensions = map[string]bool{"tar.gz": true, "tgz": true}
var tarBz2Extensions = map[string]bool{"tar.bz2": true, "tbz2": true}

// TarHandler reads tar, tar.gz and tar.bz2 archives. tar and gzip framing
// come from archive/tar and klauspost/compress/gzip (the teacher's direct
// dependency, a drop-in faster archive/gzip); bzip2 is read-only in the Go
// ecosystem so compress/bzip2 is used as-is (see DESIGN.md).
//
// Unlike zip/7z, tar has no central directory: enumeration requires a full
// sequential pass, so ListAllEntries also populates an in-memory index of
// raw bytes per entry to make ReadFile O(1) afterwards without re-scanning
// the whole archive for every page flip.
type TarHandler struct {
	mu      sync.RWMutex
	path    string
	variant tarVariant
	data    map[string][]byte
}

type tarVariant int

const (
	tarPlain tarVariant = iota
	tarGzip
	tarBzip2
)

// NewTarHandler constructs the tar/tar.gz/tar.bz2 format handler.
func NewTarHandler() *TarHandler { return &TarHandler{} }

func (h *TarHandler) Name() string     { return "tar" }
func (h *TarHandler) CanArchive() bool { return true }

func (h *TarHandler) CanHandle(p string) bool {
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), tarGzExtensions[ExtensionOf(p)]:
		return true
	case strings.HasSuffix(lower, ".tar.bz2"), tarBz2Extensions[ExtensionOf(p)]:
		return true
	default:
		return tarExtensions[ExtensionOf(p)]
	}
}

func variantFor(p string) tarVariant {
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return tarGzip
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return tarBzip2
	default:
		return tarPlain
	}
}

func (h *TarHandler) SetCurrentPath(_ context.Context, p string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = p
	h.variant = variantFor(p)
	h.data = nil
	return nil
}

func (h *TarHandler) openReader() (io.ReadCloser, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, err
	}
	switch h.variant {
	case tarGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &joinedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case tarBzip2:
		return &joinedCloser{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

type joinedCloser struct {
	io.Reader
	closers []io.Closer
}

func (j *joinedCloser) Close() error {
	var err error
	for _, c := range j.closers {
		if e := c.Close(); e != nil {
			err = e
		}
	}
	return err
}

func (h *TarHandler) ListAllEntries(_ context.Context) ([]*entry.Info, error) {
	h.mu.RLock()
	p := h.path
	h.mu.RUnlock()
	if p == "" {
		return nil, fmt.Errorf("tar: no archive open")
	}

	rc, err := h.openReader()
	if err != nil {
		return nil, fmt.Errorf("tar: open %q: %w", p, err)
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	data := make(map[string][]byte)
	var out []*entry.Info
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tar: read headers of %q: %w", p, err)
		}
		name := decodeName([]byte(hdr.Name))
		rel := strings.Trim(path.Clean(name), "/")
		if rel == "." {
			rel = ""
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			out = append(out, &entry.Info{
				Name:      path.Base(rel),
				RelPath:   rel,
				Type:      entry.Directory,
				ModTime:   tarModTime(hdr),
				NameInArc: hdr.Name,
			})
		case tar.TypeReg:
			buf := make([]byte, hdr.Size)
			if _, err := io.ReadFull(tr, buf); err != nil {
				return nil, fmt.Errorf("tar: read %q: %w", hdr.Name, err)
			}
			data[hdr.Name] = buf
			out = append(out, &entry.Info{
				Name:      path.Base(rel),
				RelPath:   rel,
				Type:      entry.File,
				Size:      hdr.Size,
				ModTime:   tarModTime(hdr),
				NameInArc: hdr.Name,
			})
		default:
			// symlinks/devices/etc. are skipped (spec §4.4: "Per-entry
			// errors are logged and skipped").
		}
	}

	h.mu.Lock()
	h.data = data
	h.mu.Unlock()
	return out, nil
}

func tarModTime(hdr *tar.Header) *time.Time {
	if hdr.ModTime.IsZero() {
		return nil
	}
	t := hdr.ModTime
	return &t
}

func (h *TarHandler) ReadFile(_ context.Context, nameInArc string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.data == nil {
		return nil, fmt.Errorf("tar: entries not enumerated yet")
	}
	b, ok := h.data[nameInArc]
	if !ok {
		return nil, fmt.Errorf("tar: entry %q not found", nameInArc)
	}
	return b, nil
}

func (h *TarHandler) OpenStream(_ context.Context, nameInArc string) (Stream, error) {
	b, err := h.ReadFile(context.Background(), nameInArc)
	if err != nil {
		return nil, nil
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

var _ Handler = (*TarHandler)(nil)
