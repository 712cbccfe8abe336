package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/zgock999/SupraView-sub001/entry"
)

// zipExtensions lists zip and its comic-book aliases, registered as pure
// extension aliases of the same handler (spec §6: "cbz/cbr/cb7 aliases").
var zipExtensions = map[string]bool{"zip": true, "cbz": true}

// ZipHandler reads zip archives via the standard library's archive/zip,
// the same library the teacher's backend/zip/zip.go wraps.
type ZipHandler struct {
	mu   sync.RWMutex
	path string
	zr   *zip.Reader
	data []byte
}

// NewZipHandler constructs the zip format handler.
func NewZipHandler() *ZipHandler { return &ZipHandler{} }

func (h *ZipHandler) Name() string     { return "zip" }
func (h *ZipHandler) CanArchive() bool { return true }

func (h *ZipHandler) CanHandle(p string) bool {
	return zipExtensions[ExtensionOf(p)]
}

func (h *ZipHandler) SetCurrentPath(_ context.Context, p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("zip: open %q: %w", p, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("zip: %q: %w", p, err)
	}
	h.mu.Lock()
	h.path, h.data, h.zr = p, data, zr
	h.mu.Unlock()
	return nil
}

func (h *ZipHandler) ListAllEntries(_ context.Context) ([]*entry.Info, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.zr == nil {
		return nil, fmt.Errorf("zip: no archive open")
	}
	var out []*entry.Info
	for _, f := range h.zr.File {
		name := decodeName([]byte(f.Name))
		isDir := strings.HasSuffix(f.Name, "/")
		rel := strings.Trim(path.Clean(name), "/")
		if rel == "." {
			rel = ""
		}
		t := entry.File
		size := int64(f.UncompressedSize64)
		if isDir {
			t = entry.Directory
			size = 0
		}
		mt := f.Modified
		out = append(out, &entry.Info{
			Name:      path.Base(rel),
			RelPath:   rel,
			Type:      t,
			Size:      size,
			ModTime:   &mt,
			NameInArc: f.Name,
		})
	}
	return out, nil
}

func (h *ZipHandler) ReadFile(_ context.Context, nameInArc string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.zr == nil {
		return nil, fmt.Errorf("zip: no archive open")
	}
	for _, f := range h.zr.File {
		if f.Name != nameInArc {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zip: open entry %q: %w", nameInArc, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("zip: entry %q not found", nameInArc)
}

func (h *ZipHandler) OpenStream(_ context.Context, nameInArc string) (Stream, error) {
	// The stdlib zip reader's per-file ReadCloser is backed by the whole
	// archive's []byte, so streaming gives no real benefit here; returning
	// (nil, nil) is legal and forces the caller to use ReadFile (spec §4.3).
	return nil, nil
}

var _ Handler = (*ZipHandler)(nil)
