package handler

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/bodgit/sevenzip"

	"github.com/zgock999/SupraView-sub001/entry"
)

var sevenZipExtensions = map[string]bool{"7z": true, "cb7": true}

// SevenZipHandler reads 7z archives via bodgit/sevenzip, the library used
// by the enrichment reference implementation for the same purpose.
type SevenZipHandler struct {
	mu   sync.RWMutex
	path string
	rc   *sevenzip.ReadCloser
}

// NewSevenZipHandler constructs the 7z format handler.
func NewSevenZipHandler() *SevenZipHandler { return &SevenZipHandler{} }

func (h *SevenZipHandler) Name() string     { return "sevenzip" }
func (h *SevenZipHandler) CanArchive() bool { return true }

func (h *SevenZipHandler) CanHandle(p string) bool {
	return sevenZipExtensions[ExtensionOf(p)]
}

func (h *SevenZipHandler) SetCurrentPath(_ context.Context, p string) error {
	rc, err := sevenzip.OpenReader(p)
	if err != nil {
		return fmt.Errorf("sevenzip: open %q: %w", p, err)
	}
	h.mu.Lock()
	if h.rc != nil {
		_ = h.rc.Close()
	}
	h.path, h.rc = p, rc
	h.mu.Unlock()
	return nil
}

func (h *SevenZipHandler) ListAllEntries(_ context.Context) ([]*entry.Info, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.rc == nil {
		return nil, fmt.Errorf("sevenzip: no archive open")
	}
	var out []*entry.Info
	for _, f := range h.rc.File {
		name := decodeName([]byte(f.Name))
		isDir := f.FileInfo().IsDir()
		rel := strings.Trim(path.Clean(name), "/")
		if rel == "." {
			rel = ""
		}
		t := entry.File
		size := int64(f.UncompressedSize)
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

func (h *SevenZipHandler) ReadFile(_ context.Context, nameInArc string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.rc == nil {
		return nil, fmt.Errorf("sevenzip: no archive open")
	}
	for _, f := range h.rc.File {
		if f.Name != nameInArc {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("sevenzip: open entry %q: %w", nameInArc, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("sevenzip: entry %q not found", nameInArc)
}

func (h *SevenZipHandler) OpenStream(_ context.Context, nameInArc string) (Stream, error) {
	return nil, nil
}

var _ Handler = (*SevenZipHandler)(nil)
