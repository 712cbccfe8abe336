package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zgock999/SupraView-sub001/entry"
)

// DirectoryHandler walks the filesystem. It is the only handler that
// cannot archive (spec §4.3: "Directory ... walks the filesystem").
type DirectoryHandler struct {
	mu  sync.RWMutex
	cur string
}

// NewDirectoryHandler constructs the filesystem-walking handler.
func NewDirectoryHandler() *DirectoryHandler { return &DirectoryHandler{} }

func (h *DirectoryHandler) Name() string    { return "directory" }
func (h *DirectoryHandler) CanArchive() bool { return false }

// CanHandle is true for any existing directory; archives are files and are
// claimed by their own handlers first in registration order.
func (h *DirectoryHandler) CanHandle(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (h *DirectoryHandler) SetCurrentPath(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cur = path
	return nil
}

func (h *DirectoryHandler) ListAllEntries(_ context.Context) ([]*entry.Info, error) {
	h.mu.RLock()
	root := h.cur
	h.mu.RUnlock()

	var out []*entry.Info
	err := filepath.Walk(root, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			// Per-entry enumeration errors are logged and skipped (spec §4.4).
			logrus.Warnf("directory: skipping %q: %v", p, err)
			return nil
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		t := entry.File
		size := fi.Size()
		if fi.IsDir() {
			t = entry.Directory
			size = 0
		}
		mt := fi.ModTime()
		out = append(out, &entry.Info{
			Name:      fi.Name(),
			RelPath:   rel,
			Type:      t,
			Size:      size,
			ModTime:   &mt,
			NameInArc: rel,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}
	return out, nil
}

func (h *DirectoryHandler) ReadFile(_ context.Context, nameInArc string) ([]byte, error) {
	h.mu.RLock()
	root := h.cur
	h.mu.RUnlock()
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(nameInArc)))
}

func (h *DirectoryHandler) OpenStream(_ context.Context, nameInArc string) (Stream, error) {
	h.mu.RLock()
	root := h.cur
	h.mu.RUnlock()
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(nameInArc)))
	if err != nil {
		return nil, err
	}
	return f, nil
}

var _ Handler = (*DirectoryHandler)(nil)
