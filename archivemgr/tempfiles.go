package archivemgr

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// TempFileManager owns every temp file materialized while resolving nested
// archives, tracked for atexit cleanup plus a per-file release API (spec
// §4.5, §9: "RAII/drop-guard ownership ... plus a process-exit hook as
// belt-and-suspenders"), grounded on the teacher's use of
// github.com/rclone/rclone/lib/atexit in backend/zip/zip.go.
type TempFileManager struct {
	mu    sync.Mutex
	dir   string
	files map[string]bool
	log   *logrus.Logger
}

// NewTempFileManager creates a manager rooted in a fresh subdirectory of
// the platform temp dir, registered with the process-exit cleanup list.
func NewTempFileManager(log *logrus.Logger) (*TempFileManager, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dir, err := os.MkdirTemp("", "arcview-*")
	if err != nil {
		return nil, fmt.Errorf("tempfiles: %w", err)
	}
	m := &TempFileManager{dir: dir, files: make(map[string]bool), log: log}
	registerAtExit(m.FlushAll)
	return m, nil
}

// Materialize writes data to a fresh temp file and returns its path plus a
// release func the caller should invoke when done. The file is also
// cleaned up on FlushAll / process exit if the caller never calls release.
func (m *TempFileManager) Materialize(data []byte, suggestedName string) (path string, release func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := filepath.Base(suggestedName)
	if base == "" || base == "." {
		base = "entry.bin"
	}
	f, err := os.CreateTemp(m.dir, "*-"+base)
	if err != nil {
		return "", nil, fmt.Errorf("tempfiles: create: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("tempfiles: write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("tempfiles: close: %w", err)
	}

	p := f.Name()
	m.files[p] = true
	return p, func() { m.release(p) }, nil
}

func (m *TempFileManager) release(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.files[p] {
		return
	}
	delete(m.files, p)
	if err := os.Remove(p); err != nil && m.log != nil {
		m.log.Debugf("tempfiles: release %q: %v", p, err)
	}
}

// FlushAll removes every tracked temp file, for use by Manager.Close and
// the process-exit hook.
func (m *TempFileManager) FlushAll() {
	m.mu.Lock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	m.files = make(map[string]bool)
	dir := m.dir
	m.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
	_ = os.RemoveAll(dir)
}
