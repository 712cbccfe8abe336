// Package archivemgr implements the Archive Manager façade (spec §4.5, C5):
// it owns the current root, the entry cache, and the TempFileManager, and
// is the only thing above it that talks to the handler registry directly.
//
// Grounded on the teacher's backend/archive/archive.go Fs type (root +
// archives map + mutex-protected lazy archive.init) and backend/zip/zip.go's
// VFS.Stat + readZip build-once-on-open pattern.
package archivemgr

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/entrycache"
	"github.com/zgock999/SupraView-sub001/handler"
	arcpath "github.com/zgock999/SupraView-sub001/path"
)

// Manager is the façade described in spec §4.5. Reads of the cache are
// concurrent-safe; the cache is replaced atomically on Open.
type Manager struct {
	Registry *handler.Registry
	Log      *logrus.Logger

	temp *TempFileManager

	mu    sync.RWMutex
	root  string
	cache *entrycache.Cache

	// nestedPathCache remembers the materialized temp-file path for each
	// nested archive's rel_path, for the lifetime of the current root
	// (spec §4.5: "Implementations SHOULD cache the materialized
	// temp-file path per nested archive for the duration of the root's
	// lifetime").
	nestedPathMu    sync.Mutex
	nestedPathCache map[string]string
}

// New constructs a Manager. If log is nil, logrus.StandardLogger() is used.
func New(registry *handler.Registry, log *logrus.Logger) (*Manager, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	temp, err := NewTempFileManager(log)
	if err != nil {
		return nil, err
	}
	return &Manager{Registry: registry, Log: log, temp: temp}, nil
}

// Open normalizes root, picks a handler, and builds the entry cache per
// spec §4.4. On failure the previous state (root + cache) is left intact.
func (m *Manager) Open(ctx context.Context, root string) error {
	norm, err := arcpath.Normalize(root)
	if err != nil {
		return fmt.Errorf("archivemgr: %w", err)
	}

	builder := &entrycache.Builder{Registry: m.Registry, Reader: m, Log: m.Log}
	cache, err := builder.Build(ctx, norm)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.root = norm
	m.cache = cache
	m.mu.Unlock()

	m.nestedPathMu.Lock()
	m.nestedPathCache = make(map[string]string)
	m.nestedPathMu.Unlock()

	m.Log.WithField("root", norm).Infof("opened root with %d entries", cache.Len())
	return nil
}

// Root returns the currently open root, or "" if nothing is open.
func (m *Manager) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// ListEntries returns the entries whose parent rel_path equals relDir,
// directories first then natural filename order (spec §4.5).
func (m *Manager) ListEntries(relDir string) ([]*entry.Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cache == nil {
		return nil, fmt.Errorf("archivemgr: no root open")
	}
	return m.cache.ListDir(relDir), nil
}

// GetEntryInfo looks up one entry by rel_path.
func (m *Manager) GetEntryInfo(relPath string) (*entry.Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cache == nil {
		return nil, false
	}
	return m.cache.Get(relPath)
}

// GetEntryCache returns a read-only borrow of the current cache for
// C6/UI consumers (spec §4.5).
func (m *Manager) GetEntryCache() *entrycache.Cache {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache
}

// Close drops the cache and flushes temp files (spec §4.5).
func (m *Manager) Close() {
	m.mu.Lock()
	m.root = ""
	m.cache = nil
	m.mu.Unlock()

	m.nestedPathMu.Lock()
	m.nestedPathCache = nil
	m.nestedPathMu.Unlock()

	m.temp.FlushAll()
}

// MaterializeTemp implements entrycache's byteReader interface: it writes
// data to a real temp file via the TempFileManager.
func (m *Manager) MaterializeTemp(data []byte, suggestedName string) (string, func(), error) {
	return m.temp.Materialize(data, suggestedName)
}
