package archivemgr

import (
	"context"
	"fmt"

	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/handler"
	arcpath "github.com/zgock999/SupraView-sub001/path"
)

// ExtractItem resolves relPath via the cache and returns its bytes whole
// (spec §4.5). For entries inside a nested archive, the parent archive's
// bytes are recursively extracted, materialized as a temp file (tracked by
// TempFileManager), opened with the child handler, and the inner bytes are
// returned. The materialized temp-file path for each nested archive is
// cached for the lifetime of the current root.
func (m *Manager) ExtractItem(ctx context.Context, relPath string) ([]byte, error) {
	m.mu.RLock()
	root, cache := m.root, m.cache
	m.mu.RUnlock()
	if cache == nil {
		return nil, fmt.Errorf("archivemgr: no root open")
	}

	e, ok := cache.Get(relPath)
	if !ok {
		return nil, fmt.Errorf("archivemgr: %q not found", relPath)
	}
	if e.Type == entry.Directory {
		return nil, fmt.Errorf("archivemgr: %q is a directory", relPath)
	}

	ownerRel, ownerEntry := m.findOwningArchive(cache, relPath)
	if ownerRel == "" {
		h := m.rootHandler(root)
		if h == nil {
			return nil, fmt.Errorf("archivemgr: no handler for root %q", root)
		}
		if err := h.SetCurrentPath(ctx, root); err != nil {
			return nil, fmt.Errorf("archivemgr: open root %q: %w", root, err)
		}
		return h.ReadFile(ctx, e.NameInArc)
	}

	tmpPath, err := m.resolveNestedPath(ctx, cache, root, ownerRel, ownerEntry)
	if err != nil {
		return nil, err
	}

	childHandler, ok := m.handlerForEntry(ownerEntry)
	if !ok {
		return nil, fmt.Errorf("archivemgr: no handler for nested archive %q", ownerRel)
	}
	if err := childHandler.SetCurrentPath(ctx, tmpPath); err != nil {
		return nil, fmt.Errorf("archivemgr: open nested archive %q: %w", ownerRel, err)
	}
	return childHandler.ReadFile(ctx, e.NameInArc)
}

// findOwningArchive returns the rel_path and *entry.Info of the nearest
// ancestor of relPath whose type is Archive, or ("", nil) if relPath hangs
// directly off the root.
func (m *Manager) findOwningArchive(cache cacheReader, relPath string) (string, *entry.Info) {
	for p := arcpath.Parent(relPath); p != ""; p = arcpath.Parent(p) {
		if e, ok := cache.Get(p); ok && e.Type == entry.Archive {
			return p, e
		}
	}
	return "", nil
}

// cacheReader is the subset of *entrycache.Cache this file needs, kept
// narrow so tests can substitute a fake.
type cacheReader interface {
	Get(relPath string) (*entry.Info, bool)
}

// resolveNestedPath returns the materialized temp-file path for the
// nested archive at ownerRel, extracting and caching it on first use.
func (m *Manager) resolveNestedPath(ctx context.Context, cache cacheReader, root, ownerRel string, ownerEntry *entry.Info) (string, error) {
	m.nestedPathMu.Lock()
	if p, ok := m.nestedPathCache[ownerRel]; ok {
		m.nestedPathMu.Unlock()
		return p, nil
	}
	m.nestedPathMu.Unlock()

	grandRel, grandEntry := m.findOwningArchive(cache, ownerRel)

	var data []byte
	var err error
	if grandRel == "" {
		h := m.rootHandler(root)
		if h == nil {
			return "", fmt.Errorf("archivemgr: no handler for root %q", root)
		}
		if err := h.SetCurrentPath(ctx, root); err != nil {
			return "", fmt.Errorf("archivemgr: open root %q: %w", root, err)
		}
		data, err = h.ReadFile(ctx, ownerEntry.NameInArc)
	} else {
		var parentPath string
		parentPath, err = m.resolveNestedPath(ctx, cache, root, grandRel, grandEntry)
		if err != nil {
			return "", err
		}
		var parentHandler handler.Handler
		var ok bool
		parentHandler, ok = m.handlerForEntry(grandEntry)
		if !ok {
			return "", fmt.Errorf("archivemgr: no handler for nested archive %q", grandRel)
		}
		if err := parentHandler.SetCurrentPath(ctx, parentPath); err != nil {
			return "", fmt.Errorf("archivemgr: open nested archive %q: %w", grandRel, err)
		}
		data, err = parentHandler.ReadFile(ctx, ownerEntry.NameInArc)
	}
	if err != nil {
		return "", fmt.Errorf("archivemgr: extract nested archive %q: %w", ownerRel, err)
	}

	tmpPath, _, err := m.temp.Materialize(data, ownerEntry.Name)
	if err != nil {
		return "", err
	}

	m.nestedPathMu.Lock()
	m.nestedPathCache[ownerRel] = tmpPath
	m.nestedPathMu.Unlock()
	return tmpPath, nil
}

// rootHandler returns a fresh handler instance matching root's format.
func (m *Manager) rootHandler(root string) handler.Handler {
	tmpl := m.Registry.GetHandler(root)
	if tmpl == nil {
		return nil
	}
	h, ok := handler.NewByName(tmpl.Name())
	if !ok {
		return nil
	}
	return h
}

// handlerForEntry returns a fresh handler instance matching e's archive
// extension, for reading e's own contents once materialized.
func (m *Manager) handlerForEntry(e *entry.Info) (handler.Handler, bool) {
	tmpl := m.Registry.MatchesArchiveExtension(e.Name)
	if tmpl == nil {
		return nil, false
	}
	return handler.NewByName(tmpl.Name())
}
