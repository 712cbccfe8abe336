package handler

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// defaultMemoSize bounds the can_handle memoization cache (spec §4.2:
// "memoized in a bounded LRU keyed by the path").
const defaultMemoSize = 4096

// Registry is the ordered list of handlers queried by get_handler (spec
// §4.2, C2). Handlers are registered at startup and queried by path string,
// not by opening the file, so classification is cheap.
type Registry struct {
	mu       sync.RWMutex
	ordered  []Handler
	byName   map[string]Handler
	memo     *lru.Cache[string, Handler]
	Log      *logrus.Logger
}

// NewRegistry builds an empty registry with a bounded classification cache.
func NewRegistry() *Registry {
	cache, err := lru.New[string, Handler](defaultMemoSize)
	if err != nil {
		// lru.New only errors on a non-positive size, which defaultMemoSize
		// never is; a nil cache degrades to "always miss" rather than panic.
		cache = nil
	}
	return &Registry{
		byName: make(map[string]Handler),
		memo:   cache,
		Log:    logrus.StandardLogger(),
	}
}

// Register appends h to the ordered handler list. Order matters: the first
// handler whose CanHandle returns true wins, so more specific handlers
// (e.g. an alias-only cbz handler) should register before generic ones.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordered = append(r.ordered, h)
	r.byName[h.Name()] = h
}

// Archivers returns every registered handler that can archive, in
// registration order — used by the Archive Handler matching performed
// during entry-cache finalization (spec §4.4 step 3a).
func (r *Registry) Archivers() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handler, 0, len(r.ordered))
	for _, h := range r.ordered {
		if h.CanArchive() {
			out = append(out, h)
		}
	}
	return out
}

// GetHandler returns the first registered handler whose CanHandle(path) is
// true, memoized in the bounded LRU keyed by path.
func (r *Registry) GetHandler(path string) Handler {
	if r.memo != nil {
		if h, ok := r.memo.Get(path); ok {
			return h
		}
	}

	r.mu.RLock()
	ordered := r.ordered
	r.mu.RUnlock()

	for _, h := range ordered {
		if h.CanHandle(path) {
			if r.memo != nil {
				r.memo.Add(path, h)
			}
			return h
		}
	}
	return nil
}

// ByName looks up a registered handler by its Name(), used when the entry
// cache needs to re-dispatch to a specific format rather than re-classify.
func (r *Registry) ByName(name string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// ExtensionOf returns the lowercased extension (without the dot) of path,
// or "" if path has none. Shared by every handler's CanHandle.
func ExtensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	slash := strings.LastIndexByte(path, '/')
	if idx < 0 || idx < slash {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}
