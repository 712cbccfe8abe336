// Package entrycache implements the Entry Cache (spec §4.4, C4): a
// rel_path -> EntryInfo map that crosses nested-archive boundaries and is
// rebuilt wholesale on every open(), never mutated afterwards.
//
// Grounded on the teacher's backend/zip/zip.go dirtree.DirTree usage
// (build-once, read-many map keyed by rel path) and backend/archive/archive.go's
// recursive archive.init/subArchive handling of archives-within-archives.
package entrycache

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/handler"
	arcpath "github.com/zgock999/SupraView-sub001/path"
)

// Cache is the read-only, rebuilt-on-open map from rel_path to *entry.Info.
// The zero value is not usable; construct with Build.
type Cache struct {
	entries map[string]*entry.Info
}

// FromEntries builds a Cache directly from a prepared entries map, bypassing
// Build's handler-driven enumeration. Used by tests and by callers that
// already have a flattened entry set to present (e.g. browser tests that
// don't need a real archive on disk).
func FromEntries(entries map[string]*entry.Info) *Cache {
	return &Cache{entries: entries}
}

// Get looks up one entry by canonical rel_path.
func (c *Cache) Get(relPath string) (*entry.Info, bool) {
	e, ok := c.entries[relPath]
	return e, ok
}

// Len reports how many entries (including the root) the cache holds.
func (c *Cache) Len() int { return len(c.entries) }

// All returns every entry, in no particular order; callers that need a
// stable order should sort (browser.New does, by folder then natural name).
func (c *Cache) All() []*entry.Info {
	out := make([]*entry.Info, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// ListDir returns the entries whose parent rel_path equals dir, sorted
// directories-first then by natural filename order (spec §4.5 list_entries).
func (c *Cache) ListDir(dir string) []*entry.Info {
	var out []*entry.Info
	for _, e := range c.entries {
		if e.RelPath == "" {
			continue
		}
		if arcpath.Parent(e.RelPath) == dir {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Type == entry.Directory) != (out[j].Type == entry.Directory) {
			return out[i].Type == entry.Directory
		}
		return NaturalLess(out[i].Name, out[j].Name)
	})
	return out
}

// byteReader abstracts the one thing the builder needs from the archive
// manager layer above it: "materialize these nested-archive bytes as a
// real file so a child handler can SetCurrentPath on it". Defined here
// (rather than imported from archivemgr) to avoid a cycle; archivemgr.Manager
// satisfies it via its TempFileManager.
type byteReader interface {
	MaterializeTemp(data []byte, suggestedName string) (path string, cleanup func(), err error)
}

// Builder builds a Cache for one open() cycle (spec §4.4).
type Builder struct {
	Registry *handler.Registry
	Reader   byteReader
	Log      *logrus.Logger
}

// Build enumerates root via its handler, recursively descending into every
// Archive-promoted entry to arbitrary nesting depth, and returns the
// flattened, finalized cache. A whole-archive enumeration failure for the
// root surfaces as an error; a failure enumerating a *nested* archive
// leaves that entry as type Archive (not descended into) per spec §4.4.
func (b *Builder) Build(ctx context.Context, root string) (*Cache, error) {
	log := b.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	h := b.Registry.GetHandler(root)
	if h == nil {
		return nil, fmt.Errorf("entrycache: no handler claims %q", root)
	}
	if err := h.SetCurrentPath(ctx, root); err != nil {
		return nil, fmt.Errorf("entrycache: open root %q: %w", root, err)
	}

	raw, err := h.ListAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("entrycache: enumerate root %q: %w", root, err)
	}

	entries := make(map[string]*entry.Info)
	entries[""] = &entry.Info{Name: "", RelPath: "", AbsPath: root, Type: entry.Directory}

	b.finalizeInto(ctx, entries, raw, "", root, h, log, 0)
	synthesizeMissingParents(entries)

	return &Cache{entries: entries}, nil
}

// maxNestingDepth guards against archive bombs that reference themselves;
// the spec allows "arbitrary depth" but a process needs some finite ceiling.
const maxNestingDepth = 32

// finalizeInto performs step 3 ("finalize") and step 4 (recursive descent)
// of spec §4.4 for one batch of raw entries, writing results into entries
// keyed by their root-relative path (prefix + their own rel path).
func (b *Builder) finalizeInto(ctx context.Context, entries map[string]*entry.Info, raw []*entry.Info, prefix, absBase string, h handler.Handler, log *logrus.Logger, depth int) {
	if depth > maxNestingDepth {
		log.Warnf("entrycache: nesting depth limit reached under %q, stopping descent", prefix)
		return
	}

	for _, e := range raw {
		relUnderParent := e.RelPath
		finalRel := arcpath.Join(prefix, relUnderParent)

		t := e.Type
		if t == entry.File && b.Registry.MatchesArchiveExtension(e.Name) != nil {
			t = entry.Archive
		}

		finalized := &entry.Info{
			Name:      e.Name,
			RelPath:   finalRel,
			AbsPath:   absBase + "/" + relUnderParent,
			Type:      t,
			Size:      e.Size,
			ModTime:   e.ModTime,
			NameInArc: e.NameInArc,
		}
		entries[finalRel] = finalized

		if t != entry.Archive {
			continue
		}

		archiverTemplate := b.Registry.MatchesArchiveExtension(e.Name)
		if archiverTemplate == nil {
			continue
		}
		childHandler, ok := handler.NewByName(archiverTemplate.Name())
		if !ok {
			continue
		}

		data, err := h.ReadFile(ctx, e.NameInArc)
		if err != nil {
			log.Warnf("entrycache: failed to extract nested archive %q: %v", finalRel, err)
			continue // left as type Archive, not descended into (spec §4.4)
		}

		tmpPath, cleanup, err := b.Reader.MaterializeTemp(data, e.Name)
		if err != nil {
			log.Warnf("entrycache: failed to materialize nested archive %q: %v", finalRel, err)
			continue
		}

		if err := childHandler.SetCurrentPath(ctx, tmpPath); err != nil {
			log.Warnf("entrycache: failed to open nested archive %q: %v", finalRel, err)
			cleanup()
			continue
		}
		childRaw, err := childHandler.ListAllEntries(ctx)
		if err != nil {
			log.Warnf("entrycache: failed to enumerate nested archive %q: %v", finalRel, err)
			cleanup()
			continue
		}

		b.finalizeInto(ctx, entries, childRaw, finalRel, absBase+"/"+relUnderParent, childHandler, log, depth+1)
	}
}

// synthesizeMissingParents ensures every non-root entry's parent directory
// is itself present in entries, even when the underlying archive only
// stored file entries (spec §4.4 guarantee).
func synthesizeMissingParents(entries map[string]*entry.Info) {
	for _, e := range snapshot(entries) {
		rel := e.RelPath
		for rel != "" {
			parent := arcpath.Parent(rel)
			if _, ok := entries[parent]; !ok {
				entries[parent] = &entry.Info{
					Name:    arcpath.Base(parent),
					RelPath: parent,
					Type:    entry.Directory,
				}
			}
			rel = parent
		}
	}
}

func snapshot(entries map[string]*entry.Info) []*entry.Info {
	out := make([]*entry.Info, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	return out
}

// NaturalLess compares two filenames so that digit runs compare
// numerically and everything else compares byte-wise (spec §4.6's
// "natural-order", realized per original_source/app/viewer/widgets/file_list_view.py).
func NaturalLess(a, b string) bool {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ac, bc := a[ai], b[bi]
		if isDigit(ac) && isDigit(bc) {
			aStart, bStart := ai, bi
			for ai < len(a) && isDigit(a[ai]) {
				ai++
			}
			for bi < len(b) && isDigit(b[bi]) {
				bi++
			}
			an := strings.TrimLeft(a[aStart:ai], "0")
			bn := strings.TrimLeft(b[bStart:bi], "0")
			if len(an) != len(bn) {
				return len(an) < len(bn)
			}
			if an != bn {
				return an < bn
			}
			continue
		}
		if ac != bc {
			return ac < bc
		}
		ai++
		bi++
	}
	return len(a)-ai < len(b)-bi
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
