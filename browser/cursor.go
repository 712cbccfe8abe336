// Package browser implements the Browser (spec §4.6, C6): an immutable
// total ordering over every image-typed entry reachable from the current
// root, plus a cursor that supports single- and dual-page navigation.
//
// Grounded on the teacher's backend/cache/plex.go notion of a flattened,
// sorted view rebuilt on directory change, and on
// original_source/app/viewer/widgets/preview/navigation_bar.py for the
// page/folder navigation semantics and status-bar notifications.
package browser

import (
	"fmt"
	"sort"

	"github.com/zgock999/SupraView-sub001/arcerr"
	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/entrycache"
	arcpath "github.com/zgock999/SupraView-sub001/path"
)

// Cursor holds an immutable total ordering of all image-typed entries
// (spec §4.6 PageCursor). entries[i] is a rel_path; index is always a
// valid position ("index < len(entries)" for a non-empty cursor).
type Cursor struct {
	entries []string
	index   int
	pages   int
	shift   bool
	rtl     bool

	// StatusFunc, when set, is called with a short human-readable message
	// whenever a navigation operation clamps at a boundary instead of
	// moving (spec.md §7 "emits a status message").
	StatusFunc func(string)
}

// New builds a Cursor from cache, keeping only entries whose Type is File
// and whose extension is in imageExts, sorted by folder path lexicographic
// order then natural filename order within the folder (spec §4.6).
func New(cache *entrycache.Cache, imageExts map[string]bool, pages int, shift, rtl bool) (*Cursor, error) {
	if pages != 1 && pages != 2 {
		return nil, fmt.Errorf("browser: pages must be 1 or 2, got %d", pages)
	}

	var rels []string
	for _, e := range cache.All() {
		if e.Type == entry.File && e.IsImage(imageExts) {
			rels = append(rels, e.RelPath)
		}
	}
	sort.Slice(rels, func(i, j int) bool {
		fi, fj := arcpath.Parent(rels[i]), arcpath.Parent(rels[j])
		if fi != fj {
			return fi < fj
		}
		return entrycache.NaturalLess(arcpath.Base(rels[i]), arcpath.Base(rels[j]))
	})

	return &Cursor{entries: rels, pages: pages, shift: shift, rtl: rtl}, nil
}

// Len reports the total number of image entries in the ordering.
func (c *Cursor) Len() int { return len(c.entries) }

// Index returns the cursor's current position.
func (c *Cursor) Index() int { return c.index }

func (c *Cursor) status(msg string) {
	if c.StatusFunc != nil {
		c.StatusFunc(msg)
	}
}

// folderOf returns the parent rel_path of entries[i].
func (c *Cursor) folderOf(i int) string {
	return arcpath.Parent(c.entries[i])
}

// pairStart returns the index of the first page of the pair containing i,
// per the dual-mode pairing policy in spec §4.6: natural pairing is
// (0,1),(2,3),...; with shift=true it's (1,2),(3,4),... with page 0 alone.
func (c *Cursor) pairStart(i int) int {
	if c.pages == 1 {
		return i
	}
	if c.shift {
		if i == 0 {
			return 0
		}
		if (i-1)%2 == 0 {
			return i
		}
		return i - 1
	}
	if i%2 == 0 {
		return i
	}
	return i - 1
}

// pairSize returns how many pages the pair starting at i actually has
// (1 for a lone page-0-under-shift or the final odd entry, else pages).
func (c *Cursor) pairSize(start int) int {
	if c.pages == 1 {
		return 1
	}
	if c.shift && start == 0 {
		return 1
	}
	if start+1 >= len(c.entries) {
		return 1
	}
	return 2
}

// Next advances to the next pair boundary. At the last pair, it clamps
// and emits a status message instead of erroring.
func (c *Cursor) Next() {
	if len(c.entries) == 0 {
		return
	}
	start := c.pairStart(c.index)
	size := c.pairSize(start)
	next := start + size
	if next >= len(c.entries) {
		c.status("already at last page")
		return
	}
	c.index = next
}

// Prev retreats to the previous pair boundary, clamping at 0.
func (c *Cursor) Prev() {
	if len(c.entries) == 0 {
		return
	}
	start := c.pairStart(c.index)
	if start == 0 {
		c.status("already at first page")
		return
	}
	// Find the pair that ends just before start.
	c.index = c.pairStart(start - 1)
}

// NextFolder jumps to the smallest index > current whose entry's parent
// differs from the current folder, clamping at the end.
func (c *Cursor) NextFolder() {
	if len(c.entries) == 0 {
		return
	}
	cur := c.folderOf(c.index)
	for i := c.index + 1; i < len(c.entries); i++ {
		if c.folderOf(i) != cur {
			c.index = i
			return
		}
	}
	c.status("no next folder")
}

// PrevFolder jumps to the start of the previous distinct folder, clamping
// at 0.
func (c *Cursor) PrevFolder() {
	if len(c.entries) == 0 {
		return
	}
	cur := c.folderOf(c.index)
	i := c.index - 1
	for i >= 0 && c.folderOf(i) == cur {
		i--
	}
	if i < 0 {
		c.status("no previous folder")
		return
	}
	prevFolder := c.folderOf(i)
	for i > 0 && c.folderOf(i-1) == prevFolder {
		i--
	}
	c.index = i
}

// GoFirst moves to index 0.
func (c *Cursor) GoFirst() {
	if len(c.entries) == 0 {
		return
	}
	c.index = 0
}

// GoLast moves to the last index.
func (c *Cursor) GoLast() {
	if len(c.entries) == 0 {
		return
	}
	c.index = len(c.entries) - 1
}

// GoTop moves to the first index of the current folder.
func (c *Cursor) GoTop() {
	if len(c.entries) == 0 {
		return
	}
	cur := c.folderOf(c.index)
	i := c.index
	for i > 0 && c.folderOf(i-1) == cur {
		i--
	}
	c.index = i
}

// GoEnd moves to the last index of the current folder.
func (c *Cursor) GoEnd() {
	if len(c.entries) == 0 {
		return
	}
	cur := c.folderOf(c.index)
	i := c.index
	for i+1 < len(c.entries) && c.folderOf(i+1) == cur {
		i++
	}
	c.index = i
}

// Jump locates relPath exactly and moves the cursor there, or fails with
// arcerr.ErrNotFound.
func (c *Cursor) Jump(relPath string) error {
	for i, e := range c.entries {
		if e == relPath {
			c.index = i
			return nil
		}
	}
	return arcerr.ErrNotFound
}

// GetCurrent returns the rel_paths on display: slot 0 at the pair start,
// slot 1 at pair start+1 when dual mode has a second page. With rtl, the
// slice is returned in visually-reversed order (spec §4.6).
func (c *Cursor) GetCurrent() []string {
	if len(c.entries) == 0 {
		return nil
	}
	start := c.pairStart(c.index)
	size := c.pairSize(start)

	out := make([]string, size)
	for i := 0; i < size; i++ {
		out[i] = c.entries[start+i]
	}
	if c.rtl {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// CurrentFolder returns the parent rel_path of the entry at the cursor's
// index.
func (c *Cursor) CurrentFolder() string {
	if len(c.entries) == 0 {
		return ""
	}
	return c.folderOf(c.index)
}

// SetPages changes the page-count mode (1 or 2) in place, realigning the
// cursor to the nearest valid pair start.
func (c *Cursor) SetPages(pages int) error {
	if pages != 1 && pages != 2 {
		return fmt.Errorf("browser: pages must be 1 or 2, got %d", pages)
	}
	c.pages = pages
	c.index = c.pairStart(c.index)
	return nil
}

// SetShift toggles the dual-mode pairing phase.
func (c *Cursor) SetShift(shift bool) {
	c.shift = shift
	c.index = c.pairStart(c.index)
}

// SetRTL toggles right-to-left presentation order (display only).
func (c *Cursor) SetRTL(rtl bool) { c.rtl = rtl }

// Pages, Shift, and RTL report the cursor's current configuration.
func (c *Cursor) Pages() int  { return c.pages }
func (c *Cursor) Shift() bool { return c.shift }
func (c *Cursor) RTL() bool   { return c.rtl }
