// Package handler implements the pluggable archive-handler registry (spec
// §4.2, C2) and the Archive Handler trait (spec §4.3, C3), along with the
// built-in Directory / Zip / Rar / SevenZip / Tar implementations.
//
// Grounded on the teacher's backend/archive/archiver package (an ordered
// Archivers slice matched by extension) and backend/archive/archive.go's
// findArchive/subArchive dispatch and lazy per-path archive.init locking.
package handler

import (
	"context"
	"io"

	"github.com/zgock999/SupraView-sub001/entry"
)

// Stream is an optional streaming read handle for one archive entry.
type Stream interface {
	io.ReadCloser
}

// Handler is the Archive Handler trait (spec §4.3, C3). Every format gets
// one implementation; Directory is the only implementation that cannot
// archive (CanArchive returns false). Implementations MUST be internally
// synchronized: SetCurrentPath may be called from one goroutine while a
// previous ReadFile on the same path is still in flight from another (spec
// §5, "Archive handlers MUST be internally synchronized if they hold open
// file handles").
type Handler interface {
	// Name identifies the handler for logging ("zip", "rar", "directory", ...).
	Name() string

	// CanHandle reports whether this handler claims path, by extension
	// and/or signature, without opening it.
	CanHandle(path string) bool

	// CanArchive is true iff this handler reads container formats.
	CanArchive() bool

	// SetCurrentPath is advisory: it lets a handler open and cache the
	// archive at path ahead of ListAllEntries/ReadFile. path must name a
	// real file on disk (for nested archives the caller materializes a
	// temp file first; see archivemgr.Manager.ExtractItem).
	SetCurrentPath(ctx context.Context, path string) error

	// ListAllEntries returns raw, unfinalized entries for the archive set
	// by the most recent SetCurrentPath: name_in_arc populated, rel_path
	// set to the handler-internal path, types File or Directory only.
	ListAllEntries(ctx context.Context) ([]*entry.Info, error)

	// ReadFile reads one entry whole, addressed by its handler-internal
	// path (EntryInfo.NameInArc), from the archive set by SetCurrentPath.
	ReadFile(ctx context.Context, nameInArc string) ([]byte, error)

	// OpenStream optionally streams one entry; returning (nil, nil) is
	// legal and forces the caller to fall back to ReadFile.
	OpenStream(ctx context.Context, nameInArc string) (Stream, error)
}

// Factory constructs a fresh Handler instance. The registry keeps one
// instance per registered format and reuses it for the process lifetime
// (spec §3 Lifecycles: "Handlers live for the process").
type Factory func() Handler
