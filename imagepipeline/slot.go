// Package imagepipeline implements the Image Task Pipeline (spec §4.9, C9):
// two display slots, each driven through load -> decode -> optional SR,
// with per-slot SR request supersession.
//
// Grounded on original_source/app/viewer/superres/sr_manager.py for the
// request/complete split and on the teacher's backend/cache/handle.go for
// chaining one task's completion into the next via callbacks rather than
// blocking a worker goroutine on another task's result.
package imagepipeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zgock999/SupraView-sub001/decoder"
	"github.com/zgock999/SupraView-sub001/entry"
)

// Slot is one of the two image display targets (spec §4.4 ImageSlot: 0 =
// left/only, 1 = right). Single-view mode uses slot 0 only.
type Slot struct {
	mu sync.Mutex

	Index int

	Info    *entry.Info
	RawPath string

	PixelBuffer decoder.PixelBuffer
	Metadata    decoder.Metadata

	// SRRequestID is the UUID of this slot's most recently issued SR
	// request, or uuid.Nil if none is outstanding. A completing SR task
	// is applied only if its request_id still matches this field at
	// completion time (spec §4.9 supersession rule).
	SRRequestID uuid.UUID

	DisplayDirty bool
	Error        error
}

// Snapshot is a read-only copy of a Slot's display-relevant fields, safe to
// hand to a UI layer without holding the slot's lock.
type Snapshot struct {
	Index       int
	Info        *entry.Info
	PixelBuffer decoder.PixelBuffer
	Metadata    decoder.Metadata
	Error       error
}

// Snapshot copies out the slot's current display state and clears dirty.
func (s *Slot) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DisplayDirty = false
	return Snapshot{
		Index:       s.Index,
		Info:        s.Info,
		PixelBuffer: s.PixelBuffer,
		Metadata:    s.Metadata,
		Error:       s.Error,
	}
}

// IsDirty reports whether the slot has changed since the last Snapshot.
func (s *Slot) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DisplayDirty
}

// reset clears a slot for a fresh load: the previous SR request is
// invalidated (by being overwritten or zeroed by the caller before this
// runs) and any previous error is cleared until a result or new error
// arrives (spec §7: "set_image clears error").
func (s *Slot) reset(relPath string, info *entry.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RawPath = relPath
	s.Info = info
	s.PixelBuffer = decoder.PixelBuffer{}
	s.Metadata = decoder.Metadata{}
	s.Error = nil
	s.DisplayDirty = true
}

func (s *Slot) setImage(buf decoder.PixelBuffer, meta decoder.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PixelBuffer = buf
	s.Metadata = meta
	s.Error = nil
	s.DisplayDirty = true
}

func (s *Slot) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Error = err
	s.DisplayDirty = true
}

// beginSRRequest records a fresh SR request id, superseding whatever
// request (if any) this slot had previously issued.
func (s *Slot) beginSRRequest(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SRRequestID = id
}

// clearSRRequest invalidates this slot's outstanding SR request, e.g.
// because the slot is about to be reloaded with a different image.
func (s *Slot) clearSRRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SRRequestID = uuid.Nil
}

// trySetSRResult applies buf if id still matches this slot's outstanding
// request and the slot has no pending error (spec §7: "set_sr_array on a
// slot whose error.is_some() is rejected"). Returns whether it applied.
func (s *Slot) trySetSRResult(id uuid.UUID, buf decoder.PixelBuffer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SRRequestID != id || id == uuid.Nil {
		return false
	}
	if s.Error != nil {
		return false
	}
	s.PixelBuffer = buf
	s.DisplayDirty = true
	s.SRRequestID = uuid.Nil
	return true
}
