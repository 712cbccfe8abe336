package imagepipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zgock999/SupraView-sub001/archivemgr"
	"github.com/zgock999/SupraView-sub001/arcerr"
	"github.com/zgock999/SupraView-sub001/decoder"
	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/handler"
	"github.com/zgock999/SupraView-sub001/superres"
	"github.com/zgock999/SupraView-sub001/workerpool"
)

// Controller drives the two ImageSlots through load -> decode -> optional
// SR (spec §4.9), chaining each stage's workerpool task off the previous
// one's completion rather than blocking a worker on a nested Submit.
type Controller struct {
	Manager  *archivemgr.Manager
	Decoders *decoder.Registry
	SR       superres.Model
	Pool     *workerpool.Pool
	Log      *logrus.Logger

	Slots [2]*Slot
}

// New constructs a Controller with two empty slots.
func New(mgr *archivemgr.Manager, decoders *decoder.Registry, sr superres.Model, pool *workerpool.Pool, log *logrus.Logger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Controller{Manager: mgr, Decoders: decoders, SR: sr, Pool: pool, Log: log}
	c.Slots[0] = &Slot{Index: 0}
	c.Slots[1] = &Slot{Index: 1}
	return c
}

// LoadPage fills slotIndex with relPath's content: extract (load task) then
// decode (decode task), chained via the load task's on_result callback so
// decode starts only after load completes (spec §5).
func (c *Controller) LoadPage(ctx context.Context, slotIndex int, relPath string) (uuid.UUID, error) {
	if slotIndex != 0 && slotIndex != 1 {
		return uuid.Nil, fmt.Errorf("imagepipeline: invalid slot index %d", slotIndex)
	}
	slot := c.Slots[slotIndex]

	slot.clearSRRequest()

	info, ok := c.Manager.GetEntryInfo(relPath)
	if !ok {
		err := arcerr.ErrNotFound
		slot.reset(relPath, nil)
		slot.setError(err)
		return uuid.Nil, err
	}
	slot.reset(relPath, info)

	ext := handler.ExtensionOf(relPath)

	id := c.Pool.Submit(ctx, func(ctx context.Context, h *workerpool.Handle) (any, error) {
		if h.IsCancelled() {
			return nil, nil
		}
		data, err := c.Manager.ExtractItem(ctx, relPath)
		if err != nil {
			return nil, &arcerr.IOError{Source: err}
		}
		return data, nil
	}, workerpool.Callbacks{
		OnError: func(kind, message, trace string) {
			slot.setError(fmt.Errorf("%s: %s", kind, message))
		},
		OnResult: func(value any) {
			data, _ := value.([]byte)
			if data == nil {
				return
			}
			c.submitDecode(ctx, slot, ext, data)
		},
	})
	return id, nil
}

func (c *Controller) submitDecode(ctx context.Context, slot *Slot, ext string, data []byte) {
	c.Pool.Submit(ctx, func(ctx context.Context, h *workerpool.Handle) (any, error) {
		if h.IsCancelled() {
			return nil, nil
		}
		buf, meta, err := c.Decoders.Decode(ext, bytes.NewReader(data))
		if err != nil {
			return nil, &arcerr.DecodeError{Format: ext, Reason: err.Error()}
		}
		return decodeResult{buf: buf, meta: meta}, nil
	}, workerpool.Callbacks{
		OnError: func(kind, message, trace string) {
			slot.setError(fmt.Errorf("%s: %s", kind, message))
		},
		OnResult: func(value any) {
			dr, ok := value.(decodeResult)
			if !ok {
				return
			}
			slot.setImage(dr.buf, dr.meta)
		},
	})
}

type decodeResult struct {
	buf  decoder.PixelBuffer
	meta decoder.Metadata
}

// RequestSR submits slotIndex's current pixel buffer to the SR model. The
// returned request_id is recorded on the slot; when the task completes, the
// result is applied to *whichever* slot's current id matches it (spec §4.9:
// "regardless of which slot originally requested it"), or discarded if
// neither matches.
func (c *Controller) RequestSR(ctx context.Context, slotIndex int) (uuid.UUID, error) {
	if slotIndex != 0 && slotIndex != 1 {
		return uuid.Nil, fmt.Errorf("imagepipeline: invalid slot index %d", slotIndex)
	}
	slot := c.Slots[slotIndex]
	if c.SR == nil {
		return uuid.Nil, fmt.Errorf("imagepipeline: no SR model configured")
	}

	reqID := uuid.New()
	slot.beginSRRequest(reqID)
	buf := slot.PixelBuffer

	c.Pool.Submit(ctx, func(ctx context.Context, h *workerpool.Handle) (any, error) {
		out, err := c.SR.Enhance(ctx, buf, h.IsCancelled)
		if err != nil {
			return nil, err
		}
		return out, nil
	}, workerpool.Callbacks{
		OnResult: func(value any) {
			out, ok := value.(decoder.PixelBuffer)
			if !ok {
				return
			}
			c.applySRResult(reqID, out)
		},
	})
	return reqID, nil
}

// applySRResult checks reqID against both slots' current SR request ids
// and applies buf to whichever one matches (spec §4.9 supersession rule).
func (c *Controller) applySRResult(reqID uuid.UUID, buf decoder.PixelBuffer) {
	for _, s := range c.Slots {
		if s.trySetSRResult(reqID, buf) {
			return
		}
	}
	c.Log.WithField("request_id", reqID).Debug("discarding stale SR result: no slot matches")
}

// CurrentEntry returns the entry.Info currently loaded into slotIndex, if
// any.
func (c *Controller) CurrentEntry(slotIndex int) *entry.Info {
	if slotIndex != 0 && slotIndex != 1 {
		return nil
	}
	c.Slots[slotIndex].mu.Lock()
	defer c.Slots[slotIndex].mu.Unlock()
	return c.Slots[slotIndex].Info
}
