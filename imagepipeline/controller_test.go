package imagepipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgock999/SupraView-sub001/decoder"
	"github.com/zgock999/SupraView-sub001/superres"
	"github.com/zgock999/SupraView-sub001/workerpool"
)

func TestRequestSRAppliesToOriginatingSlot(t *testing.T) {
	pool := workerpool.New(2, nil)
	c := New(nil, decoder.NewDefaultRegistry(), superres.PassthroughModel{}, pool, nil)

	c.Slots[0].PixelBuffer = decoder.PixelBuffer{}

	id, err := c.RequestSR(context.Background(), 0)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.NoError(t, pool.WaitAll(context.Background()))
	assert.Equal(t, uuid.Nil, c.Slots[0].SRRequestID)
}

// TestApplySRResultFollowsRequestIDNotOriginSlot verifies spec §4.9's
// explicit "regardless of which slot originally requested it" clause: if a
// completing request's id now belongs to a *different* slot (a pending
// swap), the result lands there instead.
func TestApplySRResultFollowsRequestIDNotOriginSlot(t *testing.T) {
	pool := workerpool.New(1, nil)
	c := New(nil, decoder.NewDefaultRegistry(), superres.PassthroughModel{}, pool, nil)

	reqID := uuid.New()
	// Simulate: slot 0 originally issued reqID, but by completion time
	// slot 1 has taken it over (a swap scenario) and slot 0 moved on.
	c.Slots[0].SRRequestID = uuid.New()
	c.Slots[1].SRRequestID = reqID

	c.applySRResult(reqID, decoder.PixelBuffer{})

	assert.Equal(t, uuid.Nil, c.Slots[1].SRRequestID, "slot 1 should have consumed the result")
	assert.True(t, c.Slots[1].DisplayDirty)
}

func TestApplySRResultDiscardedWhenNoSlotMatches(t *testing.T) {
	pool := workerpool.New(1, nil)
	c := New(nil, decoder.NewDefaultRegistry(), superres.PassthroughModel{}, pool, nil)

	c.Slots[0].SRRequestID = uuid.New()
	c.Slots[1].SRRequestID = uuid.New()
	c.Slots[0].DisplayDirty = false
	c.Slots[1].DisplayDirty = false

	c.applySRResult(uuid.New(), decoder.PixelBuffer{})

	assert.False(t, c.Slots[0].DisplayDirty)
	assert.False(t, c.Slots[1].DisplayDirty)
}

func TestLoadPageRejectsUnknownSlot(t *testing.T) {
	pool := workerpool.New(1, nil)
	c := New(nil, decoder.NewDefaultRegistry(), superres.PassthroughModel{}, pool, nil)

	_, err := c.LoadPage(context.Background(), 5, "x.png")
	assert.Error(t, err)
}

func TestSlotSnapshotClearsDirty(t *testing.T) {
	pool := workerpool.New(1, nil)
	c := New(nil, decoder.NewDefaultRegistry(), superres.PassthroughModel{}, pool, nil)

	c.Slots[0].DisplayDirty = true
	snap := c.Slots[0].Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.False(t, c.Slots[0].IsDirty())
}
