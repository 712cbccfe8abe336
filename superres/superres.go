// Package superres implements the SR trait named in spec.md §1 as an
// external collaborator. Real super-resolution model code is explicitly
// out of scope (spec.md §1's Non-goals); PassthroughModel exists so the
// request/supersession contract in imagepipeline can be exercised and
// tested end-to-end (spec §4.9a), grounded in
// original_source/app/viewer/superres/sr_manager.py's initialize/process
// split.
package superres

import (
	"context"

	"github.com/zgock999/SupraView-sub001/decoder"
)

// Model enhances one decoded image. Implementations MUST poll isCancelled
// at tile boundaries (spec §5: "after each tile in tiled SR").
type Model interface {
	Enhance(ctx context.Context, buf decoder.PixelBuffer, isCancelled func() bool) (decoder.PixelBuffer, error)
}

// PassthroughModel returns its input unscaled. It stands in for a real
// model (ESRGAN, waifu2x, etc.) that original_source wires through
// SuperResolutionBase.create/initialize/process — swapping PassthroughModel
// for a real Model only requires implementing this one method.
type PassthroughModel struct{}

func (PassthroughModel) Enhance(ctx context.Context, buf decoder.PixelBuffer, isCancelled func() bool) (decoder.PixelBuffer, error) {
	if isCancelled() {
		return decoder.PixelBuffer{}, context.Canceled
	}
	return buf, nil
}
