package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// SquareThumbnail center-crops img to its largest centered square and resizes
// the square to size×size pixels.
//
// Parameters:
//   - img: Source image of any aspect ratio.
//   - size: Side length of the thumbnail in pixels. Must be positive.
//
// Returns:
//   - *Pixels: A 4-channel size×size grid. Smaller sources are upscaled so every
//     thumbnail built with the same size has identical dimensions.
//   - error: Non-nil if size is not positive or img has no pixels.
//
// # Cropping
//
// For a W×H source with W > H, columns (W-H)/2 through (W-H)/2+H-1 are kept;
// portrait sources are trimmed the same way vertically. Resampling uses the
// Lanczos filter.
func SquareThumbnail(img image.Image, size int) (*Pixels, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot thumbnail empty image: %w", ErrDegenerateInput)
	}
	return wrapNRGBA(imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)), nil
}

// Downsample scales img down so that its longer side is at most maxSide pixels,
// preserving aspect ratio. Images already within bounds are copied unchanged.
func Downsample(img image.Image, maxSide int) (*Pixels, error) {
	if maxSide < 1 {
		return nil, fmt.Errorf("invalid maximum resolution %d", maxSide)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot downsample empty image: %w", ErrDegenerateInput)
	}
	return wrapNRGBA(imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)), nil
}
