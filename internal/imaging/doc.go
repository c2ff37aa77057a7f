// Package imaging provides the pixel-level building blocks of the mosaic pipeline.
//
// This package decodes source images, reduces them to square thumbnails or
// downsampled targets, and summarizes pixel grids into representative colors.
// Everything downstream (the tile corpus, the color index and the composer)
// works on the types defined here.
//
// # Pixel Grids
//
// A Pixels value is a row-major H×W×C array of 8-bit channel values:
//   - Channels is 3 (RGB) or 4 (non-premultiplied RGBA)
//   - The value of channel c at column x, row y is Pix[(y*Width+x)*Channels+c]
//   - (0,0) is the top-left pixel, X increases rightward, Y increases downward
//
// Decoded images are always converted to 4-channel grids, so alpha takes part
// in comparisons unless a caller explicitly narrows a color.
//
// # Color Representation
//
// A Color is a tuple of float64 channels in the 8-bit range (0-255). Colors
// produced by the single-cluster method carry 4 channels (RGBA); colors produced
// by the quantized-vote method carry 3 (RGB). Hex() renders the RGB part as
// "#rrggbb" for logs and reports.
//
// # Color Reduction
//
// A Reducer turns a pixel grid into one or more representative colors using one
// of two methods:
//   - SingleCluster: centroid of all pixels, optionally excluding the fully
//     transparent white and black sentinels
//   - QuantizedVote: coarse 6-level histogram voting until 60% of the pixels
//     are covered
//
// # Error Handling
//
// Files that exist but cannot be decoded are reported as *UnreadableImageError
// carrying the path. Grids with no usable pixels yield ErrDegenerateInput when
// the reducer runs in strict mode.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are pure and may be
// called concurrently on different inputs.
package imaging
