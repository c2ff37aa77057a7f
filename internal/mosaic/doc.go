// Package mosaic composes photographic mosaics from a tile corpus.
//
// The target image is downsampled so its longer side is at most MaxResolution
// pixels. Every pixel of the downsampled target becomes one canvas block of
// tileSize×tileSize pixels, filled verbatim with the thumbnail of a tile chosen
// among the pixel's nearest colors in the index.
//
// # Canvas Layout
//
// For a downsampled target of W×H pixels the canvas is (W*tileSize)×(H*tileSize)
// with the thumbnails' channel count. Target pixel (x, y) owns the canvas block
// whose top-left corner is (x*tileSize, y*tileSize).
//
// # Randomness
//
// Tile selection among neighbors is random but reproducible: each target row
// draws from its own PCG stream seeded with (Options.Seed, row). The same seed
// gives the same canvas regardless of how rows are spread over workers.
//
// # Concurrency
//
// Rows are partitioned across goroutines with bild's parallel.Line. Each worker
// owns a disjoint band of canvas rows, so no locking is needed on the canvas.
// The index and the corpus are only read.
package mosaic
