package mosaic

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/image-mosaic/internal/corpus"
	"github.com/ironsheep/image-mosaic/internal/imaging"
	"github.com/ironsheep/image-mosaic/internal/index"
)

const (
	// DefaultMaxResolution bounds the longer side of the downsampled target.
	DefaultMaxResolution = 125

	// DefaultNeighbors is the number of nearest tiles a block chooses from.
	DefaultNeighbors = 3

	// canvasChannels is fixed: targets are always decoded to RGBA.
	canvasChannels = 4
)

// Options configures a Composer. Zero fields take the defaults.
type Options struct {
	// MaxResolution bounds the longer side of the downsampled target in pixels.
	MaxResolution int

	// Neighbors is the number of nearest tiles considered per block. It is
	// capped at the corpus size.
	Neighbors int

	// Selection picks one tile among the neighbors.
	Selection Selection

	// Seed makes selection reproducible. Callers wanting a fresh mosaic on every
	// run should pass NewSeed().
	Seed uint64
}

// NewSeed returns a random seed for Options.Seed.
func NewSeed() uint64 { return rand.Uint64() }

// ShapeMismatchError reports a thumbnail that does not fit the canvas layout.
type ShapeMismatchError struct {
	Tile int
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tile %d: %s is %d, canvas needs %d", e.Tile, e.What, e.Got, e.Want)
}

// Stats describes a finished composition.
type Stats struct {
	// Blocks is the number of canvas blocks written (one per target pixel).
	Blocks int `json:"blocks"`

	// DistinctTiles is the number of different tiles placed on the canvas.
	DistinctTiles int `json:"distinct_tiles"`
}

// Result is a finished mosaic.
type Result struct {
	// Canvas holds (Columns*TileSize)×(Rows*TileSize) RGBA pixels.
	Canvas *imaging.Pixels

	// Columns and Rows are the dimensions of the downsampled target.
	Columns int
	Rows    int

	// TileSize is the side length of every block.
	TileSize int

	// Layout holds the tile index placed at each block, row-major.
	Layout []int

	Stats Stats
}

// TileAt returns the tile placed at block column x, row y.
func (r *Result) TileAt(x, y int) int { return r.Layout[y*r.Columns+x] }

// Composer places corpus thumbnails onto a canvas. It is safe for concurrent use.
type Composer struct {
	corpus *corpus.Corpus
	index  *index.Index
	opts   Options
}

// New checks that corp and ix describe the same tiles and that every thumbnail
// fits the canvas, then returns a Composer.
//
// Errors:
//   - index.ErrIndexEmpty if the corpus has no tiles
//   - *ShapeMismatchError if a thumbnail's channel count is not RGBA
//   - corpus.ErrCorruptCorpus if corp violates the corpus invariants
func New(corp *corpus.Corpus, ix *index.Index, opts Options) (*Composer, error) {
	if corp == nil || corp.Len() == 0 || ix == nil || ix.Len() == 0 {
		return nil, fmt.Errorf("cannot compose: %w", index.ErrIndexEmpty)
	}
	if ix.Len() != corp.Len() {
		return nil, fmt.Errorf("index holds %d tiles, corpus holds %d", ix.Len(), corp.Len())
	}
	for i, th := range corp.Thumbs {
		if th != nil && th.Channels != canvasChannels {
			return nil, &ShapeMismatchError{Tile: i, What: "channel count", Want: canvasChannels, Got: th.Channels}
		}
	}
	if err := corp.Validate(); err != nil {
		return nil, err
	}

	if opts.MaxResolution == 0 {
		opts.MaxResolution = DefaultMaxResolution
	}
	if opts.MaxResolution < 0 {
		return nil, fmt.Errorf("invalid maximum resolution %d", opts.MaxResolution)
	}
	if opts.Neighbors == 0 {
		opts.Neighbors = DefaultNeighbors
	}
	if opts.Neighbors < 0 {
		return nil, fmt.Errorf("invalid neighbor count %d", opts.Neighbors)
	}
	opts.Neighbors = min(opts.Neighbors, ix.Len())

	return &Composer{corpus: corp, index: ix, opts: opts}, nil
}

// Compose builds the mosaic for target.
//
// The whole canvas is returned or nothing is: on error (including cancellation
// of ctx) the partially filled canvas is discarded.
func (c *Composer) Compose(ctx context.Context, target image.Image) (*Result, error) {
	small, err := imaging.Downsample(target, c.opts.MaxResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to downsample target: %w", err)
	}

	ts := c.corpus.Size
	res := &Result{
		Canvas:   imaging.NewPixels(small.Width*ts, small.Height*ts, canvasChannels),
		Columns:  small.Width,
		Rows:     small.Height,
		TileSize: ts,
		Layout:   make([]int, small.Width*small.Height),
	}

	var (
		mu       sync.Mutex
		used     = roaring.New()
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	dims := c.index.Dims()
	parallel.Line(small.Height, func(start, end int) {
		placed := roaring.New()
		for y := start; y < end; y++ {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			r := rand.New(rand.NewPCG(c.opts.Seed, uint64(y)))
			for x := 0; x < small.Width; x++ {
				nn, err := c.index.Nearest(small.ColorAt(x, y).Narrow(dims), c.opts.Neighbors)
				if err != nil {
					fail(fmt.Errorf("block (%d,%d): %w", x, y, err))
					return
				}
				tile := c.opts.Selection.pick(r, nn)
				res.Layout[y*small.Width+x] = tile
				c.place(res.Canvas, x, y, tile)
				placed.Add(uint32(tile))
			}
		}
		mu.Lock()
		used.Or(placed)
		mu.Unlock()
	})

	if firstErr != nil {
		return nil, firstErr
	}

	res.Stats = Stats{
		Blocks:        len(res.Layout),
		DistinctTiles: int(used.GetCardinality()),
	}
	return res, nil
}

// place copies the thumbnail of tile into the canvas block at column x, row y.
func (c *Composer) place(canvas *imaging.Pixels, x, y, tile int) {
	thumb := c.corpus.Thumbs[tile]
	ts := c.corpus.Size
	rowBytes := ts * canvasChannels
	for ty := 0; ty < ts; ty++ {
		off := ((y*ts+ty)*canvas.Width + x*ts) * canvasChannels
		copy(canvas.Pix[off:off+rowBytes], thumb.Row(ty))
	}
}

// Compose is a convenience wrapper that builds the index from corp's colors and
// composes target in one call.
func Compose(ctx context.Context, target image.Image, corp *corpus.Corpus, opts Options) (*Result, error) {
	if corp == nil || corp.Len() == 0 {
		return nil, fmt.Errorf("cannot compose: %w", index.ErrIndexEmpty)
	}
	ix, err := index.New(corp.Colors)
	if err != nil {
		return nil, fmt.Errorf("failed to index tile colors: %w", err)
	}
	comp, err := New(corp, ix, opts)
	if err != nil {
		return nil, err
	}
	return comp.Compose(ctx, target)
}
