// Package index provides nearest-neighbor lookup over tile representative colors.
//
// The index is a k-d tree over raw channel space (0-255 per channel) built once
// from a corpus color array. It is immutable after construction and safe for
// concurrent queries.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/ironsheep/image-mosaic/internal/imaging"
)

var (
	// ErrIndexEmpty is returned when an index is built from zero colors.
	ErrIndexEmpty = errors.New("index has no tiles")

	// ErrInvalidQuery is returned when k is outside [1, Len()] or the query color
	// has the wrong number of channels.
	ErrInvalidQuery = errors.New("invalid nearest-neighbor query")
)

// Neighbor is one entry of a nearest-neighbor result.
type Neighbor struct {
	// Tile is the position of the matching color in the slice the index was built from.
	Tile int `json:"tile"`

	// Distance is the Euclidean distance between the query and the tile color.
	Distance float64 `json:"distance"`
}

// Index answers k-nearest queries over a fixed set of colors.
type Index struct {
	tree *kdtree.Tree
	dims int
	n    int
}

// New builds an index over colors. All colors must have the same number of
// channels. The colors are copied; later changes to the slice do not affect
// the index.
func New(colors []imaging.Color) (*Index, error) {
	if len(colors) == 0 {
		return nil, ErrIndexEmpty
	}
	dims := colors[0].Dims()
	if dims == 0 {
		return nil, fmt.Errorf("tile 0 has no channels")
	}

	pts := make(points, len(colors))
	for i, c := range colors {
		if c.Dims() != dims {
			return nil, fmt.Errorf("tile %d has %d channels, tile 0 has %d", i, c.Dims(), dims)
		}
		pts[i] = point{v: append([]float64(nil), c...), tile: i}
	}

	return &Index{
		tree: kdtree.New(pts, false),
		dims: dims,
		n:    len(colors),
	}, nil
}

// Len returns the number of indexed colors.
func (ix *Index) Len() int { return ix.n }

// Dims returns the number of channels of the indexed colors.
func (ix *Index) Dims() int { return ix.dims }

// Nearest returns the k indexed colors closest to c, ordered by non-decreasing
// distance. Equal distances are ordered by ascending tile index. Every tile
// appears at most once.
func (ix *Index) Nearest(c imaging.Color, k int) ([]Neighbor, error) {
	if k < 1 || k > ix.n {
		return nil, fmt.Errorf("%w: k=%d with %d tiles", ErrInvalidQuery, k, ix.n)
	}
	if c.Dims() != ix.dims {
		return nil, fmt.Errorf("%w: query has %d channels, index has %d", ErrInvalidQuery, c.Dims(), ix.dims)
	}

	keep := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keep, point{v: c, tile: -1})

	out := make([]Neighbor, 0, k)
	for _, cd := range keep.Heap {
		p, ok := cd.Comparable.(point)
		if !ok {
			// The keeper is seeded with a nil sentinel.
			continue
		}
		out = append(out, Neighbor{Tile: p.tile, Distance: math.Sqrt(cd.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Tile < out[j].Tile
	})
	return out, nil
}

// point is a color tagged with the tile it belongs to.
type point struct {
	v    []float64
	tile int
}

var _ kdtree.Comparable = point{}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.v[d] - c.(point).v[d]
}

func (p point) Dims() int { return len(p.v) }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	var sum float64
	for i, v := range p.v {
		d := v - q.v[i]
		sum += d * d
	}
	return sum
}

type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Pivot(d kdtree.Dim) int                { return plane{points: p, dim: d}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts points along one dimension for median partitioning.
type plane struct {
	points
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool { return p.points[i].v[p.dim] < p.points[j].v[p.dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], dim: p.dim}
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
