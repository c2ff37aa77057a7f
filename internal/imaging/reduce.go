package imaging

import (
	"fmt"
	"sort"
)

// Method selects the color reduction strategy of a Reducer.
type Method int

const (
	// SingleCluster returns the centroid of the (optionally filtered) pixels.
	SingleCluster Method = iota
	// QuantizedVote returns the most frequent coarse buckets covering Threshold
	// of the pixels.
	QuantizedVote
)

// DefaultThreshold is the share of pixels QuantizedVote accumulates before stopping.
const DefaultThreshold = 0.6

// quantLevels is the number of equal-width bins per channel used by QuantizedVote.
const quantLevels = 6

func (m Method) String() string {
	switch m {
	case SingleCluster:
		return "single-cluster"
	case QuantizedVote:
		return "quantized-vote"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a method name ("single-cluster" or "quantized-vote") to a Method.
// The aliases "kmeans" and "quantcount" are accepted as well.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "single-cluster", "kmeans":
		return SingleCluster, nil
	case "quantized-vote", "quantcount":
		return QuantizedVote, nil
	default:
		return 0, fmt.Errorf("unknown color reduction method %q", s)
	}
}

// Reducer summarizes a pixel grid into representative colors.
//
// The zero value uses SingleCluster, removes the black/white sentinels, applies
// the 0.6 vote threshold and falls back gracefully on degenerate input.
type Reducer struct {
	// Method selects the reduction strategy.
	Method Method

	// KeepBlackWhite disables removal of the black and white sentinels.
	KeepBlackWhite bool

	// Threshold is the pixel share QuantizedVote accumulates. Zero means DefaultThreshold.
	Threshold float64

	// Strict makes a fully filtered grid fail with ErrDegenerateInput instead of
	// falling back (unfiltered centroid, or the dominant discarded bucket).
	Strict bool
}

// Sentinels removed by SingleCluster. Comparison includes alpha, so only fully
// transparent white and black pixels match.
var (
	whiteSentinel = [4]uint8{255, 255, 255, 0}
	blackSentinel = [4]uint8{0, 0, 0, 0}
)

// Reduce returns the representative colors of px.
//
// Parameters:
//   - px: A 3- or 4-channel grid with at least one pixel.
//
// Returns:
//   - []Color: For SingleCluster exactly one color with px.Channels channels.
//     For QuantizedVote one or more 3-channel colors ordered by descending
//     frequency; equal frequencies are ordered by ascending (R,G,B).
//   - error: Non-nil if the shape is unsupported, the grid is empty
//     (ErrDegenerateInput), or every pixel was filtered in Strict mode.
func (r Reducer) Reduce(px *Pixels) ([]Color, error) {
	if err := px.Validate(); err != nil {
		return nil, err
	}
	if px.Len() == 0 {
		return nil, fmt.Errorf("empty %dx%d grid: %w", px.Width, px.Height, ErrDegenerateInput)
	}

	switch r.Method {
	case SingleCluster:
		c, err := r.singleCluster(px)
		if err != nil {
			return nil, err
		}
		return []Color{c}, nil
	case QuantizedVote:
		return r.quantizedVote(px)
	default:
		return nil, fmt.Errorf("unsupported color reduction method %v", r.Method)
	}
}

// singleCluster computes the k=1 Lloyd centroid, which is the per-channel mean.
func (r Reducer) singleCluster(px *Pixels) (Color, error) {
	ch := px.Channels
	sums := make([]float64, ch)
	all := make([]float64, ch)
	kept := 0

	for i := 0; i < len(px.Pix); i += ch {
		p := px.Pix[i : i+ch]
		for c, v := range p {
			all[c] += float64(v)
		}
		if !r.KeepBlackWhite && (isSentinel(p, whiteSentinel) || isSentinel(p, blackSentinel)) {
			continue
		}
		for c, v := range p {
			sums[c] += float64(v)
		}
		kept++
	}

	if kept == 0 {
		if r.Strict {
			return nil, fmt.Errorf("all %d pixels are black/white sentinels: %w", px.Len(), ErrDegenerateInput)
		}
		sums, kept = all, px.Len()
	}

	centroid := make(Color, ch)
	for c := range sums {
		centroid[c] = sums[c] / float64(kept)
	}
	return centroid, nil
}

func isSentinel(p []uint8, s [4]uint8) bool {
	for i, v := range p {
		if v != s[i] {
			return false
		}
	}
	return true
}

// bucket holds the per-channel bin indices (0-5) of a quantized RGB color.
type bucket [3]uint8

var (
	whiteBucket = bucket{quantLevels - 1, quantLevels - 1, quantLevels - 1}
	blackBucket = bucket{}
)

func quantize(v uint8) uint8 { return uint8(int(v) * quantLevels / 256) }

// color maps each bin back to its representative 8-bit value 0, 51, ..., 255.
func (b bucket) color() Color {
	const step = 255 / (quantLevels - 1)
	return RGB(b[0]*step, b[1]*step, b[2]*step)
}

func (b bucket) less(o bucket) bool {
	for i := range b {
		if b[i] != o[i] {
			return b[i] < o[i]
		}
	}
	return false
}

type bucketCount struct {
	b bucket
	n int
}

func (r Reducer) quantizedVote(px *Pixels) ([]Color, error) {
	counts := make(map[bucket]int)
	ch := px.Channels
	for i := 0; i < len(px.Pix); i += ch {
		counts[bucket{quantize(px.Pix[i]), quantize(px.Pix[i+1]), quantize(px.Pix[i+2])}]++
	}

	white, black := counts[whiteBucket], counts[blackBucket]
	delete(counts, whiteBucket)
	delete(counts, blackBucket)

	if len(counts) == 0 {
		if r.Strict {
			return nil, fmt.Errorf("all %d pixels quantize to black or white: %w", px.Len(), ErrDegenerateInput)
		}
		if white > black {
			return []Color{whiteBucket.color()}, nil
		}
		return []Color{blackBucket.color()}, nil
	}

	ranked := make([]bucketCount, 0, len(counts))
	total := 0
	for b, n := range counts {
		ranked = append(ranked, bucketCount{b: b, n: n})
		total += n
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].b.less(ranked[j].b)
	})

	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var (
		colors  []Color
		covered float64
	)
	for _, bc := range ranked {
		if covered >= threshold {
			break
		}
		covered += float64(bc.n) / float64(total)
		colors = append(colors, bc.b.color())
	}
	return colors, nil
}
