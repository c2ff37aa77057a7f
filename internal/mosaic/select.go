package mosaic

import (
	"fmt"
	"math/rand/v2"

	"github.com/ironsheep/image-mosaic/internal/index"
)

// Selection is the policy for picking one tile among the nearest neighbors.
type Selection int

const (
	// SelectUniform picks each neighbor with equal probability.
	SelectUniform Selection = iota
	// SelectWeighted picks neighbors with probability proportional to 1/(distance+1).
	SelectWeighted
)

func (s Selection) String() string {
	switch s {
	case SelectUniform:
		return "uniform"
	case SelectWeighted:
		return "weighted"
	default:
		return fmt.Sprintf("Selection(%d)", int(s))
	}
}

// ParseSelection maps "uniform" or "weighted" to a Selection.
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "uniform":
		return SelectUniform, nil
	case "weighted":
		return SelectWeighted, nil
	default:
		return 0, fmt.Errorf("unknown selection policy %q", s)
	}
}

// pick returns the tile chosen from a non-empty neighbor list.
func (s Selection) pick(r *rand.Rand, nn []index.Neighbor) int {
	if len(nn) == 1 {
		return nn[0].Tile
	}
	if s != SelectWeighted {
		return nn[r.IntN(len(nn))].Tile
	}

	var total float64
	for _, n := range nn {
		total += 1 / (n.Distance + 1)
	}
	u := r.Float64() * total
	for _, n := range nn {
		u -= 1 / (n.Distance + 1)
		if u < 0 {
			return n.Tile
		}
	}
	return nn[len(nn)-1].Tile
}
