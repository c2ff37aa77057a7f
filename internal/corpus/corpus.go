// Package corpus builds, validates and persists tile corpora.
//
// A Corpus pairs every tile thumbnail with its representative color. It is
// produced once by a Builder, written with a Codec, and then loaded read-only
// by the composer.
//
// # Invariants
//
//   - len(Colors) == len(Thumbs)
//   - Colors[i] is the representative color of Thumbs[i]
//   - every thumbnail is Size×Size with the same channel count (3 or 4)
//   - every color has the same channel count (3 or 4)
//
// A corpus with zero tiles is structurally valid but cannot be composed with.
package corpus

import (
	"errors"
	"fmt"

	"github.com/ironsheep/image-mosaic/internal/imaging"
)

var (
	// ErrCorruptCorpus is returned when persisted or in-memory corpus data
	// violates the corpus invariants.
	ErrCorruptCorpus = errors.New("corrupt tile corpus")

	// ErrEmptyCorpus is returned when a build produced no tiles.
	ErrEmptyCorpus = errors.New("tile corpus is empty")
)

// Thumbnail is a Size×Size tile image.
type Thumbnail = imaging.Pixels

// Corpus is an ordered collection of tiles sharing one square tile size.
type Corpus struct {
	Colors []imaging.Color
	Thumbs []*Thumbnail
	Size   int
}

// Len returns the number of tiles.
func (c *Corpus) Len() int { return len(c.Thumbs) }

// Channels returns the channel count of the thumbnails, or 0 for an empty corpus.
func (c *Corpus) Channels() int {
	if len(c.Thumbs) == 0 {
		return 0
	}
	return c.Thumbs[0].Channels
}

// ColorDims returns the channel count of the colors, or 0 for an empty corpus.
func (c *Corpus) ColorDims() int {
	if len(c.Colors) == 0 {
		return 0
	}
	return c.Colors[0].Dims()
}

// Validate checks the corpus invariants. Violations wrap ErrCorruptCorpus.
func (c *Corpus) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: tile size %d is not positive", ErrCorruptCorpus, c.Size)
	}
	if len(c.Colors) != len(c.Thumbs) {
		return fmt.Errorf("%w: %d colors but %d thumbnails", ErrCorruptCorpus, len(c.Colors), len(c.Thumbs))
	}

	for i, th := range c.Thumbs {
		if th == nil {
			return fmt.Errorf("%w: thumbnail %d is missing", ErrCorruptCorpus, i)
		}
		if err := th.Validate(); err != nil {
			return fmt.Errorf("%w: thumbnail %d: %v", ErrCorruptCorpus, i, err)
		}
		if th.Width != c.Size || th.Height != c.Size {
			return fmt.Errorf("%w: thumbnail %d is %dx%d, tile size is %d",
				ErrCorruptCorpus, i, th.Width, th.Height, c.Size)
		}
		if th.Channels != c.Thumbs[0].Channels {
			return fmt.Errorf("%w: thumbnail %d has %d channels, thumbnail 0 has %d",
				ErrCorruptCorpus, i, th.Channels, c.Thumbs[0].Channels)
		}
	}

	for i, col := range c.Colors {
		if d := col.Dims(); d != 3 && d != 4 {
			return fmt.Errorf("%w: color %d has %d channels", ErrCorruptCorpus, i, d)
		}
		if col.Dims() != c.Colors[0].Dims() {
			return fmt.Errorf("%w: color %d has %d channels, color 0 has %d",
				ErrCorruptCorpus, i, col.Dims(), c.Colors[0].Dims())
		}
	}
	return nil
}

// Equal reports whether both corpora hold identical colors, thumbnails and size.
func (c *Corpus) Equal(o *Corpus) bool {
	if c.Size != o.Size || len(c.Colors) != len(o.Colors) || len(c.Thumbs) != len(o.Thumbs) {
		return false
	}
	for i := range c.Colors {
		if !c.Colors[i].Equal(o.Colors[i]) {
			return false
		}
	}
	for i := range c.Thumbs {
		if !c.Thumbs[i].Equal(o.Thumbs[i]) {
			return false
		}
	}
	return true
}
