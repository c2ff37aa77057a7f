package corpus

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-mosaic/internal/imaging"
)

// DefaultMaxPixel is the default thumbnail side length.
const DefaultMaxPixel = 60

// Builder turns a directory of images into a Corpus.
//
// Every regular file in the directory is tried as an image. Files are processed
// in sorted name order, so tile indices are stable across runs and platforms.
// A file that cannot be opened, decoded or reduced is skipped, logged and
// recorded in the Report; it never aborts the build.
type Builder struct {
	// MaxPixel is the side length of the square thumbnails. Zero means DefaultMaxPixel.
	MaxPixel int

	// Reducer computes each tile's representative color from the full-resolution image.
	Reducer imaging.Reducer

	// Workers bounds the number of files processed concurrently. Zero means GOMAXPROCS.
	Workers int

	// Verbose logs one line per processed file.
	Verbose bool
}

// Skip records a file left out of the corpus.
type Skip struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Report summarizes a build.
type Report struct {
	// Found is the number of candidate files in the directory.
	Found int `json:"found"`

	// Tiles is the number of files that became tiles.
	Tiles int `json:"tiles"`

	// Skipped lists the files that could not be used, in name order.
	Skipped []Skip `json:"skipped"`
}

type tile struct {
	color imaging.Color
	thumb *Thumbnail
}

// Build processes every file in dir and returns the corpus together with a report.
//
// Returns:
//   - *Corpus: Tiles in sorted file name order. Colors[i] is the first color the
//     Reducer produced for file i.
//   - *Report: Always non-nil when the directory could be listed.
//   - error: Non-nil if the directory cannot be listed, ctx is cancelled, or no
//     file produced a tile (ErrEmptyCorpus).
func (b *Builder) Build(ctx context.Context, dir string) (*Corpus, *Report, error) {
	size := b.MaxPixel
	if size == 0 {
		size = DefaultMaxPixel
	}
	if size < 0 {
		return nil, nil, fmt.Errorf("invalid max pixel %d", size)
	}

	paths, err := listFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("%d images found in %s", len(paths), dir)

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Each worker writes only to its own slot, which keeps the result ordered.
	tiles := make([]*tile, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := b.buildTile(path, size)
			if err != nil {
				failures[i] = err
				return nil
			}
			tiles[i] = t
			if b.Verbose {
				log.Printf("processed %s (%d/%d) color %s", filepath.Base(path), i+1, len(paths), t.color.Hex())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("corpus build interrupted: %w", err)
	}

	corp := &Corpus{Size: size}
	report := &Report{Found: len(paths)}
	for i, t := range tiles {
		if t == nil {
			log.Printf("skipping %s: %v", paths[i], failures[i])
			report.Skipped = append(report.Skipped, Skip{Path: paths[i], Err: failures[i]})
			continue
		}
		corp.Colors = append(corp.Colors, t.color)
		corp.Thumbs = append(corp.Thumbs, t.thumb)
	}
	report.Tiles = corp.Len()

	if corp.Len() == 0 {
		return nil, report, fmt.Errorf("%w: no usable images in %s", ErrEmptyCorpus, dir)
	}
	return corp, report, nil
}

func (b *Builder) buildTile(path string, size int) (*tile, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}

	colors, err := b.Reducer.Reduce(imaging.FromImage(img))
	if err != nil {
		return nil, fmt.Errorf("failed to reduce colors of %s: %w", path, err)
	}

	thumb, err := imaging.SquareThumbnail(img, size)
	if err != nil {
		return nil, fmt.Errorf("failed to thumbnail %s: %w", path, err)
	}

	return &tile{color: colors[0], thumb: thumb}, nil
}

// listFiles returns the non-directory entries of dir, sorted by name.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tile directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
