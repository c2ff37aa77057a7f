package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/image-mosaic/internal/corpus"
	"github.com/ironsheep/image-mosaic/internal/imaging"
	"github.com/ironsheep/image-mosaic/internal/index"
	"github.com/ironsheep/image-mosaic/internal/mosaic"
	"github.com/ironsheep/image-mosaic/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var debug bool

func debugf(format string, args ...interface{}) {
	if debug {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

func usage() {
	fmt.Println("image-mosaic - build tile corpora and compose photographic mosaics")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  image-mosaic build [options] dir_name tile_file")
	fmt.Println("  image-mosaic compose [options] in_file out_file tile_file")
	fmt.Println("  image-mosaic info tile_file")
	fmt.Println("  image-mosaic serve")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run 'image-mosaic <command> -h' for the options of a command.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_MOSAIC_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("'serve' communicates via MCP protocol over stdin/stdout.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("image-mosaic %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol in serve mode)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug = os.Getenv("IMAGE_MOSAIC_LOG_LEVEL") == "debug"
	debugf("image-mosaic v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "build":
		err = runBuild(ctx, args)
	case "compose":
		err = runCompose(ctx, args)
	case "info":
		err = runInfo(args)
	case "serve":
		server.Version = Version
		err = server.New().Run(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		stop()
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	maxPixel := fs.Int("max-pixel", corpus.DefaultMaxPixel, "side length of the square tile thumbnails")
	method := fs.String("method", imaging.SingleCluster.String(), "representative color method: single-cluster or quantized-vote")
	keepBW := fs.Bool("keep-bw", false, "keep transparent black and white pixels when averaging")
	workers := fs.Int("workers", 0, "files decoded concurrently (0 = number of CPUs)")
	compression := fs.String("compression", corpus.DefaultCodec.Compression.String(), "tile file compression: zstd, lz4 or none")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: image-mosaic build [options] dir_name tile_file")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("expected dir_name and tile_file, got %d arguments", fs.NArg())
	}
	dir, tileFile := fs.Arg(0), fs.Arg(1)

	m, err := imaging.ParseMethod(*method)
	if err != nil {
		return err
	}
	comp, err := corpus.ParseCompression(*compression)
	if err != nil {
		return err
	}

	start := time.Now()
	b := &corpus.Builder{
		MaxPixel: *maxPixel,
		Reducer:  imaging.Reducer{Method: m, KeepBlackWhite: *keepBW},
		Workers:  *workers,
		Verbose:  debug,
	}
	corp, report, err := b.Build(ctx, dir)
	if err != nil {
		return err
	}
	debugf("built %d tiles in %v", corp.Len(), time.Since(start))

	if err := (corpus.Codec{Compression: comp}).WriteFile(tileFile, corp); err != nil {
		return err
	}

	fmt.Printf("%s: %d tiles of %dx%d from %d files (%d skipped)\n",
		tileFile, report.Tiles, corp.Size, corp.Size, report.Found, len(report.Skipped))
	for _, sk := range report.Skipped {
		fmt.Printf("  skipped %s: %v\n", sk.Path, sk.Err)
	}
	return nil
}

func runCompose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	maxRes := fs.Int("max-res", mosaic.DefaultMaxResolution, "longer side of the downsampled target in blocks")
	neighbors := fs.Int("neighbors", mosaic.DefaultNeighbors, "number of nearest tiles each block chooses from")
	selection := fs.String("selection", mosaic.SelectUniform.String(), "neighbor selection: uniform or weighted")
	seed := fs.Uint64("seed", 0, "random seed (default: a fresh seed per run)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: image-mosaic compose [options] in_file out_file tile_file")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return fmt.Errorf("expected in_file, out_file and tile_file, got %d arguments", fs.NArg())
	}
	inFile, outFile, tileFile := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	sel, err := mosaic.ParseSelection(*selection)
	if err != nil {
		return err
	}
	opts := mosaic.Options{
		MaxResolution: *maxRes,
		Neighbors:     *neighbors,
		Selection:     sel,
		Seed:          *seed,
	}
	if !flagSet(fs, "seed") {
		opts.Seed = mosaic.NewSeed()
	}
	debugf("compose seed %d", opts.Seed)

	start := time.Now()
	target, err := imaging.Open(inFile)
	if err != nil {
		return err
	}
	corp, err := corpus.DefaultCodec.ReadFile(tileFile)
	if err != nil {
		return err
	}
	if corp.Len() == 0 {
		return fmt.Errorf("%s: %w", tileFile, index.ErrIndexEmpty)
	}
	debugf("loaded target and %d tiles in %v", corp.Len(), time.Since(start))

	start = time.Now()
	res, err := mosaic.Compose(ctx, target, corp, opts)
	if err != nil {
		return err
	}
	debugf("composed %dx%d blocks in %v", res.Columns, res.Rows, time.Since(start))

	if err := imaging.Save(res.Canvas.Image(), outFile); err != nil {
		return err
	}
	fmt.Printf("%s: %dx%d mosaic, %d blocks, %d distinct tiles\n",
		outFile, res.Canvas.Width, res.Canvas.Height, res.Stats.Blocks, res.Stats.DistinctTiles)
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: image-mosaic info tile_file")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected tile_file, got %d arguments", fs.NArg())
	}

	corp, err := corpus.DefaultCodec.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("tiles:      %d\n", corp.Len())
	fmt.Printf("tile size:  %d\n", corp.Size)
	fmt.Printf("channels:   %d\n", corp.Channels())
	fmt.Printf("color dims: %d\n", corp.ColorDims())
	return nil
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
