package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ironsheep/image-mosaic/internal/imaging"
)

// Compression selects how the corpus document is compressed on disk.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", byte(c))
	}
}

// ParseCompression maps "none", "zstd" or "lz4" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// File layout:
//
//	magic   [4]byte "MSCC"
//	version byte
//	codec   byte (Compression)
//	payload JSON document, compressed per codec
var magic = [4]byte{'M', 'S', 'C', 'C'}

const formatVersion = 1

// document is the persisted form. Field names match the legacy tile file archive.
type document struct {
	Colours [][]float64 `json:"colours"`
	Thumbs  []*thumbDoc `json:"thumbs"`
	Size    *int        `json:"size"`
}

type thumbDoc struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	Pix      []byte `json:"pix"`
}

// Codec reads and writes corpus files.
//
// Files are self-describing: Decode reads the compression from the header, so a
// Codec configured for zstd still reads lz4 or uncompressed files.
type Codec struct {
	Compression Compression
}

// DefaultCodec writes zstd-compressed corpora.
var DefaultCodec = Codec{Compression: CompressionZstd}

// Encode validates corp and writes it to w.
func (c Codec) Encode(w io.Writer, corp *Corpus) error {
	if err := corp.Validate(); err != nil {
		return fmt.Errorf("refusing to encode: %w", err)
	}

	doc := document{
		Colours: make([][]float64, len(corp.Colors)),
		Thumbs:  make([]*thumbDoc, len(corp.Thumbs)),
		Size:    &corp.Size,
	}
	for i, col := range corp.Colors {
		doc.Colours[i] = col
	}
	for i, th := range corp.Thumbs {
		doc.Thumbs[i] = &thumbDoc{Width: th.Width, Height: th.Height, Channels: th.Channels, Pix: th.Pix}
	}

	header := append(magic[:], formatVersion, byte(c.Compression))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write corpus header: %w", err)
	}

	switch c.Compression {
	case CompressionNone:
		return writeDocument(w, &doc)
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if err := writeDocument(zw, &doc); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if err := writeDocument(zw, &doc); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fmt.Errorf("unsupported compression %v", c.Compression)
	}
}

func writeDocument(w io.Writer, doc *document) error {
	if err := gojson.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	return nil
}

// Decode reads a corpus written by Encode. Any structural problem, including
// truncation, wraps ErrCorruptCorpus.
func (Codec) Decode(r io.Reader) (*Corpus, error) {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorruptCorpus, err)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return nil, fmt.Errorf("%w: not a corpus file", ErrCorruptCorpus)
	}
	if header[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptCorpus, header[4])
	}

	var doc document
	switch comp := Compression(header[5]); comp {
	case CompressionNone:
		if err := readDocument(r, &doc); err != nil {
			return nil, err
		}
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptCorpus, err)
		}
		defer zr.Close()
		if err := readDocument(zr, &doc); err != nil {
			return nil, err
		}
	case CompressionLZ4:
		if err := readDocument(lz4.NewReader(r), &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorruptCorpus, byte(comp))
	}

	return doc.corpus()
}

func readDocument(r io.Reader, doc *document) error {
	if err := gojson.NewDecoder(r).Decode(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCorpus, err)
	}
	return nil
}

func (doc *document) corpus() (*Corpus, error) {
	switch {
	case doc.Colours == nil:
		return nil, fmt.Errorf("%w: missing field colours", ErrCorruptCorpus)
	case doc.Thumbs == nil:
		return nil, fmt.Errorf("%w: missing field thumbs", ErrCorruptCorpus)
	case doc.Size == nil:
		return nil, fmt.Errorf("%w: missing field size", ErrCorruptCorpus)
	}

	corp := &Corpus{
		Colors: make([]imaging.Color, len(doc.Colours)),
		Thumbs: make([]*Thumbnail, len(doc.Thumbs)),
		Size:   *doc.Size,
	}
	for i, col := range doc.Colours {
		corp.Colors[i] = col
	}
	for i, th := range doc.Thumbs {
		if th == nil {
			return nil, fmt.Errorf("%w: thumbnail %d is null", ErrCorruptCorpus, i)
		}
		pix := th.Pix
		if pix == nil {
			pix = []byte{}
		}
		corp.Thumbs[i] = &Thumbnail{Width: th.Width, Height: th.Height, Channels: th.Channels, Pix: pix}
	}

	if err := corp.Validate(); err != nil {
		return nil, err
	}
	return corp, nil
}

// WriteFile encodes corp to path, replacing any existing file.
func (c Codec) WriteFile(path string, corp *Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := c.Encode(bw, corp); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write corpus file: %w", err)
	}
	return f.Close()
}

// ReadFile loads the corpus stored at path.
func (c Codec) ReadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	corp, err := c.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return corp, nil
}
