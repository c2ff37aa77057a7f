package corpus

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-mosaic/internal/imaging"
)

// createTestCorpus builds a reproducible corpus of n random tiles
func createTestCorpus(n, size, colorDims int) *Corpus {
	r := rand.New(rand.NewPCG(uint64(n), uint64(size)))
	corp := &Corpus{Size: size}
	for i := 0; i < n; i++ {
		th := imaging.NewPixels(size, size, 4)
		for j := range th.Pix {
			th.Pix[j] = uint8(r.IntN(256))
		}
		col := make(imaging.Color, colorDims)
		for j := range col {
			col[j] = r.Float64() * 255
		}
		corp.Colors = append(corp.Colors, col)
		corp.Thumbs = append(corp.Thumbs, th)
	}
	return corp
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		compression Compression
		corp        *Corpus
	}{
		{"none rgba", CompressionNone, createTestCorpus(5, 8, 4)},
		{"zstd rgba", CompressionZstd, createTestCorpus(7, 16, 4)},
		{"lz4 rgb", CompressionLZ4, createTestCorpus(3, 4, 3)},
		{"zstd single tile", CompressionZstd, createTestCorpus(1, 1, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			codec := Codec{Compression: tt.compression}
			if err := codec.Encode(&buf, tt.corp); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			got, err := DefaultCodec.Decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !got.Equal(tt.corp) {
				t.Error("decoded corpus differs from the original")
			}
		})
	}
}

func TestCodec_FileRoundTrip(t *testing.T) {
	corp := createTestCorpus(4, 10, 4)
	path := filepath.Join(t.TempDir(), "tiles.mscc")

	if err := DefaultCodec.WriteFile(path, corp); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := DefaultCodec.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !got.Equal(corp) {
		t.Error("file round trip changed the corpus")
	}
}

func TestCodec_ReadFile_Missing(t *testing.T) {
	_, err := DefaultCodec.ReadFile(filepath.Join(t.TempDir(), "nope.mscc"))
	if err == nil {
		t.Fatal("ReadFile should fail for a missing file")
	}
	if errors.Is(err, ErrCorruptCorpus) {
		t.Error("a missing file is not a corrupt corpus")
	}
}

// encodeRaw writes a header plus an uncompressed JSON payload
func encodeRaw(payload string) *bytes.Buffer {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(formatVersion)
	buf.WriteByte(byte(CompressionNone))
	buf.WriteString(payload)
	return &buf
}

func TestCodec_Decode_Corrupt(t *testing.T) {
	// "AAAA" is 3 zero bytes: a valid 1x1 RGB thumbnail.
	tests := []struct {
		name string
		data *bytes.Buffer
	}{
		{"empty input", &bytes.Buffer{}},
		{"bad magic", bytes.NewBufferString("NOPE\x01\x00{}")},
		{"bad version", bytes.NewBufferString("MSCC\x09\x00{}")},
		{"unknown compression", bytes.NewBufferString("MSCC\x01\x07{}")},
		{"not json", encodeRaw("garbage")},
		{"missing colours", encodeRaw(`{"thumbs":[],"size":1}`)},
		{"missing thumbs", encodeRaw(`{"colours":[],"size":1}`)},
		{"missing size", encodeRaw(`{"colours":[],"thumbs":[]}`)},
		{"zero size", encodeRaw(`{"colours":[],"thumbs":[],"size":0}`)},
		{"negative size", encodeRaw(`{"colours":[],"thumbs":[],"size":-3}`)},
		{"length mismatch", encodeRaw(`{"colours":[[1,2,3],[4,5,6]],"thumbs":[{"width":1,"height":1,"channels":3,"pix":"AAAA"}],"size":1}`)},
		{"wrong thumb size", encodeRaw(`{"colours":[[1,2,3]],"thumbs":[{"width":1,"height":1,"channels":3,"pix":"AAAA"}],"size":2}`)},
		{"short pix", encodeRaw(`{"colours":[[1,2,3]],"thumbs":[{"width":1,"height":1,"channels":4,"pix":"AAAA"}],"size":1}`)},
		{"bad color dims", encodeRaw(`{"colours":[[1,2]],"thumbs":[{"width":1,"height":1,"channels":3,"pix":"AAAA"}],"size":1}`)},
		{"null thumb", encodeRaw(`{"colours":[[1,2,3]],"thumbs":[null],"size":1}`)},
		{"truncated zstd", bytes.NewBufferString("MSCC\x01\x01\x28\xb5\x2f")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultCodec.Decode(tt.data)
			if !errors.Is(err, ErrCorruptCorpus) {
				t.Errorf("got %v, want ErrCorruptCorpus", err)
			}
		})
	}
}

func TestCodec_Encode_RejectsInvalid(t *testing.T) {
	corp := createTestCorpus(2, 4, 4)
	corp.Colors = corp.Colors[:1]

	var buf bytes.Buffer
	err := DefaultCodec.Encode(&buf, corp)
	if !errors.Is(err, ErrCorruptCorpus) {
		t.Errorf("got %v, want ErrCorruptCorpus", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an invalid corpus")
	}
}

func TestCorpus_Validate_MixedChannels(t *testing.T) {
	corp := createTestCorpus(2, 2, 4)
	corp.Thumbs[1] = imaging.NewPixels(2, 2, 3)
	if err := corp.Validate(); !errors.Is(err, ErrCorruptCorpus) {
		t.Errorf("got %v, want ErrCorruptCorpus", err)
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		got, err := ParseCompression(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCompression(%q): got %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression should reject gzip")
	}
}
