package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createBandedImage creates a landscape image: red side bands and a green center square
func createBandedImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	margin := (width - height) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{255, 0, 0, 255}
			if x >= margin && x < margin+height {
				c = color.NRGBA{0, 255, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSquareThumbnail_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"landscape", 300, 200},
		{"portrait", 90, 400},
		{"square", 128, 128},
		{"smaller than tile", 10, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(tt.width, tt.height, color.NRGBA{1, 2, 3, 255})
			px, err := SquareThumbnail(img, 60)
			if err != nil {
				t.Fatalf("SquareThumbnail failed: %v", err)
			}
			if px.Width != 60 || px.Height != 60 || px.Channels != 4 {
				t.Errorf("shape: got %dx%dx%d, want 60x60x4", px.Width, px.Height, px.Channels)
			}
			if err := px.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestSquareThumbnail_CentersCrop(t *testing.T) {
	px, err := SquareThumbnail(createBandedImage(600, 200), 20)
	if err != nil {
		t.Fatalf("SquareThumbnail failed: %v", err)
	}
	// The red bands are cropped away; the middle of the thumbnail is pure green.
	for _, p := range [][2]int{{5, 0}, {14, 0}, {5, 19}, {14, 19}, {10, 10}} {
		got := px.Pixel(p[0], p[1])
		if got[0] > 8 || got[1] < 247 {
			t.Errorf("pixel %v: got %v, want green", p, got)
		}
	}
}

func TestSquareThumbnail_Invalid(t *testing.T) {
	img := createInMemoryImage(10, 10, color.NRGBA{})
	if _, err := SquareThumbnail(img, 0); err == nil {
		t.Error("SquareThumbnail should fail for size 0")
	}
	if _, err := SquareThumbnail(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 8); err == nil {
		t.Error("SquareThumbnail should fail for an empty image")
	}
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape", 500, 200, 125, 50},
		{"portrait", 100, 400, 31, 125},
		{"already small", 40, 30, 40, 30},
		{"exact", 125, 125, 125, 125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(tt.width, tt.height, color.NRGBA{9, 9, 9, 255})
			px, err := Downsample(img, 125)
			if err != nil {
				t.Fatalf("Downsample failed: %v", err)
			}
			if px.Width != tt.wantW || px.Height != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", px.Width, px.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDownsample_Invalid(t *testing.T) {
	if _, err := Downsample(createInMemoryImage(4, 4, color.NRGBA{}), 0); err == nil {
		t.Error("Downsample should fail for maxSide 0")
	}
}
