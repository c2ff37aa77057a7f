package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a uniformly colored PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := createInMemoryImage(width, height, c)

	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	path := createTestImage(t, 120, 80, color.NRGBA{255, 0, 0, 255})

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 120x80", b.Dx(), b.Dy())
	}
}

func TestOpen_NonExistent(t *testing.T) {
	_, err := Open("/nonexistent/path/to/image.png")
	if err == nil {
		t.Fatal("Open should fail for non-existent file")
	}
	var unreadable *UnreadableImageError
	if errors.As(err, &unreadable) {
		t.Error("missing file should not be reported as unreadable image data")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestOpen_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Open(path)
	var unreadable *UnreadableImageError
	if !errors.As(err, &unreadable) {
		t.Fatalf("got %v, want *UnreadableImageError", err)
	}
	if unreadable.Path != path {
		t.Errorf("Path: got %s, want %s", unreadable.Path, path)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	px := FromImage(createInMemoryImage(5, 3, color.NRGBA{10, 20, 30, 255}))
	path := filepath.Join(t.TempDir(), "out.png")

	if err := Save(px.Image(), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := FromImage(img); !got.Equal(px) {
		t.Error("saved PNG does not decode to the original pixels")
	}
}

func TestSave_UnsupportedExtension(t *testing.T) {
	px := NewPixels(2, 2, 4)
	if err := Save(px.Image(), filepath.Join(t.TempDir(), "out.xyz")); err == nil {
		t.Error("Save should fail for an unknown extension")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 100, 100, color.NRGBA{255, 0, 0, 255})

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_EvictAndClear(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 10, 10, color.NRGBA{0, 255, 0, 255})

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Evict(path)

	cache.mu.RLock()
	_, exists := cache.images[path]
	cache.mu.RUnlock()
	if exists {
		t.Error("Evict did not remove image from cache")
	}

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Clear()

	cache.mu.RLock()
	count := len(cache.images)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", count)
	}

	// Should not panic
	cache.Evict("/nonexistent/path")
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 50, 50, color.NRGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestPixels_ImageSharesBuffer(t *testing.T) {
	px := NewPixels(3, 2, 4)
	img := px.Image()
	img.Set(1, 1, color.NRGBA{1, 2, 3, 4})

	if got := px.Pixel(1, 1); got[0] != 1 || got[1] != 2 || got[2] != 3 || got[3] != 4 {
		t.Errorf("Pixel(1,1): got %v, want [1 2 3 4]", got)
	}
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Bounds: got %v", img.Bounds())
	}
}

func TestPixels_ThreeChannelImage(t *testing.T) {
	px := &Pixels{Width: 2, Height: 1, Channels: 3, Pix: []uint8{1, 2, 3, 4, 5, 6}}
	img := px.Image()
	want := []uint8{1, 2, 3, 255, 4, 5, 6, 255}
	for i, v := range want {
		if img.Pix[i] != v {
			t.Fatalf("Pix: got %v, want %v", img.Pix, want)
		}
	}
}

func TestPixels_Validate(t *testing.T) {
	tests := []struct {
		name    string
		px      *Pixels
		wantErr bool
	}{
		{"rgba", NewPixels(4, 4, 4), false},
		{"rgb", NewPixels(4, 4, 3), false},
		{"gray", NewPixels(4, 4, 1), true},
		{"short buffer", &Pixels{Width: 4, Height: 4, Channels: 4, Pix: make([]uint8, 10)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.px.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
