package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeSketch writes a white PNG with a black outlined box and returns its
// path inside a per-test temp dir.
func writeSketch(t *testing.T, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for x := width / 4; x < 3*width/4; x++ {
		img.Set(x, height/4, color.Black)
		img.Set(x, 3*height/4, color.Black)
	}
	for y := height / 4; y < 3*height/4; y++ {
		img.Set(width/4, y, color.Black)
		img.Set(3*width/4, y, color.Black)
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeSketch(t, "landing.png", 120, 80)

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 120x80", b.Dx(), b.Dy())
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached image, got %d", cache.Len())
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load should fail for a missing file")
	}

	bogus := filepath.Join(t.TempDir(), "bogus.png")
	if err := os.WriteFile(bogus, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(bogus); err == nil {
		t.Error("Load should fail for a file that is not an image")
	}
}

func TestImageCache_EvictReloads(t *testing.T) {
	cache := NewImageCache()
	path := writeSketch(t, "about.png", 50, 50)

	first, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cache.Evict(path)
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after Evict, got %d", cache.Len())
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("Load after Evict should decode a fresh image")
	}

	cache.Evict("never-loaded.png")
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeSketch(t, "pricing.png", 64, 64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	path := writeSketch(t, "contact.png", 200, 100)

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 100 {
		t.Errorf("unexpected size %dx%d", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("expected png, got %s", info.Format)
	}
	if !info.HasAlpha {
		t.Error("RGBA PNG should report alpha")
	}
	if info.FileSizeBytes <= 0 {
		t.Error("expected a positive file size")
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := map[string]string{
		"a.png":  "png",
		"a.PNG":  "png",
		"a.jpg":  "jpeg",
		"a.jpeg": "jpeg",
		"a.gif":  "gif",
		"a.webp": "unknown",
		"noext":  "unknown",
	}
	for path, want := range tests {
		if got := formatFromExt(path); got != want {
			t.Errorf("formatFromExt(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	path := writeSketch(t, "blog.png", 30, 40)

	dims, err := GetDimensions(cache, path)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 30 || dims.Height != 40 {
		t.Errorf("unexpected dimensions %dx%d", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, "/nonexistent.png"); err == nil {
		t.Error("GetDimensions should fail for a missing file")
	}
}
