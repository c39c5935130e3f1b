package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"
)

func writePNG(t *testing.T, fs afero.Fs, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRegistry_LoadImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "/img/a.png", 7, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	registry := NewImageLoaderRegistry(fs)
	img, err := registry.LoadImage("/img/a.png")
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	defer img.Close()

	if img.Rows() != 3 || img.Cols() != 7 {
		t.Errorf("size = %dx%d, want 3x7", img.Rows(), img.Cols())
	}
	if img.Channels() != 3 {
		t.Errorf("channels = %d, want 3", img.Channels())
	}
	// OpenCV stores BGR
	if b, r := img.GetUCharAt3(0, 0, 0), img.GetUCharAt3(0, 0, 2); b != 30 || r != 10 {
		t.Errorf("pixel (B,R) = (%d,%d), want (30,10)", b, r)
	}
}

func TestRegistry_LoadImageFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/img/broken.jpg", []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/img/empty.png", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	registry := NewImageLoaderRegistry(fs)

	for _, path := range []string{"/img/broken.jpg", "/img/empty.png", "/img/missing.png", "/img/notes.txt"} {
		img, err := registry.LoadImage(path)
		if err == nil {
			t.Errorf("LoadImage(%s) succeeded, want error", path)
		}
		img.Close()
	}
}

func TestHasImageSuffix(t *testing.T) {
	tests := []struct {
		name       string
		ignoreCase bool
		want       bool
	}{
		{"a.png", false, true},
		{"a.jpg", false, true},
		{"a.jpeg", false, true},
		{"a.PNG", false, false},
		{"a.PNG", true, true},
		{"a.JpEg", true, true},
		{"a.gif", true, false},
		{"png", false, false},
		{"archive.png.txt", false, false},
	}
	for _, tt := range tests {
		if got := HasImageSuffix(tt.name, tt.ignoreCase); got != tt.want {
			t.Errorf("HasImageSuffix(%q, %v) = %v, want %v", tt.name, tt.ignoreCase, got, tt.want)
		}
	}
}

func TestCanLoadFile(t *testing.T) {
	registry := NewImageLoaderRegistry(afero.NewMemMapFs())
	if !registry.CanLoadFile("x/photo.JPG") {
		t.Error("registry lookup should be case-insensitive")
	}
	if registry.CanLoadFile("x/photo.tiff") {
		t.Error("tiff is not a candidate format")
	}
	if GetFileFormat("a.jpeg") != FormatJPEG || GetFileFormat("a.bmp") != FormatUnknown {
		t.Error("unexpected GetFileFormat result")
	}
}
