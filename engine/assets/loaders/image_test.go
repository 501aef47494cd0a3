package loaders

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

func TestTextureFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 3))
	src.SetRGBA(1, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	desc := TextureFromImage(src)
	if desc.Width != 2 || desc.Height != 3 {
		t.Fatalf("extent: got %dx%d, want 2x3", desc.Width, desc.Height)
	}
	if desc.Format != renderer.FormatRGBA8Unorm {
		t.Errorf("format: got %v, want rgba8", desc.Format)
	}
	if len(desc.Pixels) != 2*3*4 {
		t.Fatalf("pixel bytes: got %d, want %d", len(desc.Pixels), 2*3*4)
	}
	off := (2*2 + 1) * 4
	if desc.Pixels[off] != 10 || desc.Pixels[off+1] != 20 || desc.Pixels[off+2] != 30 {
		t.Errorf("pixel (1,2): got %v, want [10 20 30]", desc.Pixels[off:off+3])
	}
}

func TestTextureFromImageConvertsNonRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.SetGray(0, 0, color.Gray{Y: 77})

	desc := TextureFromImage(src)
	if desc.Format != renderer.FormatRGBA8Unorm {
		t.Fatalf("format: got %v, want rgba8", desc.Format)
	}
	if desc.Pixels[0] != 77 || desc.Pixels[1] != 77 || desc.Pixels[2] != 77 || desc.Pixels[3] != 255 {
		t.Errorf("gray conversion: got %v, want [77 77 77 255]", desc.Pixels[:4])
	}
}

func TestLoadTexture2D(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checker.png")

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(1, 1, color.RGBA{B: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	desc, err := LoadTexture2D(path)
	if err != nil {
		t.Fatalf("LoadTexture2D: %v", err)
	}
	if desc.Width != 2 || desc.Height != 2 {
		t.Errorf("extent: got %dx%d, want 2x2", desc.Width, desc.Height)
	}
	if desc.DebugName != "checker" {
		t.Errorf("debug name: got %q, want checker", desc.DebugName)
	}
	if desc.Pixels[0] != 255 || desc.Pixels[3] != 255 {
		t.Errorf("pixel (0,0): got %v, want red", desc.Pixels[:4])
	}

	if _, err := LoadTexture2D(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("want error for missing file")
	}
}
