package loaders

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	// Register the decoders LoadTexture2D accepts.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// LoadTexture2D decodes an image file into a texture description ready
// for Backend.CreateTexture2D. Whatever the source pixel layout, the
// result is tightly packed RGBA8.
func LoadTexture2D(path string) (*renderer.Texture2DDescription, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	desc := TextureFromImage(img)
	desc.DebugName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return desc, nil
}

// TextureFromImage converts any decoded image into an RGBA8 texture
// description. The pixel slice is owned by the returned description.
func TextureFromImage(img image.Image) *renderer.Texture2DDescription {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != width*4 {
		converted := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(converted, converted.Bounds(), img, bounds.Min, draw.Src)
		rgba = converted
	}

	return &renderer.Texture2DDescription{
		Width:     uint32(width),
		Height:    uint32(height),
		Format:    renderer.FormatRGBA8Unorm,
		Pixels:    rgba.Pix,
		MinFilter: renderer.FilterLinear,
		MagFilter: renderer.FilterLinear,
		AddressU:  renderer.AddressModeRepeat,
		AddressV:  renderer.AddressModeRepeat,
		AddressW:  renderer.AddressModeRepeat,
	}
}
