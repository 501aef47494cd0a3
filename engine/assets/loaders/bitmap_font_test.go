package loaders

import (
	"image"
	"testing"

	"github.com/fzipp/bmfont"
)

func TestBuildAtlas(t *testing.T) {
	font := &bmfont.Font{
		Descriptor: &bmfont.Descriptor{
			Info:   bmfont.Info{Face: "Test", Size: 24},
			Common: bmfont.Common{LineHeight: 30, Base: 24, ScaleW: 256, ScaleH: 128},
			Chars: map[rune]bmfont.Char{
				'A': {ID: 'A', X: 4, Y: 8, Width: 12, Height: 16, XOffset: 1, YOffset: 2, XAdvance: 13, Page: 1},
				'B': {ID: 'B', X: 20, Y: 8, Width: 11, Height: 16, XAdvance: 12},
			},
			Kerning: map[bmfont.CharPair]bmfont.Kerning{
				{First: 'B', Second: 'A'}: {Amount: -2},
				{First: 'A', Second: 'B'}: {Amount: -1},
			},
		},
		// Out-of-order keys; pages must come back sorted by id.
		PageSheets: map[int]image.Image{
			1: image.NewRGBA(image.Rect(0, 0, 2, 2)),
			0: image.NewRGBA(image.Rect(0, 0, 4, 4)),
		},
	}

	atlas := buildAtlas(font)

	if atlas.Face != "Test" || atlas.Size != 24 {
		t.Errorf("face/size: got %q/%d, want Test/24", atlas.Face, atlas.Size)
	}
	if atlas.LineHeight != 30 || atlas.Baseline != 24 {
		t.Errorf("metrics: got lineHeight=%d base=%d, want 30/24", atlas.LineHeight, atlas.Baseline)
	}
	if atlas.AtlasWidth != 256 || atlas.AtlasHeight != 128 {
		t.Errorf("atlas extent: got %dx%d, want 256x128", atlas.AtlasWidth, atlas.AtlasHeight)
	}

	if len(atlas.Pages) != 2 {
		t.Fatalf("pages: got %d, want 2", len(atlas.Pages))
	}
	if atlas.Pages[0].Width != 4 || atlas.Pages[1].Width != 2 {
		t.Errorf("page order: got widths %d,%d, want 4,2", atlas.Pages[0].Width, atlas.Pages[1].Width)
	}

	glyph, ok := atlas.Glyphs['A']
	if !ok {
		t.Fatal("glyph A missing")
	}
	if glyph.X != 4 || glyph.Y != 8 || glyph.Width != 12 || glyph.Height != 16 {
		t.Errorf("glyph A rect: got %+v", glyph)
	}
	if glyph.XAdvance != 13 || glyph.Page != 1 {
		t.Errorf("glyph A advance/page: got %d/%d, want 13/1", glyph.XAdvance, glyph.Page)
	}

	if len(atlas.Kernings) != 2 {
		t.Fatalf("kernings: got %d, want 2", len(atlas.Kernings))
	}
	if atlas.Kernings[0].First != 'A' || atlas.Kernings[0].Amount != -1 {
		t.Errorf("kerning order: got %+v first", atlas.Kernings[0])
	}
	if atlas.Kernings[1].First != 'B' || atlas.Kernings[1].Amount != -2 {
		t.Errorf("kerning order: got %+v second", atlas.Kernings[1])
	}
}
