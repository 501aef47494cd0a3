package loaders

import (
	"fmt"
	"sort"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// Glyph is one printable character of a bitmap font atlas. Coordinates
// are texels into the page texture identified by Page.
type Glyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	Page      uint8
}

// Kerning adjusts the advance between a specific pair of glyphs.
type Kerning struct {
	First  rune
	Second rune
	Amount int16
}

// FontAtlas is a loaded bitmap font: the descriptor plus every page
// sheet decoded into an RGBA8 texture description, in page order.
type FontAtlas struct {
	Face        string
	Size        uint32
	LineHeight  int32
	Baseline    int32
	AtlasWidth  int32
	AtlasHeight int32
	Pages       []*renderer.Texture2DDescription
	Glyphs      map[rune]Glyph
	Kernings    []Kerning
}

// LoadFontAtlas parses an AngelCode .fnt descriptor and decodes its
// page sheets. Page files are resolved relative to the descriptor.
func LoadFontAtlas(path string) (*FontAtlas, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	return buildAtlas(font), nil
}

func buildAtlas(font *bmfont.Font) *FontAtlas {
	atlas := &FontAtlas{
		Face:        font.Descriptor.Info.Face,
		Size:        uint32(font.Descriptor.Info.Size),
		LineHeight:  int32(font.Descriptor.Common.LineHeight),
		Baseline:    int32(font.Descriptor.Common.Base),
		AtlasWidth:  int32(font.Descriptor.Common.ScaleW),
		AtlasHeight: int32(font.Descriptor.Common.ScaleH),
		Glyphs:      make(map[rune]Glyph, len(font.Descriptor.Chars)),
		Kernings:    make([]Kerning, 0, len(font.Descriptor.Kerning)),
	}

	// Page sheets arrive as a map; emit them ordered by page id so the
	// slice index is the id a Glyph refers to.
	ids := make([]int, 0, len(font.PageSheets))
	for id := range font.PageSheets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		page := TextureFromImage(font.PageSheets[id])
		page.DebugName = fmt.Sprintf("%s-page%d", atlas.Face, id)
		atlas.Pages = append(atlas.Pages, page)
	}

	for _, c := range font.Descriptor.Chars {
		atlas.Glyphs[c.ID] = Glyph{
			Codepoint: c.ID,
			X:         uint16(c.X),
			Y:         uint16(c.Y),
			Width:     uint16(c.Width),
			Height:    uint16(c.Height),
			XOffset:   int16(c.XOffset),
			YOffset:   int16(c.YOffset),
			XAdvance:  int16(c.XAdvance),
			Page:      uint8(c.Page),
		}
	}

	for pair, k := range font.Descriptor.Kerning {
		atlas.Kernings = append(atlas.Kernings, Kerning{
			First:  pair.First,
			Second: pair.Second,
			Amount: int16(k.Amount),
		})
	}
	sort.Slice(atlas.Kernings, func(i, j int) bool {
		if atlas.Kernings[i].First != atlas.Kernings[j].First {
			return atlas.Kernings[i].First < atlas.Kernings[j].First
		}
		return atlas.Kernings[i].Second < atlas.Kernings[j].Second
	})

	return atlas
}
