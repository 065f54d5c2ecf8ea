package main

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/guipaint"
)

// glyph locates one character in the atlas.
type glyph struct {
	uv      guipaint.Rect // normalized atlas coordinates of the cell
	size    [2]float32    // cell size in texels
	advance float32
}

// fontAtlas is a coverage texture holding every printable ASCII glyph of a
// bitmap face, plus one fully covered texel at the origin for solid fills.
type fontAtlas struct {
	image   *guipaint.FontImage
	glyphs  map[rune]glyph
	white   [2]float32
	ascent  float32
	lineGap float32
}

const (
	firstGlyph   = ' '
	lastGlyph    = '~'
	atlasColumns = 16
)

// newFontAtlas rasterizes face into a coverage atlas. Cell 0 is reserved
// for the white texel.
func newFontAtlas(face font.Face) *fontAtlas {
	m := face.Metrics()
	cellW := 7
	if adv, ok := face.GlyphAdvance('M'); ok {
		cellW = adv.Ceil()
	}
	cellH := m.Height.Ceil()
	count := int(lastGlyph-firstGlyph) + 2
	rows := (count + atlasColumns - 1) / atlasColumns

	w, h := atlasColumns*cellW, rows*cellH
	a := &fontAtlas{
		image:   guipaint.NewFontImage(w, h),
		glyphs:  make(map[rune]glyph, count-1),
		white:   [2]float32{0.5 / float32(w), 0.5 / float32(h)},
		ascent:  float32(m.Ascent.Ceil()),
		lineGap: float32(cellH),
	}
	a.image.Coverage[0] = 1

	for i := 1; i < count; i++ {
		r := firstGlyph + rune(i-1)
		cx, cy := (i%atlasColumns)*cellW, (i/atlasColumns)*cellH
		dot := fixed.P(cx, cy+m.Ascent.Ceil())
		dr, mask, maskp, adv, ok := face.Glyph(dot, r)
		if !ok {
			continue
		}
		a.blit(dr, mask, maskp)
		a.glyphs[r] = glyph{
			uv: guipaint.Rect{
				Min: [2]float32{float32(cx) / float32(w), float32(cy) / float32(h)},
				Max: [2]float32{float32(cx+cellW) / float32(w), float32(cy+cellH) / float32(h)},
			},
			size:    [2]float32{float32(cellW), float32(cellH)},
			advance: float32(adv.Ceil()),
		}
	}
	return a
}

func (a *fontAtlas) blit(dr image.Rectangle, mask image.Image, maskp image.Point) {
	bounds := image.Rect(0, 0, a.image.Width, a.image.Height)
	dr = dr.Intersect(bounds)
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		for x := dr.Min.X; x < dr.Max.X; x++ {
			sp := maskp.Add(image.Pt(x, y).Sub(dr.Min))
			alpha := color.AlphaModel.Convert(mask.At(sp.X, sp.Y)).(color.Alpha).A
			if alpha > 0 {
				a.image.Coverage[y*a.image.Width+x] = float32(alpha) / 255
			}
		}
	}
}

// defaultAtlas builds the atlas of the 7x13 fixed face.
func defaultAtlas() *fontAtlas {
	return newFontAtlas(basicfont.Face7x13)
}

// textMesh lays out s on one line with its top-left corner at pos. Runes
// missing from the atlas advance by one cell.
func (a *fontAtlas) textMesh(m *guipaint.Mesh, pos [2]float32, s string, c guipaint.Color32) (width float32) {
	x := pos[0]
	for _, r := range s {
		g, ok := a.glyphs[r]
		if !ok {
			g = a.glyphs['?']
		}
		if r != ' ' {
			m.AddRect(guipaint.RectFromSize(x, pos[1], g.size[0], g.size[1]), g.uv, c)
		}
		x += g.advance
	}
	return x - pos[0]
}

// solidRect adds a filled rectangle sampling the white texel.
func (a *fontAtlas) solidRect(m *guipaint.Mesh, r guipaint.Rect, c guipaint.Color32) {
	m.AddRect(r, guipaint.Rect{Min: a.white, Max: a.white}, c)
}
