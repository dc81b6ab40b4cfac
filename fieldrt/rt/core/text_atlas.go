package core

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextVertex matches the vertex input of text.wgsl.
type TextVertex struct {
	Pos   [2]float32 `fidmag:"layout" format:"float32x2" location:"0"`
	UV    [2]float32 `fidmag:"layout" format:"float32x2" location:"1"`
	Color [4]float32 `fidmag:"layout" format:"float32x4" location:"2"`
}

const TextVertexSize = 32

type glyph struct {
	uvMin [2]float32
	uvMax [2]float32
	size  [2]float32
	off   [2]float32
	adv   float32
}

// TextAtlas is a single-channel glyph atlas of printable ASCII rendered
// from the Go Regular font.
type TextAtlas struct {
	Image  *image.Alpha
	glyphs map[rune]glyph
	ascent float32
	line   float32
}

const atlasSize = 256

func NewTextAtlas(size float64) (*TextAtlas, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	atlas := &TextAtlas{
		Image:  image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize)),
		glyphs: make(map[rune]glyph),
		ascent: float32(face.Metrics().Ascent.Ceil()),
		line:   float32(face.Metrics().Height.Ceil()),
	}

	x, y, rowHeight := 1, 1, 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()
		if x+w+1 >= atlasSize {
			x = 1
			y += rowHeight + 2
			rowHeight = 0
		}
		if y+h+1 >= atlasSize {
			return nil, fmt.Errorf("atlas %dpx too small for %.0fpt glyphs", atlasSize, size)
		}
		if w > 0 && h > 0 {
			draw.Draw(atlas.Image, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		}

		atlas.glyphs[r] = glyph{
			uvMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:  [2]float32{float32(w), float32(h)},
			off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv:   float32(adv) / 64.0,
		}
		x += w + 2
		if h > rowHeight {
			rowHeight = h
		}
	}
	return atlas, nil
}

func (a *TextAtlas) Has(r rune) bool {
	_, ok := a.glyphs[r]
	return ok
}

func (a *TextAtlas) LineHeight() float32 { return a.line }

// Layout emits two triangles per glyph in clip space. (x, y) is the top-left
// pixel of the first line; '\n' starts a new line.
func (a *TextAtlas) Layout(text string, x, y float32, color [4]float32, screenW, screenH int) []TextVertex {
	if screenW <= 0 || screenH <= 0 {
		return nil
	}
	sw, sh := float32(screenW), float32(screenH)
	toClip := func(px, py float32) [2]float32 {
		return [2]float32{px/sw*2 - 1, 1 - py/sh*2}
	}

	verts := make([]TextVertex, 0, len(text)*6)
	penX, baseline := x, y+a.ascent
	for _, r := range text {
		if r == '\n' {
			penX = x
			baseline += a.line
			continue
		}
		g, ok := a.glyphs[r]
		if !ok {
			continue
		}
		if g.size[0] == 0 || g.size[1] == 0 {
			penX += g.adv
			continue
		}
		p0 := toClip(penX+g.off[0], baseline+g.off[1])
		p1 := toClip(penX+g.off[0]+g.size[0], baseline+g.off[1]+g.size[1])

		tl := TextVertex{Pos: p0, UV: g.uvMin, Color: color}
		tr := TextVertex{Pos: [2]float32{p1[0], p0[1]}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: color}
		bl := TextVertex{Pos: [2]float32{p0[0], p1[1]}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: color}
		br := TextVertex{Pos: p1, UV: g.uvMax, Color: color}
		verts = append(verts, tl, tr, bl, tr, br, bl)

		penX += g.adv
	}
	return verts
}

// TextVertexBytes flattens vertices for upload.
func TextVertexBytes(verts []TextVertex) []byte {
	buf := make([]byte, len(verts)*TextVertexSize)
	for i, v := range verts {
		fields := [8]float32{v.Pos[0], v.Pos[1], v.UV[0], v.UV[1], v.Color[0], v.Color[1], v.Color[2], v.Color[3]}
		for j, f := range fields {
			binary.LittleEndian.PutUint32(buf[i*TextVertexSize+j*4:], math.Float32bits(f))
		}
	}
	return buf
}
