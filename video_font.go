// video_font.go - Character glyph bitmaps and font-variation stretching
//
// A [256][16]byte glyph table, one bit per pixel in an 8x16 cell, rows
// tested bit-by-bit with 0x80>>dx, built at init time from
// golang.org/x/image/font/basicfont rather than an embedded raw bitmap
// asset - this core ships no font file of its own, so the glyph table
// is rasterised once from the module's bundled 7x13 face and
// re-quantised into an 8x16 cell.
package main

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphCellWidth  = 8
	glyphCellHeight = 16
)

// glyphBitmap is one character cell: 16 rows, one byte per row, bit 0x80
// the leftmost of 8 columns.
type glyphBitmap [glyphCellHeight]byte

var charGlyphs [256]glyphBitmap

func init() {
	face := basicfont.Face7x13
	for ch := 0x20; ch < 0x7F; ch++ {
		charGlyphs[ch] = rasterizeGlyph(face, byte(ch))
	}
	// Anything outside printable ASCII (the VT100 also draws DEC special
	// graphics characters via a separate character set) gets a copy of the
	// space glyph, so unmapped bytes render blank.
	for ch := 0; ch < 0x20; ch++ {
		charGlyphs[ch] = charGlyphs[0x20]
	}
	for ch := 0x7F; ch < 256; ch++ {
		charGlyphs[ch] = charGlyphs[0x20]
	}
}

// rasterizeGlyph draws one character with font.Drawer directly onto an
// 8x16 Gray canvas (the cell the video backends expect), baseline 4 pixels
// above the bottom, then thresholds each pixel into one bit.
func rasterizeGlyph(face font.Face, ch byte) glyphBitmap {
	img := image.NewGray(image.Rect(0, 0, glyphCellWidth, glyphCellHeight))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(image.White),
		Face: face,
		Dot:  fixed.P(0, glyphCellHeight-4),
	}
	d.DrawString(string(rune(ch)))

	var g glyphBitmap
	for y := 0; y < glyphCellHeight; y++ {
		var row byte
		for x := 0; x < glyphCellWidth; x++ {
			if img.GrayAt(x, y).Y > 0x40 {
				row |= 0x80 >> uint(x)
			}
		}
		g[y] = row
	}
	return g
}

// Glyph returns the base 8x16 bitmap for ch.
func Glyph(ch byte) glyphBitmap { return charGlyphs[ch] }

// StretchWide doubles each column of the glyph horizontally, for DWIDE
// display-list lines.
func StretchWide(g glyphBitmap) [glyphCellHeight]uint16 {
	var out [glyphCellHeight]uint16
	for y := 0; y < glyphCellHeight; y++ {
		var row uint16
		for x := 0; x < glyphCellWidth; x++ {
			if g[y]&(0x80>>uint(x)) != 0 {
				row |= 0b11 << uint((glyphCellWidth-1-x)*2)
			}
		}
		out[y] = row
	}
	return out
}

// StretchTopHalf doubles the top 8 scanlines of the glyph vertically,
// discarding the bottom half - for a DHIGH-top display-list line.
func StretchTopHalf(g glyphBitmap) glyphBitmap {
	var out glyphBitmap
	for y := 0; y < glyphCellHeight/2; y++ {
		out[y*2] = g[y]
		out[y*2+1] = g[y]
	}
	return out
}

// StretchBottomHalf doubles the bottom 8 scanlines of the glyph vertically,
// discarding the top half - for a DHIGH-bottom display-list line.
func StretchBottomHalf(g glyphBitmap) glyphBitmap {
	var out glyphBitmap
	for y := 0; y < glyphCellHeight/2; y++ {
		src := g[glyphCellHeight/2+y]
		out[y*2] = src
		out[y*2+1] = src
	}
	return out
}
