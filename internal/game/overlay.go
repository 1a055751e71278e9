package game

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// Overlay tints for the three cell states, premultiplied RGBA.
var (
	fogHidden     = [4]byte{6, 8, 12, 235}
	fogDiscovered = [4]byte{0, 0, 0, 120}
	fogVisible    = [4]byte{0, 0, 0, 0}
)

// FogOverlay is a fog.Surface that turns each committed frame into an
// ebiten image laid over the terrain. Commits only rebuild the pixel
// buffer; the upload happens on the next Image call from the draw loop.
type FogOverlay struct {
	cols, rows int
	pix        []byte
	dirty      bool
	generation uint64
	img        *ebiten.Image
}

// NewFogOverlay creates a fully fogged overlay for a cols x rows grid.
func NewFogOverlay(cols, rows int) *FogOverlay {
	o := &FogOverlay{
		cols:  cols,
		rows:  rows,
		pix:   make([]byte, cols*rows*4),
		dirty: true,
	}
	for i := 0; i < len(o.pix); i += 4 {
		copy(o.pix[i:i+4], fogHidden[:])
	}
	return o
}

// Commit implements fog.Surface.
func (o *FogOverlay) Commit(f *fog.Frame) {
	if f.Cols != o.cols || f.Rows != o.rows {
		return
	}
	overlayPixels(f, o.pix)
	o.generation = f.Generation
	o.dirty = true
}

// Generation returns the generation of the last committed frame.
func (o *FogOverlay) Generation() uint64 {
	return o.generation
}

// Image returns the overlay, uploading pending pixels first. Must be
// called from the ebiten draw loop.
func (o *FogOverlay) Image() *ebiten.Image {
	if o.img == nil {
		o.img = ebiten.NewImage(o.cols, o.rows)
	}
	if o.dirty {
		o.img.WritePixels(o.pix)
		o.dirty = false
	}
	return o.img
}

// overlayPixels writes the fog tint of every cell of f into dst, flipping
// rows so grid row 0 lands on the bottom image row.
func overlayPixels(f *fog.Frame, dst []byte) {
	for gy := 0; gy < f.Rows; gy++ {
		iy := f.Rows - 1 - gy
		for x := 0; x < f.Cols; x++ {
			tint := fogHidden
			switch {
			case f.IsVisible(x, gy):
				tint = fogVisible
			case f.IsDiscovered(x, gy):
				tint = fogDiscovered
			}
			i := (iy*f.Cols + x) * 4
			copy(dst[i:i+4], tint[:])
		}
	}
}
