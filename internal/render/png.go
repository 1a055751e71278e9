// Package render turns committed frames into images and terminal output.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// ErrScale is returned for a non-positive export scale.
var ErrScale = errors.New("render: scale must be positive")

// Preview shades levels.
const (
	ShadeHidden     = 0x00
	ShadeDiscovered = 0x60
	ShadeVisible    = 0xff
)

// Preview renders f as a grayscale image, one pixel per cell: hidden black,
// discovered grey, visible white. Grid row 0 is the bottom image row.
func Preview(f *fog.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Cols, f.Rows))
	for gy := 0; gy < f.Rows; gy++ {
		iy := f.Rows - 1 - gy
		for x := 0; x < f.Cols; x++ {
			v := uint8(ShadeHidden)
			switch {
			case f.IsVisible(x, gy):
				v = ShadeVisible
			case f.IsDiscovered(x, gy):
				v = ShadeDiscovered
			}
			img.SetGray(x, iy, color.Gray{Y: v})
		}
	}
	return img
}

// ExportPNG writes the preview of f scaled up by an integer factor.
func ExportPNG(w io.Writer, f *fog.Frame, scale int) error {
	if scale < 1 {
		return fmt.Errorf("export png scale %d: %w", scale, ErrScale)
	}
	src := Preview(f)
	dst := src
	if scale > 1 {
		dst = image.NewGray(image.Rect(0, 0, f.Cols*scale, f.Rows*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}

// TerrainImage shades a heightfield from low green to high tan with simple
// slope lighting. Grid row 0 is the bottom image row.
func TerrainImage(hf *fog.HeightField) *image.RGBA {
	cols, rows := hf.Cols(), hf.Rows()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	lo, hi := hf.ElevationAt(0, 0), hf.ElevationAt(0, 0)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			e := hf.ElevationAt(x, y)
			lo, hi = min(lo, e), max(hi, e)
		}
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	low := color.RGBA{R: 58, G: 96, B: 52, A: 255}
	high := color.RGBA{R: 176, G: 158, B: 120, A: 255}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t := (hf.ElevationAt(x, y) - lo) / span
			light := 1.0
			if x > 0 {
				light += (hf.ElevationAt(x, y) - hf.ElevationAt(x-1, y)) / span * 4
			}
			light = min(max(light, 0.6), 1.3)
			img.SetRGBA(x, rows-1-y, color.RGBA{
				R: shade(low.R, high.R, t, light),
				G: shade(low.G, high.G, t, light),
				B: shade(low.B, high.B, t, light),
				A: 255,
			})
		}
	}
	return img
}

func shade(a, b uint8, t, light float64) uint8 {
	v := (float64(a) + (float64(b)-float64(a))*t) * light
	return uint8(min(max(v, 0), 255))
}
