package terrain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// ErrEmptyImage is returned for a heightmap without pixels.
var ErrEmptyImage = errors.New("terrain: heightmap image is empty")

// DecodeHeightmap reads a PNG, BMP or TIFF image and converts its luminance
// to elevations in [0,1]. Image row 0 is the top edge, which maps to the
// last grid row: the grid starts at the bottom left.
func DecodeHeightmap(r io.Reader, origin, size fog.Vec3) (*fog.HeightField, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode heightmap: %w", err)
	}
	return FromImage(img, origin, size, format)
}

// FromImage converts an already decoded image. format only labels errors.
func FromImage(img image.Image, origin, size fog.Vec3, format string) (*fog.HeightField, error) {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("%s heightmap: %w", format, ErrEmptyImage)
	}
	elev := make([]float64, cols*rows)
	for iy := 0; iy < rows; iy++ {
		gy := rows - 1 - iy
		for ix := 0; ix < cols; ix++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+ix, b.Min.Y+iy)).(color.Gray16)
			elev[gy*cols+ix] = float64(g.Y) / 0xffff
		}
	}
	hf, err := fog.NewHeightField(cols, rows, elev, origin, size)
	if err != nil {
		return nil, fmt.Errorf("%s heightmap: %w", format, err)
	}
	return hf, nil
}

// LoadHeightmap opens and decodes a heightmap file.
func LoadHeightmap(path string, origin, size fog.Vec3) (*fog.HeightField, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the operator's config
	if err != nil {
		return nil, fmt.Errorf("load heightmap: %w", err)
	}
	defer f.Close()
	hf, err := DecodeHeightmap(f, origin, size)
	if err != nil {
		return nil, fmt.Errorf("load heightmap %s: %w", path, err)
	}
	return hf, nil
}
