// Package terrain builds heightfields for the visibility engine, either from
// seeded value noise or from a grayscale heightmap image.
package terrain

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// ErrParams is returned for unusable generation parameters.
var ErrParams = errors.New("terrain: invalid parameters")

// Params controls Generate.
type Params struct {
	Cols, Rows int
	Seed       int64

	// Octaves of lattice noise summed together; each doubles the frequency
	// and halves the amplitude of the previous one. Zero yields flat ground.
	Octaves int

	// Relief scales the normalized [0,1] noise. Elevations are in units of
	// Size.Y, the same unit observer eye heights are expressed in.
	Relief float64

	Origin fog.Vec3
	Size   fog.Vec3
}

// DefaultParams returns a 128x128 rolling terrain over a 256x256 world.
func DefaultParams(seed int64) Params {
	return Params{
		Cols:    128,
		Rows:    128,
		Seed:    seed,
		Octaves: 4,
		Relief:  1,
		Size:    fog.Vec3{X: 256, Y: 24, Z: 256},
	}
}

// Generate builds a deterministic value-noise heightfield.
func Generate(p Params) (*fog.HeightField, error) {
	if p.Cols <= 0 || p.Rows <= 0 || p.Octaves < 0 || p.Relief < 0 {
		return nil, fmt.Errorf("generate %dx%d octaves=%d relief=%g: %w",
			p.Cols, p.Rows, p.Octaves, p.Relief, ErrParams)
	}
	elev := make([]float64, p.Cols*p.Rows)
	rng := rand.New(rand.NewSource(p.Seed)) // #nosec G404 -- terrain noise, not security

	base := math.Max(float64(max(p.Cols, p.Rows))/4, 1)
	amp := 1.0
	for o := 0; o < p.Octaves; o++ {
		spacing := base / math.Pow(2, float64(o))
		if spacing < 1 {
			spacing = 1
		}
		l := newLattice(rng, int(float64(p.Cols)/spacing)+2, int(float64(p.Rows)/spacing)+2)
		for y := 0; y < p.Rows; y++ {
			for x := 0; x < p.Cols; x++ {
				elev[y*p.Cols+x] += amp * l.sample(float64(x)/spacing, float64(y)/spacing)
			}
		}
		amp /= 2
	}

	normalize(elev, p.Relief)
	hf, err := fog.NewHeightField(p.Cols, p.Rows, elev, p.Origin, p.Size)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return hf, nil
}

// lattice is a grid of random values sampled with smoothed bilinear
// interpolation.
type lattice struct {
	w, h int
	v    []float64
}

func newLattice(rng *rand.Rand, w, h int) *lattice {
	l := &lattice{w: w, h: h, v: make([]float64, w*h)}
	for i := range l.v {
		l.v[i] = rng.Float64()
	}
	return l
}

func (l *lattice) at(x, y int) float64 {
	x = min(max(x, 0), l.w-1)
	y = min(max(y, 0), l.h-1)
	return l.v[y*l.w+x]
}

func (l *lattice) sample(fx, fy float64) float64 {
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := smooth(fx-float64(x0)), smooth(fy-float64(y0))
	top := lerp(l.at(x0, y0), l.at(x0+1, y0), tx)
	bottom := lerp(l.at(x0, y0+1), l.at(x0+1, y0+1), tx)
	return lerp(top, bottom, ty)
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// normalize rescales v in place to [0, relief]. A constant input becomes 0.
func normalize(v []float64, relief float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range v {
		lo = math.Min(lo, e)
		hi = math.Max(hi, e)
	}
	span := hi - lo
	for i := range v {
		if span <= 0 {
			v[i] = 0
			continue
		}
		v[i] = (v[i] - lo) / span * relief
	}
}
