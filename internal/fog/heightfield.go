package fog

import (
	"errors"
	"fmt"
	"math"
)

// Configuration errors returned when a heightfield cannot be built.
var (
	ErrEmptyGrid      = errors.New("fog: grid has no cells")
	ErrElevationCount = errors.New("fog: elevation count does not match grid")
	ErrDegenerateSize = errors.New("fog: terrain world size is zero")
	ErrNoTerrain      = errors.New("fog: no terrain heightfield")
)

// Vec3 is a world-space position or extent. X and Z span the ground plane,
// Y is up.
type Vec3 struct {
	X, Y, Z float64
}

// HeightField is a read-only elevation grid plus the transform between world
// space and grid space. Grid x follows world X, grid y follows world Z.
type HeightField struct {
	cols   int
	rows   int
	elev   []float64
	origin Vec3
	size   Vec3
}

// NewHeightField builds a heightfield from row-major elevations
// (elev[y*cols+x]). The slice is copied.
func NewHeightField(cols, rows int, elev []float64, origin, size Vec3) (*HeightField, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("new heightfield %dx%d: %w", cols, rows, ErrEmptyGrid)
	}
	if len(elev) != cols*rows {
		return nil, fmt.Errorf("new heightfield %dx%d with %d samples: %w", cols, rows, len(elev), ErrElevationCount)
	}
	if size.X == 0 || size.Z == 0 {
		return nil, fmt.Errorf("new heightfield size (%g,%g): %w", size.X, size.Z, ErrDegenerateSize)
	}
	hf := &HeightField{
		cols:   cols,
		rows:   rows,
		elev:   make([]float64, len(elev)),
		origin: origin,
		size:   size,
	}
	copy(hf.elev, elev)
	return hf, nil
}

// FlatHeightField returns a heightfield of uniform elevation whose world
// extent equals its grid size (one world unit per cell).
func FlatHeightField(cols, rows int, elevation float64) (*HeightField, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("flat heightfield %dx%d: %w", cols, rows, ErrEmptyGrid)
	}
	elev := make([]float64, cols*rows)
	for i := range elev {
		elev[i] = elevation
	}
	return NewHeightField(cols, rows, elev, Vec3{}, Vec3{X: float64(cols), Y: 1, Z: float64(rows)})
}

// Cols returns the grid width.
func (hf *HeightField) Cols() int { return hf.cols }

// Rows returns the grid height.
func (hf *HeightField) Rows() int { return hf.rows }

// Origin returns the world position of grid cell (0,0).
func (hf *HeightField) Origin() Vec3 { return hf.origin }

// Size returns the world extent covered by the grid.
func (hf *HeightField) Size() Vec3 { return hf.size }

// InBounds reports whether (x,y) addresses a grid cell.
func (hf *HeightField) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < hf.cols && y < hf.rows
}

// ElevationAt returns the elevation of cell (x,y). Callers bound-check first;
// an out-of-range cell is a programming error.
func (hf *HeightField) ElevationAt(x, y int) float64 {
	if !hf.InBounds(x, y) {
		panic(fmt.Sprintf("fog: elevation lookup (%d,%d) outside %dx%d grid", x, y, hf.cols, hf.rows))
	}
	return hf.elev[y*hf.cols+x]
}

// WorldToGrid maps a world position onto fractional grid coordinates.
func (hf *HeightField) WorldToGrid(p Vec3) (float64, float64) {
	gx := (p.X - hf.origin.X) / hf.size.X * float64(hf.cols)
	gy := (p.Z - hf.origin.Z) / hf.size.Z * float64(hf.rows)
	return gx, gy
}

// GridToWorld maps fractional grid coordinates back to world X/Z. Y is the
// terrain origin height.
func (hf *HeightField) GridToWorld(gx, gy float64) Vec3 {
	return Vec3{
		X: hf.origin.X + gx/float64(hf.cols)*hf.size.X,
		Y: hf.origin.Y,
		Z: hf.origin.Z + gy/float64(hf.rows)*hf.size.Z,
	}
}

// GridSpaceSize scales a world extent into grid units per axis. The result is
// never negative.
func (hf *HeightField) GridSpaceSize(worldSize Vec3) (float64, float64) {
	return math.Abs(worldSize.X / hf.size.X * float64(hf.cols)),
		math.Abs(worldSize.Z / hf.size.Z * float64(hf.rows))
}

// GridRadius converts a world-space view radius into grid cells.
func (hf *HeightField) GridRadius(worldRadius float64) float64 {
	return worldRadius * float64(hf.cols) / hf.size.X
}

// NormalizedHeight converts a world Y into the heightfield's elevation unit
// relative to the terrain origin.
func (hf *HeightField) NormalizedHeight(worldY float64) float64 {
	if hf.size.Y == 0 {
		return 0
	}
	return (worldY - hf.origin.Y) / hf.size.Y
}

// cellIndex rounds fractional grid coordinates to the nearest cell.
func cellIndex(gx, gy float64) (int, int) {
	return int(math.Round(gx)), int(math.Round(gy))
}
