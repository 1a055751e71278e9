package fog

import (
	"errors"
	"math"
	"testing"
)

func TestNewHeightField_Errors(t *testing.T) {
	size := Vec3{X: 10, Y: 1, Z: 10}
	if _, err := NewHeightField(0, 4, nil, Vec3{}, size); !errors.Is(err, ErrEmptyGrid) {
		t.Fatalf("zero cols: got %v, want ErrEmptyGrid", err)
	}
	if _, err := NewHeightField(2, 2, []float64{1, 2, 3}, Vec3{}, size); !errors.Is(err, ErrElevationCount) {
		t.Fatalf("short elevations: got %v, want ErrElevationCount", err)
	}
	if _, err := NewHeightField(2, 2, make([]float64, 4), Vec3{}, Vec3{X: 10}); !errors.Is(err, ErrDegenerateSize) {
		t.Fatalf("zero depth: got %v, want ErrDegenerateSize", err)
	}
}

func TestNewHeightField_CopiesElevations(t *testing.T) {
	elev := []float64{1, 2, 3, 4}
	hf, err := NewHeightField(2, 2, elev, Vec3{}, Vec3{X: 2, Y: 1, Z: 2})
	if err != nil {
		t.Fatal(err)
	}
	elev[3] = 99
	if got := hf.ElevationAt(1, 1); got != 4 {
		t.Fatalf("ElevationAt(1,1) = %v after caller mutation, want 4", got)
	}
}

func TestHeightField_Transforms(t *testing.T) {
	hf, err := NewHeightField(10, 5, make([]float64, 50), Vec3{X: 10, Z: 20}, Vec3{X: 100, Y: 5, Z: 50})
	if err != nil {
		t.Fatal(err)
	}
	gx, gy := hf.WorldToGrid(Vec3{X: 60, Z: 45})
	if gx != 5 || gy != 2.5 {
		t.Fatalf("WorldToGrid = (%v,%v), want (5,2.5)", gx, gy)
	}
	w := hf.GridToWorld(gx, gy)
	if w.X != 60 || w.Z != 45 {
		t.Fatalf("GridToWorld round trip = %+v", w)
	}
	if r := hf.GridRadius(20); r != 2 {
		t.Fatalf("GridRadius(20) = %v, want 2", r)
	}
	if h := hf.NormalizedHeight(7.5); h != 1.5 {
		t.Fatalf("NormalizedHeight(7.5) = %v, want 1.5", h)
	}
	sx, sy := hf.GridSpaceSize(Vec3{X: -30, Z: 10})
	if sx != 3 || sy != 1 {
		t.Fatalf("GridSpaceSize = (%v,%v), want (3,1)", sx, sy)
	}
}

func TestHeightField_InBounds(t *testing.T) {
	hf, _ := FlatHeightField(3, 2, 0)
	cases := []struct {
		x, y int
		want bool
	}{
		{0, 0, true}, {2, 1, true}, {3, 0, false}, {0, 2, false}, {-1, 0, false},
	}
	for _, c := range cases {
		if got := hf.InBounds(c.x, c.y); got != c.want {
			t.Fatalf("InBounds(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestHeightField_ElevationAtPanicsOutOfRange(t *testing.T) {
	hf, _ := FlatHeightField(2, 2, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range lookup")
		}
	}()
	hf.ElevationAt(2, 0)
}

func TestObserver_UpdatePositionFlagsMovement(t *testing.T) {
	hf, _ := FlatHeightField(20, 20, 0)
	o := NewObserver(hf, Vec3{X: 5, Z: 5}, 4)
	if !o.Dirty() {
		t.Fatal("new observer should be dirty")
	}
	o.markScanned()
	if o.Dirty() {
		t.Fatal("scanned observer should be clean")
	}
	if o.UpdatePosition(hf, Vec3{X: 5, Z: 5}) {
		t.Fatal("same position should not count as movement")
	}
	if !o.UpdatePosition(hf, Vec3{X: 6, Z: 5}) || !o.Moved {
		t.Fatal("new position should flag the observer as moved")
	}
	if math.Abs(o.GridViewRadius-4) > 1e-9 {
		t.Fatalf("GridViewRadius = %v, want 4", o.GridViewRadius)
	}
}
