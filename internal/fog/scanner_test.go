package fog

import (
	"math"
	"testing"
)

func scanOnce(t *testing.T, hf *HeightField, seamFill bool, o ObserverInfo) *Frame {
	t.Helper()
	f := newFrame(hf.Cols(), hf.Rows())
	s := NewScanner(hf)
	s.SeamFill = seamFill
	s.Scan(f, o)
	return f
}

func TestScan_SelfVisibility(t *testing.T) {
	hf, _ := FlatHeightField(8, 8, 0)
	for _, r := range []float64{0, -3, math.NaN(), 4} {
		f := scanOnce(t, hf, true, ObserverInfo{GridX: 3, GridY: 4, GridViewRadius: r})
		if !f.IsVisible(3, 4) || !f.IsDiscovered(3, 4) {
			t.Fatalf("radius %v: observer cell not visible", r)
		}
	}
}

func TestScan_NonPositiveRadiusMarksOnlyOwnCell(t *testing.T) {
	hf, _ := FlatHeightField(8, 8, 0)
	f := scanOnce(t, hf, true, ObserverInfo{GridX: 3, GridY: 4, GridViewRadius: 0})
	if n := f.VisibleCount(); n != 1 {
		t.Fatalf("visible cells = %d, want 1", n)
	}
}

func TestScan_BlockerCutoff(t *testing.T) {
	hf, err := NewHeightField(6, 1, []float64{0, 0, 0, 5, 0, 0}, Vec3{}, Vec3{X: 6, Y: 1, Z: 1})
	if err != nil {
		t.Fatal(err)
	}
	f := scanOnce(t, hf, true, ObserverInfo{GridX: 0, GridY: 0, GridViewRadius: 5})
	for x := 0; x <= 3; x++ {
		if !f.IsVisible(x, 0) {
			t.Fatalf("cell %d should be visible", x)
		}
	}
	for x := 4; x <= 5; x++ {
		if f.IsVisible(x, 0) || f.IsDiscovered(x, 0) {
			t.Fatalf("cell %d behind the ridge should be hidden", x)
		}
	}
}

func TestScan_HigherGroundBehindBlockerStaysVisible(t *testing.T) {
	hf, _ := NewHeightField(6, 1, []float64{0, 0, 3, 1, 4, 2}, Vec3{}, Vec3{X: 6, Y: 1, Z: 1})
	f := scanOnce(t, hf, false, ObserverInfo{GridX: 0, GridY: 0, GridViewRadius: 5})
	want := []bool{true, true, true, false, true, false}
	for x, w := range want {
		if got := f.IsVisible(x, 0); got != w {
			t.Fatalf("cell %d visible = %v, want %v", x, got, w)
		}
	}
}

func TestScan_EyeHeightSeesOverLowRidge(t *testing.T) {
	hf, _ := NewHeightField(6, 1, []float64{0, 0, 0, 5, 0, 0}, Vec3{}, Vec3{X: 6, Y: 1, Z: 1})
	f := scanOnce(t, hf, false, ObserverInfo{GridX: 0, GridY: 0, GridViewRadius: 5, Height: 6})
	if f.VisibleCount() != 6 {
		t.Fatalf("visible = %d, want all 6 cells from above the ridge", f.VisibleCount())
	}
}

func TestScan_FlatDiscIsBounded(t *testing.T) {
	hf, _ := FlatHeightField(41, 41, 0)
	const r = 10.0
	f := scanOnce(t, hf, false, ObserverInfo{GridX: 20, GridY: 20, GridViewRadius: r})
	for y := 0; y < 41; y++ {
		for x := 0; x < 41; x++ {
			if !f.IsVisible(x, y) {
				continue
			}
			if d := math.Hypot(float64(x-20), float64(y-20)); d > r+1.5 {
				t.Fatalf("cell (%d,%d) visible at distance %.2f beyond radius %v", x, y, d, r)
			}
		}
	}
	area := math.Pi * r * r
	if n := float64(f.VisibleCount()); n < area/3 || n > math.Pi*(r+1.5)*(r+1.5) {
		t.Fatalf("visible = %v cells, expected near %.0f", n, area)
	}
	for _, p := range [][2]int{{30, 20}, {10, 20}, {20, 30}, {20, 10}} {
		if !f.IsVisible(p[0], p[1]) {
			t.Fatalf("axis point %v at full radius should be visible", p)
		}
	}
}

// rotate90 maps (x,y) a quarter turn about (c,c).
func rotate90(x, y, c int) (int, int) {
	return c - (y - c), c + (x - c)
}

func assertRotationSymmetric(t *testing.T, f *Frame, c int) {
	t.Helper()
	for y := 0; y < f.Rows; y++ {
		for x := 0; x < f.Cols; x++ {
			rx, ry := rotate90(x, y, c)
			if f.IsVisible(x, y) != f.IsVisible(rx, ry) {
				t.Fatalf("(%d,%d) visible=%v but rotated (%d,%d) visible=%v",
					x, y, f.IsVisible(x, y), rx, ry, f.IsVisible(rx, ry))
			}
		}
	}
}

func TestScan_FlatRotationSymmetry(t *testing.T) {
	hf, _ := FlatHeightField(31, 31, 0)
	f := scanOnce(t, hf, false, ObserverInfo{GridX: 15, GridY: 15, GridViewRadius: 9})
	assertRotationSymmetric(t, f, 15)
}

func TestScan_OcclusionRotationSymmetry(t *testing.T) {
	const n, c = 31, 15
	elev := make([]float64, n*n)
	for _, p := range [][2]int{{3, 0}, {0, 3}, {-3, 0}, {0, -3}, {4, 2}, {-2, 4}, {-4, -2}, {2, -4}} {
		elev[(c+p[1])*n+c+p[0]] = 2
	}
	hf, _ := NewHeightField(n, n, elev, Vec3{}, Vec3{X: n, Y: 1, Z: n})
	f := scanOnce(t, hf, false, ObserverInfo{GridX: c, GridY: c, GridViewRadius: 12})
	assertRotationSymmetric(t, f, c)
	if f.IsVisible(c+5, c) {
		t.Fatal("cell behind the east pillar should be hidden")
	}
}

func TestScan_VisibleImpliesDiscovered(t *testing.T) {
	elev := make([]float64, 30*30)
	for i := range elev {
		elev[i] = float64((i*7919)%11) / 4
	}
	hf, _ := NewHeightField(30, 30, elev, Vec3{}, Vec3{X: 30, Y: 1, Z: 30})
	f := newFrame(30, 30)
	s := NewScanner(hf)
	s.Scan(f, ObserverInfo{GridX: 8, GridY: 8, GridViewRadius: 12, Height: 1})
	s.Scan(f, ObserverInfo{GridX: 22, GridY: 20, GridViewRadius: 9, Height: 0.5})
	for i := 0; i < f.Cells(); i++ {
		if isSet(f.Visible, i) && !isSet(f.Discovered, i) {
			t.Fatalf("cell %d visible but not discovered", i)
		}
	}
}

func TestScan_DiscoveryIsMonotonic(t *testing.T) {
	hf, _ := FlatHeightField(40, 40, 0)
	f := newFrame(40, 40)
	s := NewScanner(hf)
	if !s.Scan(f, ObserverInfo{GridX: 10, GridY: 10, GridViewRadius: 6}) {
		t.Fatal("first scan should discover cells")
	}
	before := f.Clone()
	f.clearVisible()
	s.Scan(f, ObserverInfo{GridX: 30, GridY: 30, GridViewRadius: 6})
	for i := 0; i < f.Cells(); i++ {
		if isSet(before.Discovered, i) && !isSet(f.Discovered, i) {
			t.Fatalf("cell %d lost its discovered bit", i)
		}
	}
	if f.IsVisible(10, 10) {
		t.Fatal("first position should no longer be visible after clearing")
	}
	if s.Scan(f, ObserverInfo{GridX: 30, GridY: 30, GridViewRadius: 6}) {
		t.Fatal("rescanning the same view should discover nothing")
	}
}

func TestScan_OffGridObserverIsIgnored(t *testing.T) {
	hf, _ := FlatHeightField(10, 10, 0)
	for _, o := range []ObserverInfo{
		{GridX: -5, GridY: 2, GridViewRadius: 4},
		{GridX: 2, GridY: 50, GridViewRadius: 4},
		{GridX: math.NaN(), GridY: 2, GridViewRadius: 4},
		{GridX: math.Inf(1), GridY: 2, GridViewRadius: 4},
	} {
		f := scanOnce(t, hf, true, o)
		if f.DiscoveredCount() != 0 {
			t.Fatalf("observer %+v marked %d cells", o, f.DiscoveredCount())
		}
	}
}

func TestScan_EdgeObserverSkipsOutOfBounds(t *testing.T) {
	hf, _ := FlatHeightField(10, 10, 0)
	f := scanOnce(t, hf, true, ObserverInfo{GridX: 0, GridY: 9, GridViewRadius: 30})
	if f.DiscoveredCount() == 0 {
		t.Fatal("corner observer should still see inside the grid")
	}
}

func TestScan_SeamFillPaintsRowBelow(t *testing.T) {
	hf, _ := FlatHeightField(5, 5, 0)
	f := scanOnce(t, hf, true, ObserverInfo{GridX: 2, GridY: 0, GridViewRadius: 1})
	off := scanOnce(t, hf, false, ObserverInfo{GridX: 2, GridY: 0, GridViewRadius: 1})
	if f.VisibleCount() <= off.VisibleCount() {
		t.Fatalf("seam fill visible = %d, without = %d", f.VisibleCount(), off.VisibleCount())
	}
}

func TestReflect_CoversEightOctants(t *testing.T) {
	seen := map[[2]int]bool{}
	for n := 0; n < octantCount; n++ {
		x, y := reflect(n, 3, 1)
		seen[[2]int{x, y}] = true
	}
	if len(seen) != 8 {
		t.Fatalf("reflect produced %d distinct offsets, want 8", len(seen))
	}
}

func TestScan_HugeRadiusMatchesDiagonal(t *testing.T) {
	hf, _ := FlatHeightField(24, 16, 0)
	want := scanOnce(t, hf, true, ObserverInfo{GridX: 5, GridY: 7, GridViewRadius: 29})
	for _, r := range []float64{1e12, math.Inf(1)} {
		f := scanOnce(t, hf, true, ObserverInfo{GridX: 5, GridY: 7, GridViewRadius: r})
		if f.VisibleCount() != want.VisibleCount() {
			t.Fatalf("radius %v: %d visible, want %d", r, f.VisibleCount(), want.VisibleCount())
		}
	}
	if want.VisibleCount() < hf.Cols()*hf.Rows()/2 {
		t.Fatalf("flat grid: only %d of %d visible", want.VisibleCount(), hf.Cols()*hf.Rows())
	}
}
