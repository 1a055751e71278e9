package render

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// twoStepFrame returns a 6x4 frame where (1,1) is discovered only and
// (4,2) is visible.
func twoStepFrame(t *testing.T) *fog.Frame {
	t.Helper()
	hf, err := fog.FlatHeightField(6, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	e, err := fog.NewEngine(hf, fog.WithSeamFill(false))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	o := fog.NewObserver(hf, fog.Vec3{X: 1, Z: 1}, 0)
	e.Register(o)
	e.Tick()
	o.UpdatePosition(hf, fog.Vec3{X: 4, Z: 2})
	e.Tick()
	return e.Map().Snapshot()
}

func TestPreview_Shades(t *testing.T) {
	f := twoStepFrame(t)
	img := Preview(f)
	if got := img.GrayAt(4, 1).Y; got != ShadeVisible {
		t.Fatalf("visible cell shade = %d", got)
	}
	if got := img.GrayAt(1, 2).Y; got != ShadeDiscovered {
		t.Fatalf("discovered cell shade = %d", got)
	}
	if got := img.GrayAt(0, 0).Y; got != ShadeHidden {
		t.Fatalf("hidden cell shade = %d", got)
	}
}

func TestExportPNG_Scaled(t *testing.T) {
	f := twoStepFrame(t)
	var buf bytes.Buffer
	if err := ExportPNG(&buf, f, 3); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 18 || b.Dy() != 12 {
		t.Fatalf("exported size = %v, want 18x12", b)
	}
	r, _, _, _ := img.At(4*3+1, 1*3+1).RGBA()
	if r>>8 != ShadeVisible {
		t.Fatalf("scaled visible pixel = %d", r>>8)
	}
	if err := ExportPNG(&buf, f, 0); !errors.Is(err, ErrScale) {
		t.Fatalf("scale 0: got %v, want ErrScale", err)
	}
}

func TestTerrainImage_Size(t *testing.T) {
	hf, _ := fog.NewHeightField(3, 2, []float64{0, 1, 2, 3, 4, 5}, fog.Vec3{}, fog.Vec3{X: 3, Y: 1, Z: 2})
	img := TerrainImage(hf)
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("terrain image = %v", b)
	}
	// Highest cell is grid (2,1), top right of the image.
	if img.RGBAAt(2, 0).R <= img.RGBAAt(0, 1).R {
		t.Fatal("high ground should be lighter than low ground")
	}
}

func TestTerminalSurface_Draw(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	defer s.Fini()
	s.SetSize(6, 5)

	ts := NewTerminalSurface(s)
	ts.Commit(twoStepFrame(t))
	ts.SetStatus("gen 2")
	ts.Draw()

	at := func(x, y int) rune {
		r, _, _, _ := s.GetContent(x, y)
		return r
	}
	if r := at(4, 1); r != GlyphVisible {
		t.Fatalf("visible cell glyph = %q", r)
	}
	if r := at(1, 2); r != GlyphDiscovered {
		t.Fatalf("discovered cell glyph = %q", r)
	}
	if r := at(0, 0); r != GlyphHidden {
		t.Fatalf("hidden cell glyph = %q", r)
	}
	if at(0, 4) != 'g' || at(4, 4) != '2' {
		t.Fatal("status line not drawn on the last row")
	}

	ts.SetMarks(map[[2]int]rune{{4, 2}: '@'})
	ts.Draw()
	if r := at(4, 1); r != '@' {
		t.Fatalf("mark glyph = %q", r)
	}
}
