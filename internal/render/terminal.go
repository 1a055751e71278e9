package render

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// Terminal glyphs.
const (
	GlyphVisible    = '█'
	GlyphDiscovered = '▒'
	GlyphHidden     = ' '
)

// TerminalSurface is a fog.Surface that keeps the last committed frame and
// draws it into a tcell screen, one character per block of cells. The
// bottom screen row is reserved for a status line.
type TerminalSurface struct {
	mu     sync.Mutex
	screen tcell.Screen
	frame  *fog.Frame
	status string
	marks  map[[2]int]rune

	visibleStyle    tcell.Style
	discoveredStyle tcell.Style
	statusStyle     tcell.Style
}

// NewTerminalSurface draws onto screen, which the caller has initialised.
func NewTerminalSurface(screen tcell.Screen) *TerminalSurface {
	return &TerminalSurface{
		screen:          screen,
		marks:           make(map[[2]int]rune),
		visibleStyle:    tcell.StyleDefault.Foreground(tcell.ColorWhite),
		discoveredStyle: tcell.StyleDefault.Foreground(tcell.ColorGray),
		statusStyle:     tcell.StyleDefault.Foreground(tcell.ColorYellow),
	}
}

// Commit stores a copy of f.
func (t *TerminalSurface) Commit(f *fog.Frame) {
	c := f.Clone()
	t.mu.Lock()
	t.frame = c
	t.mu.Unlock()
}

// SetStatus replaces the status line text.
func (t *TerminalSurface) SetStatus(s string) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// SetMarks replaces the overlay glyphs drawn at grid cells, e.g. observers.
func (t *TerminalSurface) SetMarks(marks map[[2]int]rune) {
	t.mu.Lock()
	t.marks = marks
	t.mu.Unlock()
}

// Draw renders the stored frame and shows the screen.
func (t *TerminalSurface) Draw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	w, h := t.screen.Size()
	mapRows := h - 1
	if f := t.frame; f != nil && w > 0 && mapRows > 0 {
		for sy := 0; sy < mapRows; sy++ {
			// Screen top shows the highest grid rows.
			gy1 := f.Rows - sy*f.Rows/mapRows
			gy0 := f.Rows - (sy+1)*f.Rows/mapRows
			for sx := 0; sx < w; sx++ {
				gx0 := sx * f.Cols / w
				gx1 := (sx + 1) * f.Cols / w
				r, style := t.block(f, gx0, max(gx1, gx0+1), gy0, max(gy1, gy0+1))
				t.screen.SetContent(sx, sy, r, nil, style)
			}
		}
		for cell, r := range t.marks {
			sx := cell[0] * w / f.Cols
			sy := (f.Rows - 1 - cell[1]) * mapRows / f.Rows
			if sx >= 0 && sx < w && sy >= 0 && sy < mapRows {
				t.screen.SetContent(sx, sy, r, nil, t.statusStyle)
			}
		}
	}
	for i, r := range []rune(t.status) {
		if i >= w {
			break
		}
		t.screen.SetContent(i, h-1, r, nil, t.statusStyle)
	}
	t.screen.Show()
}

// block summarises the cells in [x0,x1) x [y0,y1).
func (t *TerminalSurface) block(f *fog.Frame, x0, x1, y0, y1 int) (rune, tcell.Style) {
	discovered := false
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if f.IsVisible(x, y) {
				return GlyphVisible, t.visibleStyle
			}
			if f.IsDiscovered(x, y) {
				discovered = true
			}
		}
	}
	if discovered {
		return GlyphDiscovered, t.discoveredStyle
	}
	return GlyphHidden, tcell.StyleDefault
}
