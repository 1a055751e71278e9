package fog

import "math"

// octantCount is the number of mirrored ray directions per traced step.
const octantCount = 8

// Scanner rasterizes line of sight for one observer at a time into a frame.
// It keeps its own per-octant working state, so a Scanner must not be shared
// between goroutines.
type Scanner struct {
	hf *HeightField

	// SeamFill also paints the cell one row below every visible cell, which
	// closes single-cell gaps left by mirroring one octant eight ways.
	SeamFill bool

	blocker    [octantCount]float64
	hasBlocker [octantCount]bool

	newCells int // cells discovered since the last TakeNewCells
}

// NewScanner creates a scanner over hf with seam filling enabled.
func NewScanner(hf *HeightField) *Scanner {
	return &Scanner{hf: hf, SeamFill: true}
}

// Scan marks everything the observer can see in f. It returns true when at
// least one cell went from undiscovered to discovered.
//
// One octant of the view circle is stepped with the midpoint rule; for every
// step a ray is traced from the observer to the arc point and mirrored into
// all eight octants. Along each ray the first cell above the observer's eye
// becomes the blocker; lower ground behind it is hidden, ground at or above
// the blocker stays visible and raises it.
func (s *Scanner) Scan(f *Frame, o ObserverInfo) bool {
	if math.IsNaN(o.GridX) || math.IsNaN(o.GridY) || math.IsInf(o.GridX, 0) || math.IsInf(o.GridY, 0) {
		return false
	}
	startX, startY := cellIndex(o.GridX, o.GridY)
	if !s.hf.InBounds(startX, startY) {
		return false
	}

	newly := s.mark(f, startY*f.Cols+startX)
	if math.IsNaN(o.GridViewRadius) || o.GridViewRadius <= 0 {
		return newly
	}

	startHeight := s.hf.ElevationAt(startX, startY) + o.Height

	// Every cell lies within the grid diagonal, so a larger radius only
	// adds octant steps that fall off the map.
	r := int(math.Round(math.Min(o.GridViewRadius, s.maxRadius())))
	if r <= 0 {
		return newly
	}
	deltaX := r
	deltaY := 0
	for {
		if r <= deltaY*deltaY {
			deltaX--
			r += 2*deltaX + 1
		}
		if s.traceRay(f, deltaX, deltaY, startX, startY, startHeight) {
			newly = true
		}
		deltaY++
		if deltaY >= deltaX {
			break
		}
	}
	return newly
}

func (s *Scanner) maxRadius() float64 {
	return math.Ceil(math.Hypot(float64(s.hf.Cols()), float64(s.hf.Rows())))
}

// traceRay walks the digital line from the observer to (deltaX, deltaY) with
// deltaX as the driving axis and applies each step in all eight octants.
func (s *Scanner) traceRay(f *Frame, deltaX, deltaY, startX, startY int, startHeight float64) bool {
	s.hasBlocker = [octantCount]bool{}

	newly := false
	for octant := 0; octant < octantCount; octant++ {
		counter := deltaX / 2
		dx, dy := 0, 0
		for i := 0; i < deltaX; i++ {
			counter += deltaY
			if counter > deltaX {
				counter -= deltaX
				dy++
			}
			dx++

			wdx, wdy := reflect(octant, dx, dy)
			x, y := startX+wdx, startY+wdy
			if !s.hf.InBounds(x, y) {
				continue
			}
			if s.visit(f, octant, x, y, startHeight) {
				newly = true
			}
		}
	}
	return newly
}

// visit applies the occlusion rule to one cell of one octant's ray.
func (s *Scanner) visit(f *Frame, octant, x, y int, startHeight float64) bool {
	h := s.hf.ElevationAt(x, y)
	if !s.hasBlocker[octant] {
		if h > startHeight {
			s.hasBlocker[octant] = true
			s.blocker[octant] = h
		}
	} else if h > s.blocker[octant] {
		s.blocker[octant] = h
	} else if h < s.blocker[octant] {
		return false
	}

	idx := y*f.Cols + x
	newly := s.mark(f, idx)
	if s.SeamFill && idx+f.Cols < f.Cells() {
		if s.mark(f, idx+f.Cols) {
			newly = true
		}
	}
	return newly
}

// mark sets cell idx in both masks and reports whether it was newly discovered.
func (s *Scanner) mark(f *Frame, idx int) bool {
	newly := !isSet(f.Discovered, idx)
	if newly {
		s.newCells++
	}
	setPixel(f.Discovered, idx)
	setPixel(f.Visible, idx)
	return newly
}

// TakeNewCells returns the number of cells discovered since the previous call
// and resets the count.
func (s *Scanner) TakeNewCells() int {
	n := s.newCells
	s.newCells = 0
	return n
}

// reflect maps an offset in the first octant into octant n:
// 0:(dx,dy) 1:(-dx,dy) 2:(dx,-dy) 3:(-dx,-dy) 4:(dy,dx) 5:(-dy,dx) 6:(dy,-dx) 7:(-dy,-dx).
func reflect(n, dx, dy int) (int, int) {
	var wdx, wdy int
	if n < 4 {
		wdx = dx
		if n < 2 {
			wdy = dy
		} else {
			wdy = -dy
		}
	} else {
		wdx = dy
		if n < 6 {
			wdy = dx
		} else {
			wdy = -dx
		}
	}
	if n%2 != 0 {
		wdx = -wdx
	}
	return wdx, wdy
}
