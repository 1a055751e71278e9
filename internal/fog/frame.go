package fog

// BytesPerPixel is the mask pixel size: 4 channels, 8 bits each.
const BytesPerPixel = 4

// Frame is one pair of mask buffers over the grid. Pixels are RGBA8,
// row-major; a set cell is opaque white, an unset cell is all zero.
type Frame struct {
	Cols, Rows int
	Generation uint64

	Discovered []byte // ever seen
	Visible    []byte // seen during the current scan cycle
}

func newFrame(cols, rows int) *Frame {
	return &Frame{
		Cols:       cols,
		Rows:       rows,
		Discovered: make([]byte, cols*rows*BytesPerPixel),
		Visible:    make([]byte, cols*rows*BytesPerPixel),
	}
}

// Cells returns the number of grid cells.
func (f *Frame) Cells() int {
	return f.Cols * f.Rows
}

// IsDiscovered reports whether cell (x,y) has ever been seen.
func (f *Frame) IsDiscovered(x, y int) bool {
	if x < 0 || y < 0 || x >= f.Cols || y >= f.Rows {
		return false
	}
	return isSet(f.Discovered, y*f.Cols+x)
}

// IsVisible reports whether cell (x,y) is currently visible.
func (f *Frame) IsVisible(x, y int) bool {
	if x < 0 || y < 0 || x >= f.Cols || y >= f.Rows {
		return false
	}
	return isSet(f.Visible, y*f.Cols+x)
}

// DiscoveredCount counts discovered cells.
func (f *Frame) DiscoveredCount() int {
	return countSet(f.Discovered)
}

// VisibleCount counts visible cells.
func (f *Frame) VisibleCount() int {
	return countSet(f.Visible)
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Cols:       f.Cols,
		Rows:       f.Rows,
		Generation: f.Generation,
		Discovered: make([]byte, len(f.Discovered)),
		Visible:    make([]byte, len(f.Visible)),
	}
	copy(c.Discovered, f.Discovered)
	copy(c.Visible, f.Visible)
	return c
}

// clearVisible zeroes the transient mask.
func (f *Frame) clearVisible() {
	clear(f.Visible)
}

// mergeFrom ORs another frame's masks into f. Both frames share dimensions.
func (f *Frame) mergeFrom(o *Frame) int {
	newly := 0
	for i := BytesPerPixel - 1; i < len(o.Discovered); i += BytesPerPixel {
		if o.Discovered[i] != 0 && f.Discovered[i] == 0 {
			newly++
			setPixel(f.Discovered, i/BytesPerPixel)
		}
		if o.Visible[i] != 0 {
			setPixel(f.Visible, i/BytesPerPixel)
		}
	}
	return newly
}

func setPixel(buf []byte, cell int) {
	p := cell * BytesPerPixel
	buf[p] = 0xff
	buf[p+1] = 0xff
	buf[p+2] = 0xff
	buf[p+3] = 0xff
}

// isSet tests the alpha channel.
func isSet(buf []byte, cell int) bool {
	return buf[cell*BytesPerPixel+3] != 0
}

func countSet(buf []byte) int {
	n := 0
	for i := BytesPerPixel - 1; i < len(buf); i += BytesPerPixel {
		if buf[i] != 0 {
			n++
		}
	}
	return n
}
