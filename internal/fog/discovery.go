package fog

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DiscoveryMap owns the mask buffers for one terrain. Scans write the back
// frame; queries and surfaces only ever read the front frame, which changes
// on CommitToSurfaces. Queries may come from any goroutine: they hold the
// read lock for the duration of one lookup, and the swap holds the write
// lock, so no reader sees a frame that has become the back buffer.
type DiscoveryMap struct {
	hf *HeightField

	mu    sync.RWMutex
	front *Frame
	back  *Frame
	gen   atomic.Uint64

	surfaces []Surface
}

// NewDiscoveryMap allocates both frames for hf's grid.
func NewDiscoveryMap(hf *HeightField) (*DiscoveryMap, error) {
	if hf == nil {
		return nil, fmt.Errorf("new discovery map: %w", ErrNoTerrain)
	}
	return &DiscoveryMap{
		hf:    hf,
		front: newFrame(hf.Cols(), hf.Rows()),
		back:  newFrame(hf.Cols(), hf.Rows()),
	}, nil
}

// HeightField returns the terrain the map covers.
func (m *DiscoveryMap) HeightField() *HeightField { return m.hf }

// Cols returns the mask width in cells.
func (m *DiscoveryMap) Cols() int { return m.hf.Cols() }

// Rows returns the mask height in cells.
func (m *DiscoveryMap) Rows() int { return m.hf.Rows() }

// Attach adds a surface that receives every committed frame.
func (m *DiscoveryMap) Attach(s Surface) {
	m.surfaces = append(m.surfaces, s)
}

// Front returns the last committed frame. It stays unchanged until the next
// commit, after which it is reused as the back buffer; callers on other
// goroutines should Clone it via Snapshot instead.
func (m *DiscoveryMap) Front() *Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.front
}

// Snapshot returns a copy of the last committed frame, or nil after Release.
func (m *DiscoveryMap) Snapshot() *Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.front == nil {
		return nil
	}
	return m.front.Clone()
}

// Generation returns the number of commits so far.
func (m *DiscoveryMap) Generation() uint64 {
	return m.gen.Load()
}

// DiscoveredCount returns the discovered cells in the committed frame.
func (m *DiscoveryMap) DiscoveredCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.front == nil {
		return 0
	}
	return m.front.DiscoveredCount()
}

// VisibleCount returns the visible cells in the committed frame.
func (m *DiscoveryMap) VisibleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.front == nil {
		return 0
	}
	return m.front.VisibleCount()
}

// GridCell rounds a world position to the nearest grid cell.
func (m *DiscoveryMap) GridCell(world Vec3) (int, int) {
	return cellIndex(m.hf.WorldToGrid(world))
}

// IsVisible reports whether the cell under a world position was visible in
// the last committed frame. Positions off the grid are never visible.
func (m *DiscoveryMap) IsVisible(world Vec3) bool {
	x, y := m.GridCell(world)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.front == nil {
		return false
	}
	return m.front.IsVisible(x, y)
}

// IsDiscovered reports whether the cell under a world position had been
// discovered as of the last committed frame.
func (m *DiscoveryMap) IsDiscovered(world Vec3) bool {
	x, y := m.GridCell(world)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.front == nil {
		return false
	}
	return m.front.IsDiscovered(x, y)
}

// ClearTransient empties the back frame's visibility mask ahead of a new
// scan cycle.
func (m *DiscoveryMap) ClearTransient() {
	if m.back != nil {
		m.back.clearVisible()
	}
}

// CommitToSurfaces publishes the back frame: the frames swap, the new back
// frame inherits the discovered mask so discovery keeps accumulating, and
// every attached surface receives the new front frame.
func (m *DiscoveryMap) CommitToSurfaces() {
	if m.back == nil {
		return
	}
	published := m.back
	published.Generation = m.gen.Add(1)

	m.mu.Lock()
	old := m.front
	m.front = published
	copy(old.Discovered, published.Discovered)
	copy(old.Visible, published.Visible)
	m.back = old
	m.mu.Unlock()

	for _, s := range m.surfaces {
		s.Commit(published)
	}
}

// back frame accessor for the scheduler.
func (m *DiscoveryMap) backFrame() *Frame {
	return m.back
}

// Release drops the buffers and detaches all surfaces. Queries answer false
// afterwards.
func (m *DiscoveryMap) Release() {
	m.mu.Lock()
	m.front = nil
	m.back = nil
	m.mu.Unlock()
	m.surfaces = nil
}
