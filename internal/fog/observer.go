package fog

import "math"

// positionEpsilon is the tolerance under which a position update is treated
// as no movement.
const positionEpsilon = 1e-6

// ObserverID is the registry slot an observer occupies.
type ObserverID int

// Observer is the visibility-relevant state of one entity, in grid units.
// The owning entity mutates it on the main thread; scans only ever see an
// ObserverInfo copy.
type Observer struct {
	GridX, GridY   float64
	GridViewRadius float64
	Height         float64 // elevation offset added to the terrain under the observer

	Moved       bool // changed since the last scan that covered it
	EverUpdated bool // covered by at least one scan
}

// ObserverInfo is the read-only snapshot a scan works from.
type ObserverInfo struct {
	GridX, GridY   float64
	GridViewRadius float64
	Height         float64
}

// NewObserver creates an observer at a world position with a world-space
// view radius.
func NewObserver(hf *HeightField, world Vec3, worldRadius float64) *Observer {
	o := &Observer{}
	o.UpdatePosition(hf, world)
	o.SetViewRadius(hf, worldRadius)
	return o
}

// UpdatePosition moves the observer to a world position. It returns true and
// flags the observer as moved when the grid position or height changed.
func (o *Observer) UpdatePosition(hf *HeightField, world Vec3) bool {
	gx, gy := hf.WorldToGrid(world)
	h := hf.NormalizedHeight(world.Y)
	if approxEqual(gx, o.GridX) && approxEqual(gy, o.GridY) && approxEqual(h, o.Height) {
		return false
	}
	o.GridX, o.GridY, o.Height = gx, gy, h
	o.Moved = true
	return true
}

// SetViewRadius sets the view radius from world units.
func (o *Observer) SetViewRadius(hf *HeightField, worldRadius float64) {
	r := hf.GridRadius(worldRadius)
	if !approxEqual(r, o.GridViewRadius) {
		o.GridViewRadius = r
		o.Moved = true
	}
}

// Dirty reports whether the observer needs scanning.
func (o *Observer) Dirty() bool {
	return o.Moved || !o.EverUpdated
}

// Snapshot copies the scan inputs.
func (o *Observer) Snapshot() ObserverInfo {
	return ObserverInfo{
		GridX:          o.GridX,
		GridY:          o.GridY,
		GridViewRadius: o.GridViewRadius,
		Height:         o.Height,
	}
}

// markScanned clears the movement flag after a scan covered the observer.
func (o *Observer) markScanned() {
	o.Moved = false
	o.EverUpdated = true
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= positionEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
