// Package sim drives the visibility engine with simple moving observers. It
// backs the headless report, the terminal viewer, the demo and the tests.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// Wanderer is a trackable entity that walks between random waypoints and
// feeds its position to the observer it owns.
type Wanderer struct {
	ID    int
	Label string

	X, Z float64 // world ground position

	Observer   *fog.Observer
	ObserverID fog.ObserverID

	eyeHeight float64
	speed     float64
	targetX   float64
	targetZ   float64
	waypoints int
}

// NewWanderer places a wanderer at (x,z). A zero speed keeps it stationary.
// eyeHeight is in world units above the ground under it.
func NewWanderer(id int, hf *fog.HeightField, x, z, viewRadius, eyeHeight, speed float64) *Wanderer {
	w := &Wanderer{
		ID:        id,
		Label:     fmt.Sprintf("W%d", id),
		X:         x,
		Z:         z,
		eyeHeight: eyeHeight,
		speed:     speed,
		targetX:   x,
		targetZ:   z,
	}
	w.Observer = fog.NewObserver(hf, w.eyePosition(hf), viewRadius)
	return w
}

// eyePosition is the world position handed to the observer. Y carries the
// eye height relative to the terrain origin; the scan adds the ground
// elevation under the observer itself.
func (w *Wanderer) eyePosition(hf *fog.HeightField) fog.Vec3 {
	return fog.Vec3{X: w.X, Y: hf.Origin().Y + w.eyeHeight, Z: w.Z}
}

// Position returns the wanderer's world position at eye height.
func (w *Wanderer) Position(hf *fog.HeightField) fog.Vec3 {
	return w.eyePosition(hf)
}

// Waypoints returns how many waypoints the wanderer has reached.
func (w *Wanderer) Waypoints() int { return w.waypoints }

// Speed returns the distance covered per step.
func (w *Wanderer) Speed() float64 { return w.speed }

// Step advances one tick toward the current waypoint, choosing a new one on
// arrival, and pushes the new position into the observer. It reports
// whether the observer moved.
func (w *Wanderer) Step(hf *fog.HeightField, rng *rand.Rand) bool {
	return w.StepBy(hf, rng, w.speed)
}

// StepBy is Step with an explicit distance, for drivers that move
// observers by a fraction of a tick per frame.
func (w *Wanderer) StepBy(hf *fog.HeightField, rng *rand.Rand, d float64) bool {
	if w.speed <= 0 || d <= 0 {
		return false
	}
	dx, dz := w.targetX-w.X, w.targetZ-w.Z
	dist := math.Hypot(dx, dz)
	if dist <= d {
		w.X, w.Z = w.targetX, w.targetZ
		w.waypoints++
		w.targetX, w.targetZ = randomPoint(hf, rng)
	} else {
		w.X += dx / dist * d
		w.Z += dz / dist * d
	}
	return w.Observer.UpdatePosition(hf, w.eyePosition(hf))
}

// randomPoint picks a world position whose nearest cell lies on the grid.
func randomPoint(hf *fog.HeightField, rng *rand.Rand) (float64, float64) {
	o, s := hf.Origin(), hf.Size()
	fx := float64(hf.Cols()-1) / float64(hf.Cols())
	fz := float64(hf.Rows()-1) / float64(hf.Rows())
	return o.X + rng.Float64()*s.X*fx, o.Z + rng.Float64()*s.Z*fz
}
