package sim

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Garsondee/Fog-Sense/internal/fog"
	"github.com/Garsondee/Fog-Sense/internal/terrain"
)

// Harness is a headless simulation: a terrain, an engine and a set of
// wanderers stepped in lockstep. It supports deterministic seeding and
// structured pass logging.
type Harness struct {
	HF        *fog.HeightField
	Engine    *fog.Engine
	Wanderers []*Wanderer
	PassLog   *fog.PassLog
	Watcher   *fog.Watcher
	Reporter  *Reporter

	cols, rows  int
	seed        int64
	rng         *rand.Rand
	engineOpts  []fog.Option
	viewRadius  float64
	eyeHeight   float64
	speed       float64
	reportEvery int
	targets     map[int]fog.Vec3
	nextID      int
	tick        int
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra    optionKind = iota // map, seed, engine settings: applied first
	optObserver                   // wanderers: applied once the engine exists
)

// Option is a builder function applied to a Harness during construction.
type Option struct {
	kind optionKind
	fn   func(*Harness)
}

// WithMapSize sets the generated terrain's grid size. Ignored with
// WithTerrain.
func WithMapSize(cols, rows int) Option {
	return Option{optInfra, func(h *Harness) {
		h.cols, h.rows = cols, rows
	}}
}

// WithSeed seeds both the terrain and the wanderers' waypoints.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(h *Harness) {
		h.seed = seed
	}}
}

// WithTerrain uses hf instead of generating terrain.
func WithTerrain(hf *fog.HeightField) Option {
	return Option{optInfra, func(h *Harness) {
		h.HF = hf
	}}
}

// WithMode selects the engine's scheduling mode.
func WithMode(m fog.Mode) Option {
	return Option{optInfra, func(h *Harness) {
		h.engineOpts = append(h.engineOpts, fog.WithMode(m))
	}}
}

// WithUpdateSpread sets the amortized cycle length.
func WithUpdateSpread(n int) Option {
	return Option{optInfra, func(h *Harness) {
		h.engineOpts = append(h.engineOpts, fog.WithUpdateSpread(n))
	}}
}

// WithWorkers sets the background pass worker count.
func WithWorkers(n int) Option {
	return Option{optInfra, func(h *Harness) {
		h.engineOpts = append(h.engineOpts, fog.WithWorkers(n))
	}}
}

// WithEngineOptions passes raw engine options through.
func WithEngineOptions(opts ...fog.Option) Option {
	return Option{optInfra, func(h *Harness) {
		h.engineOpts = append(h.engineOpts, opts...)
	}}
}

// WithLogger sets the engine logger.
func WithLogger(l logrus.FieldLogger) Option {
	return Option{optInfra, func(h *Harness) {
		h.engineOpts = append(h.engineOpts, fog.WithLogger(l))
	}}
}

// WithVerbose enables per-tick verbose pass logging.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(h *Harness) {
		h.PassLog = fog.NewPassLog(v)
	}}
}

// WithViewRadius sets the view radius, in world units, of observers added
// after it.
func WithViewRadius(r float64) Option {
	return Option{optInfra, func(h *Harness) {
		h.viewRadius = r
	}}
}

// WithEyeHeight sets the eye height, in world units, of observers added
// after it.
func WithEyeHeight(e float64) Option {
	return Option{optInfra, func(h *Harness) {
		h.eyeHeight = e
	}}
}

// WithSpeed sets the wanderer speed in world units per tick.
func WithSpeed(s float64) Option {
	return Option{optInfra, func(h *Harness) {
		h.speed = s
	}}
}

// WithReportEvery sets how often, in ticks, a coverage sample is taken.
func WithReportEvery(ticks int) Option {
	return Option{optInfra, func(h *Harness) {
		h.reportEvery = ticks
	}}
}

// WithWanderers adds n wanderers at random positions.
func WithWanderers(n int) Option {
	return Option{optObserver, func(h *Harness) {
		for i := 0; i < n; i++ {
			x, z := randomPoint(h.HF, h.rng)
			h.addWanderer(x, z, h.speed)
		}
	}}
}

// WithObserverAt adds a stationary observer at world (x,z).
func WithObserverAt(x, z float64) Option {
	return Option{optObserver, func(h *Harness) {
		h.addWanderer(x, z, 0)
	}}
}

// WithTarget watches a fixed, non-observing position under key. Visibility
// changes show up in the pass log under category "watch".
func WithTarget(key int, x, z float64) Option {
	return Option{optObserver, func(h *Harness) {
		p := fog.Vec3{X: x, Z: z}
		h.targets[key] = p
		h.Watcher.Watch(key, func() fog.Vec3 { return p })
	}}
}

// NewHarness builds the terrain and engine, then adds observers, applying
// options in two ordered passes.
func NewHarness(opts ...Option) (*Harness, error) {
	h := &Harness{
		cols:        64,
		rows:        64,
		seed:        1,
		viewRadius:  20,
		eyeHeight:   2,
		speed:       1,
		reportEvery: 10,
		PassLog:     fog.NewPassLog(false),
		Watcher:     fog.NewWatcher(),
		Reporter:    NewReporter(0),
		targets:     make(map[int]fog.Vec3),
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(h)
		}
	}
	h.rng = rand.New(rand.NewSource(h.seed)) // #nosec G404 -- simulation waypoints

	if h.HF == nil {
		p := terrain.DefaultParams(h.seed)
		p.Cols, p.Rows = h.cols, h.rows
		p.Size = fog.Vec3{X: float64(h.cols) * 2, Y: 24, Z: float64(h.rows) * 2}
		hf, err := terrain.Generate(p)
		if err != nil {
			return nil, fmt.Errorf("new harness: %w", err)
		}
		h.HF = hf
	}

	engineOpts := append([]fog.Option{fog.WithPassLog(h.PassLog)}, h.engineOpts...)
	e, err := fog.NewEngine(h.HF, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("new harness: %w", err)
	}
	h.Engine = e

	for _, o := range opts {
		if o.kind == optObserver {
			o.fn(h)
		}
	}
	return h, nil
}

func (h *Harness) addWanderer(x, z, speed float64) *Wanderer {
	w := NewWanderer(h.nextID, h.HF, x, z, h.viewRadius, h.eyeHeight, speed)
	h.nextID++
	w.ObserverID = h.Engine.Register(w.Observer)
	h.Wanderers = append(h.Wanderers, w)
	h.PassLog.Add(h.tick, "registry", "add", fmt.Sprintf("%s as observer %d", w.Label, w.ObserverID), float64(w.ObserverID))
	return w
}

// AddWanderer adds a moving observer at a random position.
func (h *Harness) AddWanderer() *Wanderer {
	x, z := randomPoint(h.HF, h.rng)
	return h.addWanderer(x, z, h.speed)
}

// RemoveWanderer unregisters and drops the wanderer with id. It reports
// whether one was found.
func (h *Harness) RemoveWanderer(id int) bool {
	for i, w := range h.Wanderers {
		if w.ID != id {
			continue
		}
		h.Engine.Unregister(w.ObserverID)
		h.Wanderers = append(h.Wanderers[:i], h.Wanderers[i+1:]...)
		h.PassLog.Add(h.tick, "registry", "remove", w.Label, float64(w.ObserverID))
		return true
	}
	return false
}

// RunTicks advances the simulation n ticks.
func (h *Harness) RunTicks(n int) {
	for i := 0; i < n; i++ {
		h.runOneTick()
	}
}

// RunUntil advances up to maxTicks, stopping once predicate holds. It
// returns the tick at which the predicate was satisfied, or -1.
func (h *Harness) RunUntil(predicate func(*Harness) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		h.runOneTick()
		if predicate(h) {
			return h.tick
		}
	}
	return -1
}

// Advance is the real-time driver: wanderers move by the share of a tick
// that dt covers, then the engine runs however many ticks its update
// interval says have elapsed. It returns that tick count.
func (h *Harness) Advance(dt time.Duration) int {
	frac := 1.0
	if iv := h.Engine.Interval(); iv > 0 {
		frac = float64(dt) / float64(iv)
	}
	for _, w := range h.Wanderers {
		w.StepBy(h.HF, h.rng, w.Speed()*frac)
	}
	n := h.Engine.Advance(dt)
	for i := 0; i < n; i++ {
		h.tick++
		h.afterTick()
	}
	return n
}

// Settle commits any in-flight background pass.
func (h *Harness) Settle() {
	h.Engine.Flush()
}

// runOneTick moves every wanderer, ticks the engine, then diffs the watched
// targets.
func (h *Harness) runOneTick() {
	h.tick++
	moved := 0
	for _, w := range h.Wanderers {
		if w.Step(h.HF, h.rng) {
			moved++
		}
	}
	h.PassLog.AddVerbose(h.tick, "move", "observers", fmt.Sprintf("%d moved", moved), float64(moved))

	h.Engine.Tick()
	// Lockstep loops never block, so a background pass would not get
	// scheduled on a single P until Settle.
	if h.Engine.InFlight() {
		runtime.Gosched()
	}
	h.afterTick()
}

// afterTick diffs the watched targets and samples coverage.
func (h *Harness) afterTick() {
	for _, c := range h.Watcher.Poll(h.Engine) {
		key := "leave"
		if c.Visible {
			key = "enter"
		}
		p := h.targets[c.Key]
		h.PassLog.Add(h.tick, "watch", key, fmt.Sprintf("target %d at (%.0f,%.0f)", c.Key, p.X, p.Z), float64(c.Key))
	}

	if h.reportEvery > 0 && h.tick%h.reportEvery == 0 {
		h.Reporter.Collect(h.tick, h.Engine.Map().Front(), len(h.Wanderers))
	}
}

// CurrentTick returns the current simulation tick.
func (h *Harness) CurrentTick() int {
	return h.tick
}

// Snapshot captures a lightweight state summary.
type Snapshot struct {
	Tick          int
	Generation    uint64
	DiscoveredPct float64
	VisiblePct    float64
	Stats         fog.Stats
	Wanderers     []WandererSnapshot
}

// WandererSnapshot is a copy of one wanderer's state.
type WandererSnapshot struct {
	ID        int
	Label     string
	X, Z      float64
	Waypoints int
	Visible   bool
}

// Snapshot returns the current state of the map and all wanderers.
func (h *Harness) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:  h.tick,
		Stats: h.Engine.Stats(),
	}
	if f := h.Engine.Map().Front(); f != nil {
		snap.Generation = f.Generation
		snap.DiscoveredPct = pct(f.DiscoveredCount(), f.Cells())
		snap.VisiblePct = pct(f.VisibleCount(), f.Cells())
	}
	for _, w := range h.Wanderers {
		snap.Wanderers = append(snap.Wanderers, WandererSnapshot{
			ID:        w.ID,
			Label:     w.Label,
			X:         w.X,
			Z:         w.Z,
			Waypoints: w.Waypoints(),
			Visible:   h.Engine.IsVisible(w.Position(h.HF)),
		})
	}
	return snap
}

// Close shuts the engine down.
func (h *Harness) Close() {
	h.Engine.Close()
}
