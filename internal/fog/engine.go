package fog

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Scheduler defaults.
const (
	DefaultUpdateInterval = 100 * time.Millisecond
	DefaultUpdateSpread   = 4

	// maxCatchUpTicks bounds how many ticks one Advance call may run after a
	// long frame; the remainder is dropped.
	maxCatchUpTicks = 4

	// deferWarnTicks is the run of consecutive deferred ticks after which a
	// slow background pass is reported.
	deferWarnTicks = 50
)

// Stats are cumulative scheduler counters.
type Stats struct {
	Ticks               int
	SkippedTicks        int // synchronous ticks with nothing dirty
	DeferredTicks       int // background ticks that found a pass still running
	PassesStarted       int
	PassesCompleted     int
	ObserverScans       int
	Commits             int
	NewCells            int
	LastPassDuration    time.Duration
	MaxConcurrentPasses int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode selects the scheduling mode.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithUpdateSpread sets the number of ticks an amortized cycle spans.
func WithUpdateSpread(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.spread = n
		}
	}
}

// WithUpdateInterval sets the tick period used by Advance.
func WithUpdateInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithWorkers sets how many goroutines share a background pass.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithSeamFill toggles the one-row over-paint of visible cells.
func WithSeamFill(on bool) Option {
	return func(e *Engine) { e.seamFill = on }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithPassLog records scheduler events into pl.
func WithPassLog(pl *PassLog) Option {
	return func(e *Engine) { e.passLog = pl }
}

// WithSurface attaches a surface at construction.
func WithSurface(s Surface) Option {
	return func(e *Engine) { e.pendingSurfaces = append(e.pendingSurfaces, s) }
}

// Engine owns the observer registry and discovery map of one terrain and
// drives scanning according to its Mode. Tick, Advance, Register and
// Unregister must be called from a single goroutine; in background mode the
// engine runs at most one scan pass on its own goroutine at a time.
type Engine struct {
	hf  *HeightField
	reg *Registry
	dm  *DiscoveryMap

	mode     Mode
	spread   int
	interval time.Duration
	workers  int
	seamFill bool

	log     logrus.FieldLogger
	passLog *PassLog

	pendingSurfaces []Surface

	scanner *Scanner

	state   State
	tick    int
	cycle   int
	force   bool
	changed bool // membership changed since the last synchronous pass
	accum   time.Duration

	pass        *backgroundPass
	workerScans []*Scanner
	scratch     []*Frame
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	deferredRun int

	stats Stats
}

// backgroundPass is one full scan running off the tick goroutine. Its fields
// are written by the pass and read by the tick goroutine only after done is
// closed.
type backgroundPass struct {
	tick      int
	observers []ObserverInfo
	done      chan struct{}

	newCells int
	duration time.Duration
}

// NewEngine builds an engine over hf.
func NewEngine(hf *HeightField, opts ...Option) (*Engine, error) {
	dm, err := NewDiscoveryMap(hf)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	e := &Engine{
		hf:       hf,
		reg:      NewRegistry(),
		dm:       dm,
		mode:     ModeSynchronous,
		spread:   DefaultUpdateSpread,
		interval: DefaultUpdateInterval,
		workers:  1,
		seamFill: true,
		log:      discardLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	for _, s := range e.pendingSurfaces {
		dm.Attach(s)
	}
	e.pendingSurfaces = nil

	e.scanner = e.newScanner()
	e.log = e.log.WithField("component", "fog_engine")
	e.log.WithFields(logrus.Fields{
		"mode":     e.mode.String(),
		"grid":     fmt.Sprintf("%dx%d", hf.Cols(), hf.Rows()),
		"spread":   e.spread,
		"interval": e.interval.String(),
		"workers":  e.workers,
	}).Info("Visibility engine ready.")
	return e, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (e *Engine) newScanner() *Scanner {
	s := NewScanner(e.hf)
	s.SeamFill = e.seamFill
	return s
}

// Mode returns the scheduling mode.
func (e *Engine) Mode() Mode { return e.mode }

// State returns the scheduler state as seen from the tick goroutine.
func (e *Engine) State() State { return e.state }

// CurrentTick returns the number of ticks run.
func (e *Engine) CurrentTick() int { return e.tick }

// HeightField returns the terrain.
func (e *Engine) HeightField() *HeightField { return e.hf }

// Registry returns the observer registry.
func (e *Engine) Registry() *Registry { return e.reg }

// Map returns the discovery map.
func (e *Engine) Map() *DiscoveryMap { return e.dm }

// Stats returns a copy of the counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.MaxConcurrentPasses = int(e.maxInFlight.Load())
	return s
}

// InFlight reports whether a background pass is running.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load() > 0
}

// Register adds an observer and returns its id.
func (e *Engine) Register(o *Observer) ObserverID {
	e.changed = true
	return e.reg.Register(o)
}

// Unregister removes an observer. Unknown ids are ignored.
func (e *Engine) Unregister(id ObserverID) {
	if _, ok := e.reg.Get(id); !ok {
		return
	}
	e.changed = true
	e.reg.Unregister(id)
}

// ForceUpdate makes the next synchronous tick rescan even if nothing moved.
func (e *Engine) ForceUpdate() {
	e.force = true
}

// IsVisible reports whether a world position was visible in the last
// committed frame.
func (e *Engine) IsVisible(world Vec3) bool {
	return e.dm.IsVisible(world)
}

// IsDiscovered reports whether a world position had been discovered as of
// the last committed frame.
func (e *Engine) IsDiscovered(world Vec3) bool {
	return e.dm.IsDiscovered(world)
}

// Interval returns the update interval Advance ticks at.
func (e *Engine) Interval() time.Duration { return e.interval }

// Advance feeds elapsed time and runs one Tick per elapsed update interval.
// It returns the number of ticks run.
func (e *Engine) Advance(dt time.Duration) int {
	if e.interval <= 0 {
		e.Tick()
		return 1
	}
	e.accum += dt
	n := 0
	for e.accum >= e.interval {
		e.accum -= e.interval
		if n == maxCatchUpTicks {
			e.accum = 0
			break
		}
		e.Tick()
		n++
	}
	return n
}

// Tick runs one scheduling step.
func (e *Engine) Tick() {
	if e.dm.backFrame() == nil {
		return
	}
	e.tick++
	e.stats.Ticks++
	switch e.mode {
	case ModeAmortized:
		e.tickAmortized()
	case ModeBackground:
		e.tickBackground()
	default:
		e.tickSynchronous()
	}
}

// --- Synchronous ---

func (e *Engine) tickSynchronous() {
	active := e.reg.ActiveObservers()
	dirty := e.force || e.changed
	for _, o := range active {
		if o.Dirty() {
			dirty = true
			break
		}
	}
	if !dirty {
		e.stats.SkippedTicks++
		e.passLog.AddVerbose(e.tick, "pass", "skip", "no dirty observers", 0)
		return
	}

	// The transient mask is rebuilt from scratch, so every observer is
	// rescanned once any of them is dirty.
	e.state = StateScanning
	back := e.dm.backFrame()
	e.dm.ClearTransient()
	changed := e.changed
	for _, o := range active {
		if o.Moved || !o.EverUpdated {
			changed = true
		}
		if e.scanner.Scan(back, o.Snapshot()) {
			changed = true
		}
		o.markScanned()
	}
	newCells := e.scanner.TakeNewCells()
	e.stats.ObserverScans += len(active)
	e.stats.NewCells += newCells
	e.stats.PassesStarted++
	e.stats.PassesCompleted++
	e.passLog.Add(e.tick, "pass", "complete",
		fmt.Sprintf("%d observers, %d new cells", len(active), newCells), float64(newCells))
	e.force = false
	e.changed = false

	if changed {
		e.commit("sync")
	}
	e.state = StateIdle
}

// --- Amortized ---

func (e *Engine) tickAmortized() {
	active := e.reg.ActiveObservers()
	n := e.spread
	if e.cycle >= n {
		e.cycle = 0
	}

	e.state = StateScanning
	back := e.dm.backFrame()
	if e.cycle == 0 {
		e.dm.ClearTransient()
		e.stats.PassesStarted++
	}
	scanned := 0
	for i := e.cycle; i < len(active); i += n {
		e.scanner.Scan(back, active[i].Snapshot())
		active[i].markScanned()
		scanned++
	}
	newCells := e.scanner.TakeNewCells()
	e.stats.ObserverScans += scanned
	e.stats.NewCells += newCells
	e.passLog.AddVerbose(e.tick, "scan", "slice",
		fmt.Sprintf("slice %d/%d: %d observers", e.cycle+1, n, scanned), float64(scanned))

	if e.cycle == n-1 {
		e.stats.PassesCompleted++
		e.commit("cycle")
	}
	e.cycle = (e.cycle + 1) % n
	e.state = StateIdle
}

// --- Background ---

func (e *Engine) tickBackground() {
	if e.pass != nil {
		select {
		case <-e.pass.done:
			e.finishPass()
		default:
			e.stats.DeferredTicks++
			e.deferredRun++
			e.passLog.AddVerbose(e.tick, "defer", "in_flight",
				fmt.Sprintf("pass from T=%d still running", e.pass.tick), float64(e.deferredRun))
			if e.deferredRun == deferWarnTicks {
				e.log.WithFields(logrus.Fields{
					"started_tick": e.pass.tick,
					"deferred":     e.deferredRun,
				}).Warn("Background visibility pass is falling behind.")
			}
			return
		}
	}
	e.startPass()
}

// startPass snapshots the active observers and launches a pass against the
// back frame. Only called when no pass is in flight.
func (e *Engine) startPass() {
	active := e.reg.ActiveObservers()
	p := &backgroundPass{
		tick:      e.tick,
		observers: make([]ObserverInfo, len(active)),
		done:      make(chan struct{}),
	}
	for i, o := range active {
		p.observers[i] = o.Snapshot()
		o.markScanned()
	}

	e.dm.ClearTransient()
	back := e.dm.backFrame()
	e.pass = p
	e.state = StateScanning
	e.stats.PassesStarted++

	n := e.inFlight.Add(1)
	for {
		m := e.maxInFlight.Load()
		if n <= m || e.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	go func() {
		defer close(p.done)
		defer e.inFlight.Add(-1)
		start := time.Now()
		e.runPass(back, p)
		p.duration = time.Since(start)
		e.log.WithFields(logrus.Fields{
			"tick":      p.tick,
			"observers": len(p.observers),
			"new_cells": p.newCells,
			"duration":  p.duration.String(),
		}).Debug("Background visibility pass complete.")
	}()
}

// runPass scans every snapshot into back. With several workers each one
// scans a share of the observers into a private frame, and the frames are
// merged afterwards, so no two goroutines write the same buffer.
func (e *Engine) runPass(back *Frame, p *backgroundPass) {
	workers := e.workers
	if workers > len(p.observers) {
		workers = len(p.observers)
	}
	if workers <= 1 {
		for _, o := range p.observers {
			e.scanner.Scan(back, o)
		}
		p.newCells = e.scanner.TakeNewCells()
		return
	}

	e.ensureWorkers(workers, back.Cols, back.Rows)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			f := e.scratch[w]
			clear(f.Discovered)
			clear(f.Visible)
			s := e.workerScans[w]
			for i := w; i < len(p.observers); i += workers {
				s.Scan(f, p.observers[i])
			}
			s.TakeNewCells()
			return nil
		})
	}
	_ = g.Wait()
	for w := 0; w < workers; w++ {
		p.newCells += back.mergeFrom(e.scratch[w])
	}
}

func (e *Engine) ensureWorkers(n, cols, rows int) {
	for len(e.workerScans) < n {
		e.workerScans = append(e.workerScans, e.newScanner())
		e.scratch = append(e.scratch, newFrame(cols, rows))
	}
}

// finishPass commits a completed background pass.
func (e *Engine) finishPass() {
	p := e.pass
	e.pass = nil
	e.deferredRun = 0
	e.stats.PassesCompleted++
	e.stats.ObserverScans += len(p.observers)
	e.stats.NewCells += p.newCells
	e.stats.LastPassDuration = p.duration
	e.passLog.Add(e.tick, "pass", "complete",
		fmt.Sprintf("%d observers, %d new cells (started T=%d)", len(p.observers), p.newCells, p.tick),
		float64(p.newCells))
	e.commit("background")
}

// Wait blocks until an in-flight background pass finishes. The result is
// committed by the next Tick or Flush.
func (e *Engine) Wait() {
	if e.pass != nil {
		<-e.pass.done
	}
}

// Flush waits for an in-flight background pass and commits it without
// starting another one.
func (e *Engine) Flush() {
	if e.pass == nil {
		return
	}
	<-e.pass.done
	e.finishPass()
}

// commit publishes the back frame to queries and surfaces.
func (e *Engine) commit(reason string) {
	e.state = StateCommitting
	e.dm.CommitToSurfaces()
	e.stats.Commits++
	gen := e.dm.Generation()
	e.passLog.Add(e.tick, "commit", reason, fmt.Sprintf("generation %d", gen), float64(gen))
	e.state = StateIdle
}

// Close waits for any background pass and releases the buffers.
func (e *Engine) Close() {
	if e.pass != nil {
		<-e.pass.done
		e.pass = nil
	}
	e.dm.Release()
	e.log.WithFields(logrus.Fields{
		"ticks":   e.stats.Ticks,
		"commits": e.stats.Commits,
	}).Info("Visibility engine closed.")
}
