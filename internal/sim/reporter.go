package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// reportWindowTicks is the default window for coverage summaries.
const reportWindowTicks = 600

// CoverageSample is the map coverage at one tick.
type CoverageSample struct {
	Tick       int
	Generation uint64
	Cells      int
	Discovered int
	Visible    int
	Observers  int
}

// DiscoveredPct returns the discovered share of the map, 0-100.
func (c CoverageSample) DiscoveredPct() float64 { return pct(c.Discovered, c.Cells) }

// VisiblePct returns the visible share of the map, 0-100.
func (c CoverageSample) VisiblePct() float64 { return pct(c.Visible, c.Cells) }

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Reporter collects coverage samples and summarises them over a sliding
// window of ticks.
type Reporter struct {
	history     []CoverageSample
	windowTicks int
}

// NewReporter creates a reporter. A non-positive window uses the default.
func NewReporter(windowTicks int) *Reporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &Reporter{windowTicks: windowTicks}
}

// Collect records a sample from a committed frame.
func (r *Reporter) Collect(tick int, f *fog.Frame, observers int) {
	if f == nil {
		return
	}
	r.history = append(r.history, CoverageSample{
		Tick:       tick,
		Generation: f.Generation,
		Cells:      f.Cells(),
		Discovered: f.DiscoveredCount(),
		Visible:    f.VisibleCount(),
		Observers:  observers,
	})
}

// Latest returns the most recent sample, or nil.
func (r *Reporter) Latest() *CoverageSample {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns all samples.
func (r *Reporter) History() []CoverageSample {
	return r.history
}

// WindowReport summarises the samples inside one window.
type WindowReport struct {
	FromTick, ToTick int
	SampleCount      int

	AvgVisiblePct float64
	MinVisiblePct float64
	MaxVisiblePct float64

	StartDiscoveredPct float64
	EndDiscoveredPct   float64

	// CellsPerTick is the discovery rate across the window.
	CellsPerTick float64

	// Commits is how many commits landed between the first and last
	// sample, from the generation counter.
	Commits int
}

// WindowSummary aggregates the samples within the window ending at the
// latest sample.
func (r *Reporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}
	latestTick := r.history[len(r.history)-1].Tick
	cutoff := latestTick - r.windowTicks
	var window []CoverageSample
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Tick < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	first, last := window[len(window)-1], window[0]
	wr := &WindowReport{
		FromTick:           first.Tick,
		ToTick:             last.Tick,
		SampleCount:        len(window),
		MinVisiblePct:      math.Inf(1),
		MaxVisiblePct:      math.Inf(-1),
		StartDiscoveredPct: first.DiscoveredPct(),
		EndDiscoveredPct:   last.DiscoveredPct(),
	}
	for _, s := range window {
		v := s.VisiblePct()
		wr.AvgVisiblePct += v
		wr.MinVisiblePct = math.Min(wr.MinVisiblePct, v)
		wr.MaxVisiblePct = math.Max(wr.MaxVisiblePct, v)
	}
	wr.AvgVisiblePct /= float64(len(window))
	if last.Generation > first.Generation {
		wr.Commits = int(last.Generation - first.Generation)
	}
	if span := last.Tick - first.Tick; span > 0 {
		wr.CellsPerTick = float64(last.Discovered-first.Discovered) / float64(span)
	}
	return wr
}

// Format renders the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Coverage Report (T=%d..%d, %d samples) ===\n",
		wr.FromTick, wr.ToTick, wr.SampleCount)
	fmt.Fprintf(&sb, "  visible:    avg=%5.1f%%  min=%5.1f%%  max=%5.1f%%\n",
		wr.AvgVisiblePct, wr.MinVisiblePct, wr.MaxVisiblePct)
	fmt.Fprintf(&sb, "  discovered: %5.1f%% -> %5.1f%%  (%.1f cells/tick)\n",
		wr.StartDiscoveredPct, wr.EndDiscoveredPct, wr.CellsPerTick)
	fmt.Fprintf(&sb, "  commits:    %d\n", wr.Commits)
	return sb.String()
}

// FormatLatest renders the latest sample on one line.
func (r *Reporter) FormatLatest() string {
	s := r.Latest()
	if s == nil {
		return "No data.\n"
	}
	return fmt.Sprintf("T=%d gen=%d observers=%d discovered=%.1f%% visible=%.1f%%\n",
		s.Tick, s.Generation, s.Observers, s.DiscoveredPct(), s.VisiblePct())
}
