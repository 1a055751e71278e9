package game

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Garsondee/Fog-Sense/internal/sim"
)

// debugReport summarises the simulation for pasting into a bug report:
// engine stats, the coverage window, every wanderer and the last
// lastEntries pass log entries.
func debugReport(h *sim.Harness, seed int64, lastEntries int) string {
	snap := h.Snapshot()
	st := snap.Stats

	var b strings.Builder
	fmt.Fprintf(&b, "--- FogSense debug report ---\n")
	fmt.Fprintf(&b, "seed=%d tick=%d mode=%s grid=%dx%d generation=%d\n",
		seed, snap.Tick, h.Engine.Mode(), h.HF.Cols(), h.HF.Rows(), snap.Generation)
	fmt.Fprintf(&b, "coverage: discovered=%.1f%% visible=%.1f%%\n", snap.DiscoveredPct, snap.VisiblePct)
	fmt.Fprintf(&b,
		"stats: ticks=%d skipped=%d deferred=%d passes=%d/%d scans=%d commits=%d newCells=%d lastPass=%s maxInFlight=%d\n\n",
		st.Ticks, st.SkippedTicks, st.DeferredTicks, st.PassesCompleted, st.PassesStarted,
		st.ObserverScans, st.Commits, st.NewCells, st.LastPassDuration, st.MaxConcurrentPasses)

	if wr := h.Reporter.WindowSummary(); wr != nil {
		b.WriteString(wr.Format())
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "== wanderers (%d) ==\n", len(snap.Wanderers))
	for _, w := range snap.Wanderers {
		fmt.Fprintf(&b, "  %-4s pos=(%.1f,%.1f) waypoints=%d visible=%v\n", w.Label, w.X, w.Z, w.Waypoints, w.Visible)
	}

	entries := h.PassLog.Entries()
	if lastEntries > 0 && len(entries) > lastEntries {
		entries = entries[len(entries)-lastEntries:]
	}
	fmt.Fprintf(&b, "\n== pass log (last %d) ==\n", len(entries))
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func copyReport(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy report: %w", err)
	}
	return nil
}
