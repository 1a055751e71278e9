package sim

import (
	"strings"
	"testing"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

func TestReporter_Window(t *testing.T) {
	r := NewReporter(20)
	if r.WindowSummary() != nil || r.Latest() != nil {
		t.Fatal("empty reporter should report nothing")
	}
	if !strings.Contains(r.WindowSummary().Format(), "No data") {
		t.Fatal("nil window should format as no data")
	}

	f := &fog.Frame{Cols: 10, Rows: 10, Discovered: make([]byte, 400), Visible: make([]byte, 400)}
	mark := func(buf []byte, cell int) { buf[cell*fog.BytesPerPixel+3] = 0xff }
	for tick := 10; tick <= 50; tick += 10 {
		f.Generation = uint64(tick) // one commit per tick
		for c := 0; c < tick; c++ {
			mark(f.Discovered, c)
		}
		r.Collect(tick, f, 1)
	}

	wr := r.WindowSummary()
	if wr.FromTick != 30 || wr.ToTick != 50 || wr.SampleCount != 3 {
		t.Fatalf("window = %+v", wr)
	}
	if wr.StartDiscoveredPct != 30 || wr.EndDiscoveredPct != 50 || wr.CellsPerTick != 1 {
		t.Fatalf("discovery = %+v", wr)
	}
	if wr.Commits != 20 {
		t.Fatalf("commits = %d", wr.Commits)
	}
	if !strings.Contains(wr.Format(), "T=30..50") {
		t.Fatalf("format = %q", wr.Format())
	}
	if !strings.Contains(r.FormatLatest(), "discovered=50.0%") {
		t.Fatalf("latest = %q", r.FormatLatest())
	}
}
