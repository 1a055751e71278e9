package main

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Garsondee/Fog-Sense/internal/config"
	"github.com/Garsondee/Fog-Sense/internal/fog"
	"github.com/Garsondee/Fog-Sense/internal/sim"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Terrain.Cols, cfg.Terrain.Rows = 32, 32
	cfg.Terrain.WorldWidth, cfg.Terrain.WorldDepth = 64, 64
	cfg.Observers.Count = 3
	cfg.Observers.ViewRadius = 12
	return cfg
}

func TestParseModes(t *testing.T) {
	all, err := parseModes("ALL")
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %v, %v", all, err)
	}
	one, err := parseModes("background")
	if err != nil || len(one) != 1 || one[0] != fog.ModeBackground {
		t.Fatalf("background = %v, %v", one, err)
	}
	if _, err := parseModes("sideways"); !errors.Is(err, fog.ErrUnknownMode) {
		t.Fatalf("unknown mode err = %v", err)
	}
}

func TestRunMode_EveryModeDiscovers(t *testing.T) {
	for _, m := range fog.Modes() {
		rs, err := runMode(smallConfig(), m, runOptions{ticks: 40, wanderers: -1})
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if rs.stats.Commits == 0 || rs.snapshot.DiscoveredPct <= 0 {
			t.Fatalf("%s: commits=%d discovered=%.1f", m, rs.stats.Commits, rs.snapshot.DiscoveredPct)
		}
		if rs.firstCommitTick < 1 {
			t.Fatalf("%s: first commit tick = %d", m, rs.firstCommitTick)
		}
		if rs.final == nil || rs.final.DiscoveredCount() == 0 {
			t.Fatalf("%s: final frame missing", m)
		}
	}
}

func TestRunMode_WanderersOverride(t *testing.T) {
	rs, err := runMode(smallConfig(), fog.ModeSynchronous, runOptions{ticks: 5, wanderers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(rs.snapshot.Wanderers) != 1 {
		t.Fatalf("wanderers = %d, want 1", len(rs.snapshot.Wanderers))
	}
}

func TestFirstTick(t *testing.T) {
	entries := []fog.PassLogEntry{
		{Tick: 1, Category: "pass", Key: "skip"},
		{Tick: 3, Category: "commit", Key: "sync"},
		{Tick: 5, Category: "commit", Key: "cycle"},
	}
	if got := firstTick(entries, "commit", ""); got != 3 {
		t.Fatalf("first commit = %d, want 3", got)
	}
	if got := firstTick(entries, "commit", "cycle"); got != 5 {
		t.Fatalf("first cycle commit = %d, want 5", got)
	}
	if got := firstTick(entries, "defer", ""); got != -1 {
		t.Fatalf("missing category = %d, want -1", got)
	}
}

func TestCoverageTick(t *testing.T) {
	hist := []sim.CoverageSample{
		{Tick: 10, Cells: 100, Discovered: 20},
		{Tick: 20, Cells: 100, Discovered: 55},
		{Tick: 30, Cells: 100, Discovered: 80},
	}
	if got := coverageTick(hist, 50); got != 20 {
		t.Fatalf("half coverage tick = %d, want 20", got)
	}
	if got := coverageTick(hist, 90); got != -1 {
		t.Fatalf("unreached coverage tick = %d, want -1", got)
	}
}

func TestWriteSnapshot(t *testing.T) {
	rs, err := runMode(smallConfig(), fog.ModeSynchronous, runOptions{ticks: 3, wanderers: -1})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "masks.png")
	if err := writeSnapshot(path, rs.final); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32*4 || b.Dy() != 32*4 {
		t.Fatalf("snapshot size %v, want 128x128", b)
	}
	if err := writeSnapshot(path, nil); err == nil {
		t.Fatal("nil frame should fail")
	}
}
