package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Garsondee/Fog-Sense/internal/config"
	"github.com/Garsondee/Fog-Sense/internal/fog"
	"github.com/Garsondee/Fog-Sense/internal/logger"
	"github.com/Garsondee/Fog-Sense/internal/render"
	"github.com/Garsondee/Fog-Sense/internal/sim"
	"github.com/Garsondee/Fog-Sense/internal/stream"
)

type runStats struct {
	mode    fog.Mode
	seed    int64
	ticks   int
	elapsed time.Duration

	firstCommitTick int
	halfCoverTick   int // first sample with half the map discovered

	watchEnter int
	watchLeave int

	stats         fog.Stats
	snapshot      sim.Snapshot
	windowSummary *sim.WindowReport
	final         *fog.Frame
}

// runOptions carries the flag overrides shared by every run.
type runOptions struct {
	ticks     int
	wanderers int // negative keeps the configured count
	surface   fog.Surface
	pace      time.Duration // zero runs flat out
	log       logrus.FieldLogger
}

func main() {
	var configPath string
	var ticks int
	var wanderers int
	var seed int64
	var modeFlag string
	var snapshotPath string
	var serveAddr string

	flag.StringVar(&configPath, "config", "", "TOML settings file (defaults when empty)")
	flag.IntVar(&ticks, "ticks", 600, "ticks per run")
	flag.IntVar(&wanderers, "wanderers", -1, "observer count (config value when negative)")
	flag.Int64Var(&seed, "seed", 0, "terrain and waypoint seed (config value when unset)")
	flag.StringVar(&modeFlag, "mode", "all", "scheduling mode: all, sync, amortized or background")
	flag.StringVar(&snapshotPath, "snapshot", "", "write the last run's final masks to this PNG")
	flag.StringVar(&serveAddr, "serve", "", "stream committed frames over websocket on this address")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Terrain.Seed = seed
		}
	})
	if serveAddr == "" {
		serveAddr = cfg.Stream.Addr
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		os.Exit(1)
	}
	modes, err := parseModes(modeFlag)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	opts := runOptions{ticks: ticks, wanderers: wanderers, log: log}

	var hub *stream.Hub
	var srv *http.Server
	if serveAddr != "" {
		hub = stream.NewHub(log)
		mux := http.NewServeMux()
		mux.Handle("/frames", hub.Handler())
		srv = &http.Server{Addr: serveAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("frame stream server stopped")
			}
		}()
		log.WithField("addr", serveAddr).Info("streaming frames on /frames")
		opts.surface = hub
		opts.pace = cfg.Interval()
	}

	fmt.Printf("=== Headless Visibility Report ===\n")
	fmt.Printf("modes=%s ticks=%d seed=%d grid=%dx%d observers=%d\n\n",
		modeFlag, ticks, cfg.Terrain.Seed, cfg.Terrain.Cols, cfg.Terrain.Rows, observerCount(cfg, wanderers))

	all := make([]runStats, 0, len(modes))
	for _, m := range modes {
		rs, err := runMode(cfg, m, opts)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		all = append(all, rs)
		printRun(rs)
	}
	printAggregate(all)

	if snapshotPath != "" && len(all) > 0 {
		if err := writeSnapshot(snapshotPath, all[len(all)-1].final); err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		fmt.Printf("\nsnapshot written to %s\n", snapshotPath)
	}

	if srv != nil {
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func observerCount(cfg config.Config, wanderers int) int {
	if wanderers >= 0 {
		return wanderers
	}
	return cfg.Observers.Count
}

// parseModes expands the -mode flag.
func parseModes(s string) ([]fog.Mode, error) {
	if strings.EqualFold(s, "all") {
		return fog.Modes(), nil
	}
	m, err := fog.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []fog.Mode{m}, nil
}

// watchTargets are fixed points, as fractions of the world extent, whose
// visibility changes are counted.
var watchTargets = [][2]float64{
	{0.25, 0.25}, {0.75, 0.25}, {0.5, 0.5}, {0.25, 0.75}, {0.75, 0.75},
}

func runMode(cfg config.Config, mode fog.Mode, ro runOptions) (runStats, error) {
	cfg.Engine.Mode = mode.String()
	if ro.wanderers >= 0 {
		cfg.Observers.Count = ro.wanderers
	}
	opts, err := sim.ConfigOptions(cfg)
	if err != nil {
		return runStats{}, fmt.Errorf("run %s: %w", mode, err)
	}
	if ro.log != nil {
		opts = append(opts, sim.WithLogger(ro.log))
	}
	if ro.surface != nil {
		opts = append(opts, sim.WithEngineOptions(fog.WithSurface(ro.surface)))
	}
	size := cfg.Terrain.WorldSize()
	for i, p := range watchTargets {
		opts = append(opts, sim.WithTarget(i, p[0]*size.X, p[1]*size.Z))
	}

	h, err := sim.NewHarness(opts...)
	if err != nil {
		return runStats{}, fmt.Errorf("run %s: %w", mode, err)
	}
	defer h.Close()

	start := time.Now()
	if ro.pace > 0 {
		ticker := time.NewTicker(ro.pace)
		for i := 0; i < ro.ticks; i++ {
			<-ticker.C
			h.RunTicks(1)
		}
		ticker.Stop()
	} else {
		h.RunTicks(ro.ticks)
	}
	h.Settle()
	elapsed := time.Since(start)

	entries := h.PassLog.Entries()
	return runStats{
		mode:            mode,
		seed:            cfg.Terrain.Seed,
		ticks:           ro.ticks,
		elapsed:         elapsed,
		firstCommitTick: firstTick(entries, "commit", ""),
		halfCoverTick:   coverageTick(h.Reporter.History(), 50),
		watchEnter:      h.PassLog.Count("watch", "enter"),
		watchLeave:      h.PassLog.Count("watch", "leave"),
		stats:           h.Engine.Stats(),
		snapshot:        h.Snapshot(),
		windowSummary:   h.Reporter.WindowSummary(),
		final:           h.Engine.Map().Snapshot(),
	}, nil
}

func firstTick(entries []fog.PassLogEntry, category, key string) int {
	for _, e := range entries {
		if e.Category == category && (key == "" || e.Key == key) {
			return e.Tick
		}
	}
	return -1
}

// coverageTick returns the first sampled tick at which at least pct
// percent of the map was discovered, or -1.
func coverageTick(history []sim.CoverageSample, pct float64) int {
	for _, s := range history {
		if s.DiscoveredPct() >= pct {
			return s.Tick
		}
	}
	return -1
}

func printRun(rs runStats) {
	st := rs.stats
	fmt.Printf("--- Mode %s (seed=%d) ---\n", rs.mode, rs.seed)
	fmt.Printf("markers: first_commit=%d half_discovered=%d\n", rs.firstCommitTick, rs.halfCoverTick)
	fmt.Printf("scheduler: ticks=%d skipped=%d deferred=%d passes=%d/%d scans=%d commits=%d max_in_flight=%d\n",
		st.Ticks, st.SkippedTicks, st.DeferredTicks, st.PassesCompleted, st.PassesStarted, st.ObserverScans, st.Commits, st.MaxConcurrentPasses)
	fmt.Printf("coverage: discovered=%.1f%% visible=%.1f%% new_cells=%d generation=%d\n",
		rs.snapshot.DiscoveredPct, rs.snapshot.VisiblePct, st.NewCells, rs.snapshot.Generation)
	fmt.Printf("watch_events: enter=%d leave=%d\n", rs.watchEnter, rs.watchLeave)
	fmt.Printf("timing: wall=%s last_pass=%s\n", rs.elapsed.Round(time.Microsecond), st.LastPassDuration)
	if rs.windowSummary != nil {
		fmt.Print(rs.windowSummary.Format())
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	if len(all) < 2 {
		return
	}
	fmt.Println("=== Mode Comparison ===")
	fmt.Printf("  %-10s %8s %8s %8s %10s %12s\n", "mode", "commits", "scans", "deferred", "disc%", "wall")
	for _, rs := range all {
		fmt.Printf("  %-10s %8d %8d %8d %9.1f%% %12s\n",
			rs.mode, rs.stats.Commits, rs.stats.ObserverScans, rs.stats.DeferredTicks,
			rs.snapshot.DiscoveredPct, rs.elapsed.Round(time.Microsecond))
	}
	best := all[0]
	for _, rs := range all[1:] {
		if rs.stats.ObserverScans < best.stats.ObserverScans {
			best = rs
		}
	}
	fmt.Printf("fewest_scans=%s avg_commits_per_mode=%.1f\n", best.mode, avgCommits(all))
}

func avgCommits(all []runStats) float64 {
	if len(all) == 0 {
		return 0
	}
	sum := 0
	for _, rs := range all {
		sum += rs.stats.Commits
	}
	return float64(sum) / float64(len(all))
}

func writeSnapshot(path string, f *fog.Frame) error {
	if f == nil {
		return errors.New("snapshot: no committed frame")
	}
	out, err := os.Create(path) // #nosec G304 -- path from the command line
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := render.ExportPNG(out, f, 4); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
