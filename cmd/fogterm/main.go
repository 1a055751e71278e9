package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/Fog-Sense/internal/config"
	"github.com/Garsondee/Fog-Sense/internal/logger"
	"github.com/Garsondee/Fog-Sense/internal/render"
	"github.com/Garsondee/Fog-Sense/internal/sim"
)

// viewer ties a harness to a terminal screen.
type viewer struct {
	h       *sim.Harness
	screen  tcell.Screen
	surface *render.TerminalSurface
	paused  bool
}

func newViewer(screen tcell.Screen, opts ...sim.Option) (*viewer, error) {
	h, err := sim.NewHarness(opts...)
	if err != nil {
		return nil, err
	}
	v := &viewer{h: h, screen: screen, surface: render.NewTerminalSurface(screen)}
	h.Engine.Map().Attach(v.surface)
	return v, nil
}

// step advances one tick unless paused and redraws.
func (v *viewer) step() {
	if !v.paused {
		v.h.RunTicks(1)
	}
	v.redraw()
}

func (v *viewer) redraw() {
	marks := make(map[[2]int]rune, len(v.h.Wanderers))
	for _, w := range v.h.Wanderers {
		o := w.Observer
		marks[[2]int{int(o.GridX + 0.5), int(o.GridY + 0.5)}] = '@'
	}
	v.surface.SetMarks(marks)

	snap := v.h.Snapshot()
	state := v.h.Engine.Mode().String()
	if v.paused {
		state += " PAUSED"
	}
	v.surface.SetStatus(fmt.Sprintf("%s t=%d gen=%d obs=%d disc=%.1f%% vis=%.1f%%  q quit, space pause, f force, n/x add/remove",
		state, snap.Tick, snap.Generation, len(snap.Wanderers), snap.DiscoveredPct, snap.VisiblePct))
	v.surface.Draw()
}

// handle applies one input event and reports whether to quit.
func (v *viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		v.redraw()
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Key() == tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case ' ':
				v.paused = !v.paused
			case 'f':
				v.h.Engine.ForceUpdate()
			case 'n':
				v.h.AddWanderer()
			case 'x':
				if n := len(v.h.Wanderers); n > 0 {
					v.h.RemoveWanderer(v.h.Wanderers[n-1].ID)
				}
			}
			v.redraw()
		}
	}
	return false
}

// run ticks at interval until a quit key arrives.
func (v *viewer) run(interval time.Duration) {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	v.redraw()
	for {
		select {
		case ev, ok := <-events:
			if !ok || v.handle(ev) {
				return
			}
		case <-ticker.C:
			v.step()
		}
	}
}

func main() {
	var configPath string
	var seed int64
	var logPath string

	flag.StringVar(&configPath, "config", "", "TOML settings file (defaults when empty)")
	flag.Int64Var(&seed, "seed", 0, "terrain and waypoint seed (config value when unset)")
	flag.StringVar(&logPath, "log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Terrain.Seed = seed
		}
	})

	var log logrus.FieldLogger = logger.Discard()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- path from the command line
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer f.Close()
		log = logger.NewWithOutput(cfg.Log.Level, cfg.Log.Format, f)
	}

	opts, err := sim.ConfigOptions(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	opts = append(opts, sim.WithLogger(log))

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	v, err := newViewer(screen, opts...)
	if err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	v.run(cfg.Interval())
	screen.Fini()
	v.h.Close()
}
