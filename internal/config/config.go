// Package config loads the TOML settings shared by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full settings file.
type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Terrain   TerrainConfig   `toml:"terrain"`
	Observers ObserversConfig `toml:"observers"`
	Stream    StreamConfig    `toml:"stream"`
	Log       LogConfig       `toml:"log"`
}

// EngineConfig selects the scheduling behaviour.
type EngineConfig struct {
	Mode         string `toml:"mode"`
	IntervalMS   int    `toml:"interval_ms"`
	UpdateSpread int    `toml:"update_spread"`
	Workers      int    `toml:"workers"`
	SeamFill     bool   `toml:"seam_fill"`
}

// TerrainConfig describes the heightfield. When Heightmap is set the image
// is loaded and Cols, Rows, Seed and Octaves are ignored.
type TerrainConfig struct {
	Cols      int     `toml:"cols"`
	Rows      int     `toml:"rows"`
	Seed      int64   `toml:"seed"`
	Octaves   int     `toml:"octaves"`
	Relief    float64 `toml:"relief"`
	Heightmap string  `toml:"heightmap"`

	WorldWidth  float64 `toml:"world_width"`
	WorldDepth  float64 `toml:"world_depth"`
	WorldHeight float64 `toml:"world_height"`
}

// ObserversConfig parameterises the simulated observers.
type ObserversConfig struct {
	Count      int     `toml:"count"`
	ViewRadius float64 `toml:"view_radius"` // world units
	EyeHeight  float64 `toml:"eye_height"`  // world units above the ground
	Speed      float64 `toml:"speed"`       // world units per tick
}

// StreamConfig configures the websocket frame stream.
type StreamConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Mode:         fog.ModeSynchronous.String(),
			IntervalMS:   int(fog.DefaultUpdateInterval / time.Millisecond),
			UpdateSpread: fog.DefaultUpdateSpread,
			Workers:      1,
			SeamFill:     true,
		},
		Terrain: TerrainConfig{
			Cols:        128,
			Rows:        128,
			Seed:        42,
			Octaves:     4,
			Relief:      1,
			WorldWidth:  256,
			WorldDepth:  256,
			WorldHeight: 24,
		},
		Observers: ObserversConfig{
			Count:      6,
			ViewRadius: 40,
			EyeHeight:  2,
			Speed:      1.5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates a settings file. Keys absent from the file keep
// their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML on top of Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys %s: %w", strings.Join(keys, ", "), ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem wrapped in
// ErrInvalid.
func (c Config) Validate() error {
	if _, err := fog.ParseMode(c.Engine.Mode); err != nil {
		return fmt.Errorf("engine.mode %q: %w", c.Engine.Mode, ErrInvalid)
	}
	switch {
	case c.Engine.IntervalMS <= 0:
		return invalid("engine.interval_ms", c.Engine.IntervalMS)
	case c.Engine.UpdateSpread < 1:
		return invalid("engine.update_spread", c.Engine.UpdateSpread)
	case c.Engine.Workers < 1:
		return invalid("engine.workers", c.Engine.Workers)
	case c.Terrain.Heightmap == "" && (c.Terrain.Cols < 1 || c.Terrain.Rows < 1):
		return invalid("terrain.cols/rows", fmt.Sprintf("%dx%d", c.Terrain.Cols, c.Terrain.Rows))
	case c.Terrain.Octaves < 0:
		return invalid("terrain.octaves", c.Terrain.Octaves)
	case c.Terrain.Relief < 0:
		return invalid("terrain.relief", c.Terrain.Relief)
	case c.Terrain.WorldWidth <= 0 || c.Terrain.WorldDepth <= 0:
		return invalid("terrain.world_width/world_depth", fmt.Sprintf("%gx%g", c.Terrain.WorldWidth, c.Terrain.WorldDepth))
	case c.Terrain.WorldHeight < 0:
		return invalid("terrain.world_height", c.Terrain.WorldHeight)
	case c.Observers.Count < 0:
		return invalid("observers.count", c.Observers.Count)
	case c.Observers.ViewRadius < 0:
		return invalid("observers.view_radius", c.Observers.ViewRadius)
	case c.Observers.Speed < 0:
		return invalid("observers.speed", c.Observers.Speed)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return invalid("log.format", c.Log.Format)
	}
	return nil
}

func invalid(field string, v any) error {
	return fmt.Errorf("%s = %v: %w", field, v, ErrInvalid)
}

// Mode returns the parsed scheduling mode.
func (c Config) Mode() fog.Mode {
	m, err := fog.ParseMode(c.Engine.Mode)
	if err != nil {
		return fog.ModeSynchronous
	}
	return m
}

// Interval returns the tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Engine.IntervalMS) * time.Millisecond
}

// WorldSize returns the terrain's world extent.
func (c TerrainConfig) WorldSize() fog.Vec3 {
	return fog.Vec3{X: c.WorldWidth, Y: c.WorldHeight, Z: c.WorldDepth}
}

// EngineOptions translates the engine section into fog options. Callers add
// their own logger and surfaces.
func (c Config) EngineOptions() []fog.Option {
	return []fog.Option{
		fog.WithMode(c.Mode()),
		fog.WithUpdateInterval(c.Interval()),
		fog.WithUpdateSpread(c.Engine.UpdateSpread),
		fog.WithWorkers(c.Engine.Workers),
		fog.WithSeamFill(c.Engine.SeamFill),
	}
}
