package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParse_OverridesKeepDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[engine]
mode = "background"
workers = 3

[observers]
count = 12
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode() != fog.ModeBackground || cfg.Engine.Workers != 3 || cfg.Observers.Count != 12 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Terrain.Cols != Default().Terrain.Cols || cfg.Interval() != fog.DefaultUpdateInterval {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestParse_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"mode":     "[engine]\nmode = \"sometimes\"\n",
		"interval": "[engine]\ninterval_ms = 0\n",
		"negative": "[engine]\ninterval_ms = -50\n",
		"spread":   "[engine]\nupdate_spread = 0\n",
		"workers":  "[engine]\nworkers = -1\n",
		"grid":     "[terrain]\ncols = 0\n",
		"world":    "[terrain]\nworld_width = 0.0\n",
		"radius":   "[observers]\nview_radius = -4.0\n",
		"format":   "[log]\nformat = \"xml\"\n",
		"unknown":  "[engine]\nturbo = true\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: got %v, want ErrInvalid", name, err)
		}
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte("[engine\nmode ="))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("syntax error = %v", err)
	}
}

func TestParse_HeightmapSkipsGridCheck(t *testing.T) {
	cfg, err := Parse([]byte("[terrain]\ncols = 0\nrows = 0\nheightmap = \"hills.png\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Terrain.Heightmap != "hills.png" {
		t.Fatalf("heightmap = %q", cfg.Terrain.Heightmap)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fog.toml")
	if err := os.WriteFile(path, []byte("[engine]\ninterval_ms = 250\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Interval() != 250*time.Millisecond {
		t.Fatalf("interval = %v", cfg.Interval())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: got %v", err)
	}
}

func TestEngineOptions_BuildEngine(t *testing.T) {
	cfg := Default()
	cfg.Engine.Mode = "amortized"
	cfg.Engine.UpdateSpread = 3
	hf, _ := fog.FlatHeightField(8, 8, 0)
	e, err := fog.NewEngine(hf, cfg.EngineOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if e.Mode() != fog.ModeAmortized {
		t.Fatalf("mode = %v", e.Mode())
	}
}
