package sim

import (
	"fmt"

	"github.com/Garsondee/Fog-Sense/internal/config"
	"github.com/Garsondee/Fog-Sense/internal/fog"
	"github.com/Garsondee/Fog-Sense/internal/terrain"
)

// BuildTerrain loads the configured heightmap, or generates noise terrain
// when none is set.
func BuildTerrain(tc config.TerrainConfig) (*fog.HeightField, error) {
	if tc.Heightmap != "" {
		hf, err := terrain.LoadHeightmap(tc.Heightmap, fog.Vec3{}, tc.WorldSize())
		if err != nil {
			return nil, fmt.Errorf("build terrain: %w", err)
		}
		return hf, nil
	}
	hf, err := terrain.Generate(terrain.Params{
		Cols:    tc.Cols,
		Rows:    tc.Rows,
		Seed:    tc.Seed,
		Octaves: tc.Octaves,
		Relief:  tc.Relief,
		Size:    tc.WorldSize(),
	})
	if err != nil {
		return nil, fmt.Errorf("build terrain: %w", err)
	}
	return hf, nil
}

// ConfigOptions translates a settings file into harness options. Terrain is
// built eagerly so load errors surface here.
func ConfigOptions(cfg config.Config) ([]Option, error) {
	hf, err := BuildTerrain(cfg.Terrain)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithTerrain(hf),
		WithSeed(cfg.Terrain.Seed),
		WithEngineOptions(cfg.EngineOptions()...),
		WithViewRadius(cfg.Observers.ViewRadius),
		WithEyeHeight(cfg.Observers.EyeHeight),
		WithSpeed(cfg.Observers.Speed),
		WithWanderers(cfg.Observers.Count),
	}, nil
}
