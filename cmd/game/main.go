package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Fog-Sense/internal/config"
	"github.com/Garsondee/Fog-Sense/internal/game"
	"github.com/Garsondee/Fog-Sense/internal/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "TOML settings file (defaults when empty)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}

	g, err := game.New(cfg, logger.New(cfg.Log.Level, cfg.Log.Format))
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowTitle("Fog Sense")
	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
