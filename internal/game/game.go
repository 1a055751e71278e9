// Package game is an ebiten viewer for the visibility engine: shaded
// terrain under a fog overlay built from the committed masks, wandering
// observers, a HUD and a scheduler event log.
package game

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/Fog-Sense/internal/config"
	"github.com/Garsondee/Fog-Sense/internal/fog"
	"github.com/Garsondee/Fog-Sense/internal/render"
	"github.com/Garsondee/Fog-Sense/internal/sim"
)

// borderWidth is the pixel gap between the window edge and the map view.
const borderWidth = 24

// hudScale is the integer upscale factor applied to all HUD text.
const hudScale = 2

// Map viewport size in screen pixels.
const (
	viewWidth  = 960
	viewHeight = 720
)

const reportEntries = 40

type Game struct {
	width      int
	height     int
	gameWidth  int // viewport width (log panel takes the rest)
	gameHeight int
	offX       int
	offY       int

	cellPx int // screen pixels per grid cell at zoom 1
	worldW int
	worldH int

	harness   *sim.Harness
	seed      int64
	overlay   *FogOverlay
	events    *EventLog
	logCursor int

	showHUD bool

	terrainImg *ebiten.Image
	worldBuf   *ebiten.Image
	hudBuf     *ebiten.Image

	camX    float64
	camY    float64
	camZoom float64

	simSpeed float64 // 0 = paused
}

// New builds the simulation from cfg and prepares the render buffers.
func New(cfg config.Config, log logrus.FieldLogger) (*Game, error) {
	opts, err := sim.ConfigOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	opts = append(opts, sim.WithLogger(log), sim.WithReportEvery(30))
	h, err := sim.NewHarness(opts...)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}

	cols, rows := h.HF.Cols(), h.HF.Rows()
	cellPx := fitCellSize(cols, rows)
	g := &Game{
		width:      borderWidth + viewWidth + borderWidth + logPanelWidth,
		height:     borderWidth + viewHeight + borderWidth,
		gameWidth:  viewWidth,
		gameHeight: viewHeight,
		offX:       borderWidth,
		offY:       borderWidth,
		cellPx:     cellPx,
		worldW:     cols * cellPx,
		worldH:     rows * cellPx,
		harness:    h,
		seed:       cfg.Terrain.Seed,
		overlay:    NewFogOverlay(cols, rows),
		events:     NewEventLog(),
		showHUD:    true,
		camZoom:    1,
		simSpeed:   1,
	}
	h.Engine.Map().Attach(g.overlay)

	g.terrainImg = ebiten.NewImageFromImage(render.TerrainImage(h.HF))
	g.worldBuf = ebiten.NewImage(g.worldW, g.worldH)
	g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	g.camX = float64(g.worldW) / 2
	g.camY = float64(g.worldH) / 2

	g.drainPassLog()
	return g, nil
}

// fitCellSize picks the largest whole pixel size per cell that fits the
// grid into the viewport, within [1, 8].
func fitCellSize(cols, rows int) int {
	px := min(viewWidth/max(cols, 1), viewHeight/max(rows, 1))
	return min(max(px, 1), 8)
}

// Close stops the engine. Call after ebiten.RunGame returns.
func (g *Game) Close() {
	g.harness.Close()
}

func (g *Game) Update() error {
	g.handleInput()

	if g.simSpeed <= 0 {
		return nil
	}
	g.harness.Advance(frameTime(ebiten.TPS(), g.simSpeed))
	g.drainPassLog()
	return nil
}

// drainPassLog moves new pass log entries into the on-screen log.
func (g *Game) drainPassLog() {
	entries := g.harness.PassLog.Since(g.logCursor)
	g.logCursor += len(entries)
	for _, e := range entries {
		g.events.Add(e)
	}
}

func (g *Game) handleInput() {
	tick := g.harness.CurrentTick()

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.harness.Engine.ForceUpdate()
		g.events.Note(tick, "forced update")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.harness.AddWanderer()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		if n := len(g.harness.Wanderers); n > 0 {
			g.harness.RemoveWanderer(g.harness.Wanderers[n-1].ID)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := copyReport(debugReport(g.harness, g.seed, reportEntries)); err != nil {
			g.events.Note(tick, "clipboard: "+err.Error())
		} else {
			g.events.Note(tick, "debug report copied")
		}
	}

	// Camera pan: WASD or arrow keys.
	panSpeed := 6.0 / g.camZoom
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.camY -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.camY += panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.camX -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.camX += panSpeed
	}

	const zoomMin, zoomMax = 0.5, 4.0
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.camZoom *= math.Pow(1.12, wy)
	}
	g.camZoom = math.Min(math.Max(g.camZoom, zoomMin), zoomMax)

	g.camX = clampAxis(g.camX, float64(g.gameWidth)/2/g.camZoom, float64(g.worldW))
	g.camY = clampAxis(g.camY, float64(g.gameHeight)/2/g.camZoom, float64(g.worldH))

	// Sim speed: P pauses, comma and period step through speeds.
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		g.simSpeed = stepSpeed(g.simSpeed, -1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		g.simSpeed = stepSpeed(g.simSpeed, 1)
	}
}

// frameTime is the simulated time one Update covers at the given speed.
func frameTime(tps int, speed float64) time.Duration {
	if tps <= 0 || speed <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(tps) * speed)
}

var speeds = []float64{0, 0.25, 0.5, 1, 2, 4}

// stepSpeed moves one entry up or down the speed table from cur.
func stepSpeed(cur float64, dir int) float64 {
	i := 0
	for i < len(speeds)-1 && speeds[i] < cur {
		i++
	}
	i = min(max(i+dir, 0), len(speeds)-1)
	return speeds[i]
}

// clampAxis keeps a camera centre c within [half, size-half], centring
// it when the view is wider than the world.
func clampAxis(c, half, size float64) float64 {
	if 2*half >= size {
		return size / 2
	}
	return math.Min(math.Max(c, half), size-half)
}

// cellToPixel maps a fractional grid position to world buffer pixels.
// Grid row 0 is the bottom row of the buffer.
func cellToPixel(gx, gy float64, rows, cellPx int) (float32, float32) {
	px := (gx + 0.5) * float64(cellPx)
	py := (float64(rows) - 1 - gy + 0.5) * float64(cellPx)
	return float32(px), float32(py)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 10, G: 12, B: 16, A: 255})

	g.worldBuf.Clear()
	g.drawWorld(g.worldBuf)

	var blit ebiten.DrawImageOptions
	blit.GeoM.Translate(-g.camX, -g.camY)
	blit.GeoM.Scale(g.camZoom, g.camZoom)
	blit.GeoM.Translate(float64(g.gameWidth)/2, float64(g.gameHeight)/2)
	blit.GeoM.Translate(float64(g.offX), float64(g.offY))
	view := screen.SubImage(image.Rect(g.offX, g.offY, g.offX+g.gameWidth, g.offY+g.gameHeight)).(*ebiten.Image)
	view.DrawImage(g.worldBuf, &blit)

	ox, oy := float32(g.offX), float32(g.offY)
	gw, gh := float32(g.gameWidth), float32(g.gameHeight)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, color.RGBA{R: 60, G: 75, B: 100, A: 255}, false)

	logX := g.offX + g.gameWidth + g.offX
	g.events.Draw(screen, logX, g.height)

	if g.showHUD {
		g.drawHUD(screen)
	}
	if g.camZoom != 1.0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("zoom: %.1fx", g.camZoom), g.offX+6, g.offY+6)
	}
}

func (g *Game) drawWorld(dst *ebiten.Image) {
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(g.cellPx), float64(g.cellPx))
	dst.DrawImage(g.terrainImg, &op)
	dst.DrawImage(g.overlay.Image(), &op)

	hf := g.harness.HF
	rows := hf.Rows()
	for _, w := range g.harness.Wanderers {
		o := w.Observer
		px, py := cellToPixel(o.GridX, o.GridY, rows, g.cellPx)
		radiusPx := float32(o.GridViewRadius) * float32(g.cellPx)
		vector.StrokeCircle(dst, px, py, radiusPx, 1, color.RGBA{R: 255, G: 230, B: 120, A: 60}, true)
		vector.FillCircle(dst, px, py, float32(max(g.cellPx, 3)), color.RGBA{R: 250, G: 200, B: 60, A: 255}, true)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	speedStr := fmt.Sprintf("%gx", g.simSpeed)
	if g.simSpeed == 0 {
		speedStr = "PAUSED"
	}
	snap := g.harness.Snapshot()
	st := snap.Stats

	lines := []string{
		fmt.Sprintf("SIM: %s  P=pause  ,/. speed", speedStr),
		fmt.Sprintf("Mode: %s  tick %d  gen %d", g.harness.Engine.Mode(), snap.Tick, snap.Generation),
		fmt.Sprintf("Observers: %d  disc %.1f%%  vis %.1f%%", len(snap.Wanderers), snap.DiscoveredPct, snap.VisiblePct),
		fmt.Sprintf("Commits %d  passes %d/%d  deferred %d", st.Commits, st.PassesCompleted, st.PassesStarted, st.DeferredTicks),
		fmt.Sprintf("Last pass %s  state %s", st.LastPassDuration, g.harness.Engine.State()),
		"N=add  X=remove  F=force  C=copy report",
		"[H] toggle HUD",
		"WASD/arrows=pan  scroll=zoom",
	}

	const lineH = 12
	const charW = 6
	const padX = 5
	const padY = 4

	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bufH := float32(g.height / hudScale)
	bx := float32(4)
	by := bufH - boxH - 4

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 6, G: 8, B: 12, A: 210}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 80, B: 110, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(g.hudBuf, line, int(bx)+padX, int(by)+padY+i*lineH)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(hudScale), float64(hudScale))
	screen.DrawImage(g.hudBuf, opts)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Harness exposes the simulation driving the view.
func (g *Game) Harness() *sim.Harness {
	return g.harness
}

// Overlay exposes the fog surface attached to the engine.
func (g *Game) Overlay() *FogOverlay {
	return g.overlay
}

var _ fog.Surface = (*FogOverlay)(nil)
