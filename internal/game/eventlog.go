package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 11
)

// categoryColors tints the marker dot of each pass log category.
var categoryColors = map[string]color.RGBA{
	"commit":   {R: 90, G: 200, B: 110, A: 255},
	"pass":     {R: 90, G: 140, B: 220, A: 255},
	"defer":    {R: 230, G: 170, B: 60, A: 255},
	"registry": {R: 200, G: 110, B: 220, A: 255},
	"watch":    {R: 220, G: 80, B: 80, A: 255},
}

// EventLog is a ring buffer of scheduler events rendered on-screen.
type EventLog struct {
	entries []fog.PassLogEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{
		entries: make([]fog.PassLogEntry, logMaxEntries),
	}
}

// Add appends an entry, overwriting the oldest once full.
func (el *EventLog) Add(e fog.PassLogEntry) {
	el.entries[el.head] = e
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Note adds a free-form line under the "ui" category.
func (el *EventLog) Note(tick int, msg string) {
	el.Add(fog.PassLogEntry{Tick: tick, Category: "ui", Value: msg})
}

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []fog.PassLogEntry {
	result := make([]fog.PassLogEntry, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

// Draw renders the log panel at panelX, newest entry at the bottom.
func (el *EventLog) Draw(screen *ebiten.Image, panelX int, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 80, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 20, G: 26, B: 36, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "SCHEDULER LOG", panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 50, G: 70, B: 100, A: 200}, false)

	entries := el.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const recent = 3

	y := 20
	for i, e := range entries {
		if i >= len(entries)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 30, G: 36, B: 48, A: 160}, false)
		}
		dot, ok := categoryColors[e.Category]
		if !ok {
			dot = color.RGBA{R: 160, G: 160, B: 160, A: 255}
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, dot, false)
		ebitenutil.DebugPrintAt(screen, logLine(e), panelX+12, y)
		y += logLineHeight
	}
}

// logLine formats an entry to fit the panel.
func logLine(e fog.PassLogEntry) string {
	line := fmt.Sprintf("%4d %s %s %s", e.Tick, e.Category, e.Key, e.Value)
	const maxChars = (logPanelWidth - 16) / 6
	if len(line) > maxChars {
		line = line[:maxChars-1] + "~"
	}
	return line
}
