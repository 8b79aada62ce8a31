package lumen

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// TelemetryHUD is a small overlay showing FPS, TPS, quality tier, and the
// last frame's pass count. Refreshes its backing image every ~0.5 seconds.
type TelemetryHUD struct {
	img        *ebiten.Image
	lastUpdate float64
	telemetry  Telemetry
	passes     int
}

// NewTelemetryHUD creates the overlay widget.
func NewTelemetryHUD() *TelemetryHUD {
	// 140x48 fits "FPS: 60.0 / avg 59.8\nTPS: 60.0\ntier: high  passes: 4"
	return &TelemetryHUD{img: ebiten.NewImage(140, 48)}
}

// Observe feeds the latest telemetry and frame report into the HUD.
// Wire it to AdaptiveQualityController.SetTelemetryFunc and the compositor's
// Report.
func (h *TelemetryHUD) Observe(t Telemetry, report FrameReport) {
	h.telemetry = t
	h.passes = len(report.Passes)
}

// Update advances the refresh timer; call once per tick.
func (h *TelemetryHUD) Update(dt float64) {
	h.lastUpdate += dt
	if h.lastUpdate < 0.5 {
		return
	}
	h.lastUpdate = 0

	h.img.Clear()
	// Semi-transparent background for readability
	h.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(h.img, fmt.Sprintf(
		"FPS: %.1f / avg %.1f\nTPS: %.1f\ntier: %s  passes: %d",
		h.telemetry.FPSCurrent, h.telemetry.FPSAverage,
		ebiten.ActualTPS(), h.telemetry.QualityTier, h.passes))
}

// Draw blits the overlay to the top-left of the screen.
func (h *TelemetryHUD) Draw(screen *ebiten.Image) {
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(4, 4)
	screen.DrawImage(h.img, &op)
}
