// Package ui draws the HUD and the control panel.
package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDInfo is the per-frame scene summary shown in the corner.
type HUDInfo struct {
	Cloths      int
	Particles   int
	Constraints int
	Batches     int
	Substeps    int
	Residual    float32

	Paused    bool
	Wind      bool
	Wireframe bool
}

// DrawHUD draws the stats block and key hints.
func DrawHUD(info HUDInfo) {
	rl.DrawFPS(10, 10)

	y := int32(35)
	line := func(text string, color rl.Color) {
		rl.DrawText(text, 10, y, 20, color)
		y += 25
	}

	line(fmt.Sprintf("Cloths: %d  Particles: %d", info.Cloths, info.Particles), rl.RayWhite)
	line(fmt.Sprintf("Constraints: %d  Batches: %d", info.Constraints, info.Batches), rl.RayWhite)
	line(fmt.Sprintf("Substeps: %d  Residual: %.5f", info.Substeps, info.Residual), rl.RayWhite)

	state := "wind off"
	stateColor := rl.Gray
	if info.Wind {
		state = "wind on"
		stateColor = rl.SkyBlue
	}
	line(state, stateColor)

	if info.Paused {
		line("PAUSED", rl.Yellow)
	}

	rl.DrawText("space pause | r reset | w wind | f wires | o orbit | tab panel",
		10, int32(rl.GetScreenHeight())-30, 16, rl.Gray)
}
