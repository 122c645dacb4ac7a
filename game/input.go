package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard input for the graphical viewer.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
	}
	if rl.IsKeyPressed(rl.KeyW) {
		g.wind.Enabled = !g.wind.Enabled
		g.applyWind()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		g.wireframe = !g.wireframe
	}
	if rl.IsKeyPressed(rl.KeyO) {
		g.orbit = !g.orbit
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.panel.Visible = !g.panel.Visible
	}

	if g.orbit {
		rl.UpdateCamera(&g.camera, rl.CameraOrbital)
	}
}
