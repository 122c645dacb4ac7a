package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/renderer"
	"github.com/pthm-cable/drape/ui"
)

// Draw renders the scene, HUD, and control panel, then closes the current
// perf tick.
func (g *Game) Draw() {
	renderStart := time.Now()

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(18, 18, 26, 255))

	rl.BeginMode3D(g.camera)
	rl.DrawGrid(24, 1)
	query := g.clothFilter.Query()
	for query.Next() {
		transform, cloth := query.Get()
		renderer.DrawCloth(cloth.Sim, transform.Offset, g.wireframe)
	}
	rl.EndMode3D()

	g.drawHUD()
	g.drawPanel()

	rl.EndDrawing()

	g.endRenderTick(time.Since(renderStart))
}

func (g *Game) drawHUD() {
	info := ui.HUDInfo{
		Paused:    g.paused,
		Wind:      g.wind.Enabled,
		Wireframe: g.wireframe,
	}
	query := g.clothFilter.Query()
	for query.Next() {
		_, cloth := query.Get()
		info.Cloths++
		info.Particles += cloth.Sim.ParticleCount()
		info.Constraints += len(cloth.Sim.Constraints())
		if cloth.Sim.BatchCount() > info.Batches {
			info.Batches = cloth.Sim.BatchCount()
		}
		info.Substeps += cloth.Substeps
		if cloth.Residual > info.Residual {
			info.Residual = cloth.Residual
		}
	}
	ui.DrawHUD(info)
}

func (g *Game) drawPanel() {
	if !g.panel.Visible {
		return
	}

	result := g.panel.Draw(g.wind.Enabled)

	if result.RateChanged {
		g.setStepRate(float64(g.panel.StepsPerSecond))
	}
	if result.ComplianceChanged {
		g.cfg.Cloth.Compliance = float64(g.panel.Compliance)
		g.Reset()
	}
	if result.ToggleWind {
		g.wind.Enabled = !g.wind.Enabled
	}
	if result.WindChanged || result.ToggleWind {
		g.wind.Velocity[0] = g.panel.WindSpeed
		g.wind.Drag = g.panel.WindDrag
		g.wind.Lift = g.panel.WindLift
		g.applyWind()
	}
	if result.Reset {
		g.Reset()
	}
}
