package game

import (
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/telemetry"
	"github.com/pthm-cable/drape/xpbd"
)

// Update advances every cloth by the real frame time. Rendering happens in
// Draw, which also closes the perf tick.
func (g *Game) Update() {
	g.handleInput()
	g.perf.RecordFrame()
	g.perf.StartTick()

	if g.paused {
		return
	}

	dt := float64(rl.GetFrameTime())
	if dt <= 0 {
		return
	}
	g.advance(dt, func(c *components.ClothSim) (xpbd.StepReport, error) {
		return c.Sim.Step(dt)
	})
}

// UpdateHeadless advances every cloth by a fixed dt with no renderer in the
// loop. One call is one frame.
func (g *Game) UpdateHeadless(dt float64) {
	g.perf.StartTick()
	g.advance(dt, func(c *components.ClothSim) (xpbd.StepReport, error) {
		return c.Sim.StepManual(dt)
	})
	g.perf.EndTick()
	g.flushTelemetry()
}

// advance steps each cloth, feeds phase timings to the perf collector, and
// records one stats sample for the whole frame. The residual recorded is
// the worst across instances.
func (g *Game) advance(dt float64, step func(*components.ClothSim) (xpbd.StepReport, error)) {
	totalSubsteps := 0
	var worstResidual float32

	query := g.clothFilter.Query()
	for query.Next() {
		_, cloth := query.Get()
		report, err := step(cloth)
		if err != nil {
			slog.Error("cloth step failed", "label", cloth.Label, "error", err)
			continue
		}

		cloth.Substeps = report.Substeps
		cloth.Residual = report.Residual
		totalSubsteps += report.Substeps
		if report.Residual > worstResidual {
			worstResidual = report.Residual
		}

		g.perf.AddPhase(telemetry.PhaseWind, report.WindTime)
		g.perf.AddPhase(telemetry.PhaseIntegrate, report.IntegrateTime)
		g.perf.AddPhase(telemetry.PhaseSolve, report.SolveTime)
		g.perf.AddPhase(telemetry.PhaseFinalize, report.FinalizeTime)
	}

	g.stats.Record(dt, totalSubsteps, float64(worstResidual))
	g.frame++
}

// flushTelemetry emits window stats when a window completes and perf stats
// on the configured cadence.
func (g *Game) flushTelemetry() {
	if g.stats.Ready() {
		ws := g.stats.Flush(g.frame)
		if g.opts.LogStats {
			ws.LogStats()
		}
		if err := g.output.WriteSteps(ws); err != nil {
			slog.Error("writing stats", "error", err)
		}
	}

	every := g.cfg.Telemetry.LogEvery
	if every > 0 && g.frame > 0 && g.frame%int64(every) == 0 {
		ps := g.perf.Stats()
		if g.opts.LogStats {
			ps.LogStats()
		}
		if err := g.output.WritePerf(ps, g.frame); err != nil {
			slog.Error("writing perf", "error", err)
		}
	}
}

// applyWind pushes the game's current wind parameters to every cloth.
func (g *Game) applyWind() {
	query := g.clothFilter.Query()
	for query.Next() {
		_, cloth := query.Get()
		if err := cloth.Sim.Notify(xpbd.Change{Kind: xpbd.WindChanged, Wind: g.wind}); err != nil {
			slog.Error("wind update failed", "label", cloth.Label, "error", err)
		}
	}
}

// setStepRate pushes a new substep rate to every cloth.
func (g *Game) setStepRate(stepsPerSecond float64) {
	query := g.clothFilter.Query()
	for query.Next() {
		_, cloth := query.Get()
		cloth.Sim.SetStepRate(stepsPerSecond)
	}
}

// endRenderTick is called by Draw after rendering so the render phase lands
// in the same perf tick as the simulation phases.
func (g *Game) endRenderTick(renderTime time.Duration) {
	g.perf.AddPhase(telemetry.PhaseRender, renderTime)
	g.perf.EndTick()
	g.flushTelemetry()
}
