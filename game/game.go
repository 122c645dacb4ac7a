// Package game wires the cloth simulator into an interactive scene: it
// builds grid topologies from config, owns one simulator per scene entity,
// and drives stepping, telemetry, and rendering.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/telemetry"
	"github.com/pthm-cable/drape/ui"
	"github.com/pthm-cable/drape/xpbd"
)

// Options configures a game instance from the command line.
type Options struct {
	Headless       bool
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
}

// Game holds the complete viewer state.
type Game struct {
	cfg  *config.Config
	opts Options

	world       *ecs.World
	clothMapper *ecs.Map2[components.Transform, components.ClothSim]
	clothFilter *ecs.Filter2[components.Transform, components.ClothSim]

	perf   *telemetry.PerfCollector
	stats  *telemetry.StatsCollector
	output *telemetry.OutputManager

	camera rl.Camera3D
	panel  *ui.Panel

	wind xpbd.WindParams

	frame     int64
	paused    bool
	wireframe bool
	orbit     bool
}

// NewGame builds the scene from the loaded config.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()

	if opts.StatsWindowSec <= 0 {
		opts.StatsWindowSec = cfg.Telemetry.StatsWindow
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:         cfg,
		opts:        opts,
		world:       world,
		clothMapper: ecs.NewMap2[components.Transform, components.ClothSim](world),
		clothFilter: ecs.NewFilter2[components.Transform, components.ClothSim](world),
		perf:        telemetry.NewPerfCollector(cfg.Screen.TargetFPS),
		stats:       telemetry.NewStatsCollector(opts.StatsWindowSec),
		wind:        windParams(cfg),
	}

	if !opts.Headless {
		g.camera = sceneCamera(cfg)
		g.panel = ui.NewPanel(cfg)
	}

	if err := g.spawnCloths(); err != nil {
		return nil, err
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		return nil, err
	}

	return g, nil
}

// spawnCloths creates one entity per cloth instance, laid out along x.
func (g *Game) spawnCloths() error {
	mode := xpbd.ModeAutomatic
	if g.opts.Headless {
		mode = xpbd.ModeManual
	}

	topo := BuildGridTopology(g.cfg.Cloth)
	width := float32(g.cfg.Cloth.Columns-1) * g.cfg.Derived.Spacing32

	for i := 0; i < g.cfg.Scene.ClothCount; i++ {
		sim, err := xpbd.New(topo, solverOptions(g.cfg, mode))
		if err != nil {
			return fmt.Errorf("building cloth %d: %w", i, err)
		}
		transform := components.Transform{
			Offset: mgl32.Vec3{float32(i) * (width + g.cfg.Derived.Gap32), 0, 0},
		}
		cloth := components.ClothSim{
			Sim:   sim,
			Label: fmt.Sprintf("cloth-%d", i),
		}
		g.clothMapper.NewEntity(&transform, &cloth)
	}

	slog.Info("scene built",
		"cloths", g.cfg.Scene.ClothCount,
		"particles_each", len(topo.Particles),
		"constraints_each", len(topo.Constraints),
	)
	return nil
}

// sceneCamera frames the first cloth from the front.
func sceneCamera(cfg *config.Config) rl.Camera3D {
	width := float32(cfg.Cloth.Columns-1) * cfg.Derived.Spacing32
	height := float32(cfg.Cloth.Rows-1) * cfg.Derived.Spacing32
	target := rl.Vector3{X: width / 2, Y: -height / 2, Z: 0}
	return rl.Camera3D{
		Position:   rl.Vector3{X: target.X, Y: target.Y + height*0.3, Z: width*1.5 + height},
		Target:     target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

// Reset rebuilds every cloth from the configured rest topology.
func (g *Game) Reset() {
	topo := BuildGridTopology(g.cfg.Cloth)
	query := g.clothFilter.Query()
	for query.Next() {
		_, cloth := query.Get()
		if err := cloth.Sim.Notify(xpbd.Change{Kind: xpbd.TopologyChanged, Topology: &topo}); err != nil {
			slog.Error("cloth reset failed", "label", cloth.Label, "error", err)
		}
		cloth.Substeps = 0
		cloth.Residual = 0
	}
	g.stats = telemetry.NewStatsCollector(g.opts.StatsWindowSec)
	slog.Info("scene reset")
}

// Frame returns the number of frames advanced so far.
func (g *Game) Frame() int64 { return g.frame }

// Paused reports whether stepping is suspended.
func (g *Game) Paused() bool { return g.paused }

// Unload closes every simulator and flushes output files.
func (g *Game) Unload() {
	query := g.clothFilter.Query()
	for query.Next() {
		_, cloth := query.Get()
		cloth.Sim.Close()
	}
	if err := g.output.Close(); err != nil {
		slog.Error("closing output", "error", err)
	}
}
