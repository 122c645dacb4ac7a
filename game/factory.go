package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/xpbd"
)

// BuildGridTopology constructs a columns×rows cloth hanging in the xy
// plane: stretch constraints over the 4-neighborhood, optional shear
// (diagonal) and bending (skip-one) constraints, and a triangle list for
// the aerodynamic extension. This is the topology-provider role: the
// solver core never knows the cloth is a grid.
func BuildGridTopology(cc config.ClothConfig) xpbd.Topology {
	cols, rows := cc.Columns, cc.Rows
	spacing := float32(cc.Spacing)
	invMass := float32(1.0 / cc.Mass)
	idx := func(x, y int) int32 { return int32(y*cols + x) }

	particles := make([]xpbd.ParticleDef, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			inv := invMass
			if pinnedAt(cc, x, y) {
				inv = 0
			}
			particles = append(particles, xpbd.ParticleDef{
				RestPosition: mgl32.Vec3{float32(x) * spacing, -float32(y) * spacing, 0},
				InvMass:      inv,
			})
		}
	}

	stretch := float32(cc.Compliance)
	var constraints []xpbd.Constraint
	addEdge := func(a, b int32, length, compliance float32) {
		constraints = append(constraints, xpbd.Constraint{
			I0: a, I1: b, RestLength: length, Compliance: compliance,
		})
	}

	// Stretch: horizontal then vertical, in row-major order so batching is
	// reproducible across builds.
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if x+1 < cols {
				addEdge(idx(x, y), idx(x+1, y), spacing, stretch)
			}
			if y+1 < rows {
				addEdge(idx(x, y), idx(x, y+1), spacing, stretch)
			}
		}
	}

	if cc.ShearCompliance >= 0 {
		shear := float32(cc.ShearCompliance)
		diag := spacing * math32.Sqrt(2)
		for y := 0; y+1 < rows; y++ {
			for x := 0; x+1 < cols; x++ {
				addEdge(idx(x, y), idx(x+1, y+1), diag, shear)
				addEdge(idx(x+1, y), idx(x, y+1), diag, shear)
			}
		}
	}

	if cc.BendCompliance >= 0 {
		bend := float32(cc.BendCompliance)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if x+2 < cols {
					addEdge(idx(x, y), idx(x+2, y), 2*spacing, bend)
				}
				if y+2 < rows {
					addEdge(idx(x, y), idx(x, y+2), 2*spacing, bend)
				}
			}
		}
	}

	triangles := make([]int32, 0, (cols-1)*(rows-1)*6)
	for y := 0; y+1 < rows; y++ {
		for x := 0; x+1 < cols; x++ {
			triangles = append(triangles,
				idx(x, y), idx(x, y+1), idx(x+1, y),
				idx(x+1, y), idx(x, y+1), idx(x+1, y+1),
			)
		}
	}

	return xpbd.Topology{
		Particles:   particles,
		Constraints: constraints,
		Triangles:   triangles,
	}
}

func pinnedAt(cc config.ClothConfig, x, y int) bool {
	if y != 0 {
		return false
	}
	if cc.PinTopRow {
		return true
	}
	if cc.PinCorners {
		return x == 0 || x == cc.Columns-1
	}
	return false
}

// solverOptions maps config onto core options.
func solverOptions(cfg *config.Config, mode xpbd.StepMode) xpbd.Options {
	return xpbd.Options{
		Mode:             mode,
		StepsPerSecond:   cfg.Solver.StepsPerSecond,
		MaxStepsPerFrame: cfg.Solver.MaxStepsPerFrame,
		Thickness:        float32(cfg.Solver.Thickness),
		AtomicFallback:   cfg.Solver.AtomicFallback,
		Gravity: mgl32.Vec3{
			float32(cfg.Physics.GravityX),
			float32(cfg.Physics.GravityY),
			float32(cfg.Physics.GravityZ),
		},
		Wind: windParams(cfg),
	}
}

func windParams(cfg *config.Config) xpbd.WindParams {
	return xpbd.WindParams{
		Enabled: cfg.Wind.Enabled,
		Velocity: mgl32.Vec3{
			float32(cfg.Wind.VelocityX),
			float32(cfg.Wind.VelocityY),
			float32(cfg.Wind.VelocityZ),
		},
		Drag: float32(cfg.Wind.Drag),
		Lift: float32(cfg.Wind.Lift),
	}
}
