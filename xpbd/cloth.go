// Package xpbd simulates deformable cloth with Extended Position-Based
// Dynamics: particles connected by distance constraints are integrated
// forward and iteratively relaxed toward rest length, one relaxation pass
// per particle-disjoint batch per substep. Batches run on a worker pool
// with a full join between them; an optional atomic compare-and-swap path
// replaces batching for topologies where batching is not wanted.
package xpbd

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxParticles is the hard particle cap per cloth. Builds above it are
// truncated with a warning.
const MaxParticles = 1 << 20

// ParticleDef is the provider-supplied description of one particle.
// InvMass 0 pins the particle: it never moves under integration or
// constraint correction.
type ParticleDef struct {
	RestPosition mgl32.Vec3
	InvMass      float32
}

// Topology is everything the external provider supplies: particles,
// distance constraints, an optional triangle list for the aerodynamic
// extension, and the quantization bounds. A zero Bounds is derived from
// the rest positions with fall room below.
type Topology struct {
	Particles   []ParticleDef
	Constraints []Constraint
	Triangles   []int32
	Bounds      Bounds
}

// Options configures a cloth at creation time.
type Options struct {
	Mode             StepMode
	StepsPerSecond   float64 // substep rate, clamped to [1,1000]; default 240
	MaxStepsPerFrame int     // substep cap per frame, clamped to [1,1000]; default 8
	Gravity          mgl32.Vec3
	Thickness        float32 // >0 clamps per-substep travel to this distance
	AtomicFallback   bool    // solve through CAS on packed positions instead of batches
	Wind             WindParams
}

// ChangeKind tags an explicit change notification.
type ChangeKind int

const (
	TopologyChanged ChangeKind = iota
	GravityChanged
	WindChanged
)

// Change carries one notification. Only the field matching Kind is read.
type Change struct {
	Kind     ChangeKind
	Topology *Topology
	Gravity  mgl32.Vec3
	Wind     WindParams
}

// StepReport summarizes one advance call for telemetry.
type StepReport struct {
	Substeps int
	StepDT   float32
	Residual float32 // max |length - rest| after the last substep

	WindTime      time.Duration
	IntegrateTime time.Duration
	SolveTime     time.Duration
	FinalizeTime  time.Duration
}

// Cloth is one simulator instance. All state is owned here: no globals, so
// independent cloths coexist freely. A substep is atomic from the caller's
// point of view; accessors never observe a partially applied substep.
type Cloth struct {
	mu    sync.Mutex
	opts  Options
	sched *scheduler
	pool  *workerPool

	generation  uint64
	bounds      Bounds
	constraints []Constraint
	triangles   []int32
	batches     [][]int32
	fans        faceFans

	pos        []mgl32.Vec3
	prev       []mgl32.Vec3
	vel        []mgl32.Vec3
	normals    []mgl32.Vec3
	frameStart []mgl32.Vec3
	invMass    []float32
	packed     []AtomicPosition

	enabled bool
	closed  bool
}

// New builds a cloth from the provided topology. The cloth starts enabled.
func New(topo Topology, opts Options) (*Cloth, error) {
	if opts.StepsPerSecond == 0 {
		opts.StepsPerSecond = 240
	}
	if opts.MaxStepsPerFrame == 0 {
		opts.MaxStepsPerFrame = 8
	}

	c := &Cloth{
		opts:  opts,
		sched: newScheduler(opts.StepsPerSecond, opts.MaxStepsPerFrame),
		pool:  newWorkerPool(),
	}
	if err := c.build(topo); err != nil {
		return nil, err
	}
	c.pool.start()
	c.enabled = true
	return c, nil
}

// build validates the topology and (re)allocates all simulation state.
// Caller holds the mutex (or owns the cloth exclusively, as in New).
func (c *Cloth) build(topo Topology) error {
	particles := topo.Particles
	constraints := topo.Constraints
	if len(particles) == 0 || len(constraints) == 0 {
		return fmt.Errorf("%w: %d particles, %d constraints", ErrEmptyTopology, len(particles), len(constraints))
	}

	if len(particles) > MaxParticles {
		slog.Warn("particle count exceeds cap, truncating",
			"count", len(particles),
			"cap", MaxParticles,
		)
		particles = particles[:MaxParticles]
		constraints = dropOutOfRange(constraints, MaxParticles)
		if len(constraints) == 0 {
			return fmt.Errorf("%w: truncation removed every constraint", ErrEmptyTopology)
		}
	}
	n := len(particles)

	if err := validateConstraints(constraints, n); err != nil {
		return err
	}
	if err := validateTriangles(topo.Triangles, n); err != nil {
		return err
	}

	bounds := topo.Bounds
	if !bounds.valid() {
		bounds = deriveBounds(particles)
	}

	c.generation++
	c.bounds = bounds
	c.constraints = append([]Constraint(nil), constraints...)
	c.triangles = append([]int32(nil), topo.Triangles...)

	if c.opts.AtomicFallback {
		c.batches = nil
		c.packed = make([]AtomicPosition, n)
	} else {
		c.batches = buildBatches(c.constraints, n)
		c.packed = nil
	}
	if len(c.triangles) > 0 {
		c.fans = buildFans(c.triangles, n)
	} else {
		c.fans = faceFans{}
	}

	c.pos = make([]mgl32.Vec3, n)
	c.prev = make([]mgl32.Vec3, n)
	c.vel = make([]mgl32.Vec3, n)
	c.normals = make([]mgl32.Vec3, n)
	c.frameStart = make([]mgl32.Vec3, n)
	c.invMass = make([]float32, n)
	for i := range particles {
		c.pos[i] = particles[i].RestPosition
		c.prev[i] = particles[i].RestPosition
		c.invMass[i] = particles[i].InvMass
	}

	slog.Info("cloth topology built",
		"generation", c.generation,
		"particles", n,
		"constraints", len(c.constraints),
		"batches", len(c.batches),
		"atomic", c.opts.AtomicFallback,
	)
	return nil
}

// dropOutOfRange removes constraints referencing truncated particles.
func dropOutOfRange(constraints []Constraint, limit int) []Constraint {
	kept := make([]Constraint, 0, len(constraints))
	for _, con := range constraints {
		if int(con.I0) < limit && int(con.I1) < limit {
			kept = append(kept, con)
		}
	}
	return kept
}

func validateTriangles(triangles []int32, particleCount int) error {
	if len(triangles)%3 != 0 {
		return fmt.Errorf("%w: length %d not divisible by 3", ErrInvalidTriangle, len(triangles))
	}
	for i, t := range triangles {
		if t < 0 || int(t) >= particleCount {
			return fmt.Errorf("%w: index %d at %d outside [0,%d)", ErrInvalidTriangle, t, i, particleCount)
		}
	}
	return nil
}

// deriveBounds covers the rest pose expanded by its own extent on every
// axis, doubled downward so falling cloth stays representable.
func deriveBounds(particles []ParticleDef) Bounds {
	b := Bounds{Min: particles[0].RestPosition, Max: particles[0].RestPosition}
	for i := range particles {
		b.expand(particles[i].RestPosition)
	}
	size := b.Size()
	for a := 0; a < 3; a++ {
		margin := size[a]
		if margin < 1 {
			margin = 1
		}
		b.Min[a] -= margin
		b.Max[a] += margin
	}
	b.Min[1] -= 2 * size.Len()
	return b
}

// Enable (re)activates the cloth: restarts the worker pool and clears
// accumulated time. Idempotent.
func (c *Cloth) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.enabled {
		return
	}
	c.pool.start()
	c.sched.reset()
	c.enabled = true
}

// Disable stops the worker pool and clears accumulated time. Idempotent.
func (c *Cloth) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.pool.stop()
	c.sched.reset()
	c.enabled = false
}

// Close disables the cloth permanently.
func (c *Cloth) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.pool.stop()
		c.sched.reset()
		c.enabled = false
	}
	c.closed = true
}

// Enabled reports whether the cloth is currently simulating.
func (c *Cloth) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Notify applies an explicit change notification. Topology changes rebuild
// batches and buffers; gravity and wind changes take effect next substep.
// On error no state is mutated.
func (c *Cloth) Notify(change Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch change.Kind {
	case TopologyChanged:
		if change.Topology == nil {
			return ErrNilTopology
		}
		return c.build(*change.Topology)
	case GravityChanged:
		c.opts.Gravity = change.Gravity
	case WindChanged:
		c.opts.Wind = change.Wind
	default:
		return fmt.Errorf("unknown change kind %d", change.Kind)
	}
	return nil
}

// SetStepRate updates the substep rate (clamped to [1,1000] steps/sec).
func (c *Cloth) SetStepRate(stepsPerSecond float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.setRate(stepsPerSecond)
}

// SetMaxStepsPerFrame updates the per-frame substep cap (clamped to [1,1000]).
func (c *Cloth) SetMaxStepsPerFrame(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.setMaxStepsPerFrame(n)
}

// Step advances an automatic-mode cloth by real elapsed frame time.
func (c *Cloth) Step(frameDT float64) (StepReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.Mode != ModeAutomatic {
		return StepReport{}, fmt.Errorf("Step on a %s-mode cloth: %w", c.opts.Mode, ErrWrongMode)
	}
	return c.step(frameDT)
}

// StepManual advances a manual-mode cloth by a caller-supplied delta time.
func (c *Cloth) StepManual(dt float64) (StepReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.Mode != ModeManual {
		return StepReport{}, fmt.Errorf("StepManual on a %s-mode cloth: %w", c.opts.Mode, ErrWrongMode)
	}
	return c.step(dt)
}

func (c *Cloth) step(dt float64) (StepReport, error) {
	if !c.enabled {
		return StepReport{}, ErrDisabled
	}

	var report StepReport
	count, stepDT := c.sched.advance(dt)
	if count == 0 {
		return report, nil
	}
	report.Substeps = count
	report.StepDT = stepDT

	copy(c.frameStart, c.pos)
	for s := 0; s < count; s++ {
		c.substep(stepDT, &report)
	}

	start := time.Now()
	c.finalize(float32(count) * stepDT)
	report.FinalizeTime = time.Since(start)
	report.Residual = maxResidual(c.pos, c.constraints)
	return report, nil
}

// substep runs wind, integration, and one relaxation pass over every batch
// in order. Every pool.run call joins before returning, which is the memory
// barrier between phases and between successive batches.
func (c *Cloth) substep(dt float32, report *StepReport) {
	n := len(c.pos)

	if c.opts.Wind.Enabled && len(c.fans.fanTris) > 0 {
		start := time.Now()
		c.pool.run(n, func(lo, hi int) {
			computeNormalsRange(c.pos, c.normals, c.triangles, c.fans, lo, hi)
		})
		wind := c.opts.Wind
		c.pool.run(n, func(lo, hi int) {
			applyWindRange(c.pos, c.prev, c.normals, c.invMass, c.fans, wind, dt, lo, hi)
		})
		report.WindTime += time.Since(start)
	}

	start := time.Now()
	gravity := c.opts.Gravity
	maxTravel := c.opts.Thickness
	c.pool.run(n, func(lo, hi int) {
		integrateRange(c.pos, c.prev, c.invMass, gravity, dt, maxTravel, lo, hi)
	})
	report.IntegrateTime += time.Since(start)

	start = time.Now()
	if c.opts.AtomicFallback {
		c.solveAtomic(dt)
	} else {
		for _, batch := range c.batches {
			indices := batch
			c.pool.run(len(indices), func(lo, hi int) {
				solveRange(c.pos, c.invMass, c.constraints, indices, dt, lo, hi)
			})
		}
	}
	report.SolveTime += time.Since(start)
}

// solveAtomic round-trips positions through the packed buffer and relaxes
// every constraint in one pass with CAS-guarded writes.
func (c *Cloth) solveAtomic(dt float32) {
	n := len(c.pos)
	bounds := c.bounds

	c.pool.run(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			c.packed[i].Store(Encode(c.pos[i], bounds, c.invMass[i] == 0))
		}
	})
	c.pool.run(len(c.constraints), func(lo, hi int) {
		solveAtomicRange(c.packed, c.invMass, c.constraints, bounds, dt, lo, hi)
	})
	c.pool.run(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			// Pinned particles keep their exact float positions; the
			// quantized copy is only for the CAS arithmetic.
			if c.invMass[i] == 0 {
				continue
			}
			c.pos[i], _ = Decode(c.packed[i].Load(), bounds)
		}
	})
}

// finalize derives velocities from the position delta across the whole
// advance and refreshes normals for the renderer.
func (c *Cloth) finalize(elapsed float32) {
	n := len(c.pos)
	inv := 1 / elapsed
	c.pool.run(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			c.vel[i] = c.pos[i].Sub(c.frameStart[i]).Mul(inv)
		}
	})
	if len(c.fans.fanTris) > 0 {
		c.pool.run(n, func(lo, hi int) {
			computeNormalsRange(c.pos, c.normals, c.triangles, c.fans, lo, hi)
		})
	}
}

// Positions returns the live position buffer. Read-only view: valid until
// the next Step/Notify call.
func (c *Cloth) Positions() []mgl32.Vec3 { return c.pos }

// Velocities returns the velocities derived at the end of the last advance.
func (c *Cloth) Velocities() []mgl32.Vec3 { return c.vel }

// Normals returns per-particle normals (zero vectors without a triangle
// list).
func (c *Cloth) Normals() []mgl32.Vec3 { return c.normals }

// Constraints returns the constraint set of the current generation.
func (c *Cloth) Constraints() []Constraint { return c.constraints }

// Triangles returns the triangle list of the current generation.
func (c *Cloth) Triangles() []int32 { return c.triangles }

// ParticleCount returns the number of simulated particles.
func (c *Cloth) ParticleCount() int { return len(c.pos) }

// Pinned reports whether particle i has zero inverse mass.
func (c *Cloth) Pinned(i int) bool { return c.invMass[i] == 0 }

// BatchCount returns the number of constraint batches (0 in atomic mode).
func (c *Cloth) BatchCount() int { return len(c.batches) }

// Generation returns the topology generation counter.
func (c *Cloth) Generation() uint64 { return c.generation }

// Bounds returns the quantization bounds of the current generation.
func (c *Cloth) Bounds() Bounds { return c.bounds }
