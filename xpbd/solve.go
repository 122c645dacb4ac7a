package xpbd

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// solveRange applies one XPBD relaxation pass to the batch slice
// indices[start:end]. The batch is particle-disjoint by construction, so
// concurrent calls over disjoint ranges of the same batch never write the
// same particle. Exactly one pass per batch per substep: stiffness comes
// from substep count, not from extra Gauss-Seidel sweeps.
func solveRange(pos []mgl32.Vec3, invMass []float32, constraints []Constraint, indices []int32, dt float32, start, end int) {
	dt2 := dt * dt
	for _, ci := range indices[start:end] {
		c := &constraints[ci]
		w0 := invMass[c.I0]
		w1 := invMass[c.I1]
		w := w0 + w1
		if w == 0 {
			continue // both endpoints pinned
		}

		disp := pos[c.I0].Sub(pos[c.I1])
		length := disp.Len()
		var dir mgl32.Vec3
		if length > 0 {
			dir = disp.Mul(1 / length)
		}
		// Coincident endpoints leave dir zero: no correction, no NaN.

		alpha := c.Compliance / dt2
		s := -(length - c.RestLength) / (w + alpha)
		pos[c.I0] = pos[c.I0].Add(dir.Mul(s * w0))
		pos[c.I1] = pos[c.I1].Sub(dir.Mul(s * w1))
	}
}

// solveAtomicRange is the non-batched fallback: constraints [start,end) of
// the full set are relaxed against the packed position buffer, each endpoint
// write going through a CAS retry loop. Concurrent constraints sharing a
// particle retry instead of racing.
func solveAtomicRange(packed []AtomicPosition, invMass []float32, constraints []Constraint, b Bounds, dt float32, start, end int) {
	dt2 := dt * dt
	for i := start; i < end; i++ {
		c := &constraints[i]
		w0 := invMass[c.I0]
		w1 := invMass[c.I1]
		w := w0 + w1
		if w == 0 {
			continue
		}

		p0, _ := Decode(packed[c.I0].Load(), b)
		p1, _ := Decode(packed[c.I1].Load(), b)
		disp := p0.Sub(p1)
		length := disp.Len()
		var dir mgl32.Vec3
		if length > 0 {
			dir = disp.Mul(1 / length)
		}

		alpha := c.Compliance / dt2
		s := -(length - c.RestLength) / (w + alpha)
		if w0 > 0 {
			packed[c.I0].Add(dir.Mul(s*w0), b)
		}
		if w1 > 0 {
			packed[c.I1].Add(dir.Mul(-s*w1), b)
		}
	}
}

// maxResidual returns the largest |length - rest| over all constraints,
// the convergence measure reported to telemetry after each frame.
func maxResidual(pos []mgl32.Vec3, constraints []Constraint) float32 {
	var worst float32
	for i := range constraints {
		c := &constraints[i]
		err := math32.Abs(pos[c.I0].Sub(pos[c.I1]).Len() - c.RestLength)
		worst = math32.Max(worst, err)
	}
	return worst
}
