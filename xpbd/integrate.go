package xpbd

import "github.com/go-gl/mathgl/mgl32"

// integrateRange advances particles [start,end) one substep of symplectic
// Euler expressed Verlet-style: velocity is implicit in the position
// history, external acceleration enters as accel*dt².
//
//	newPos = cur + (cur - prev) + accel*dt²
//
// Pinned particles (invMass == 0) are never touched. maxTravel > 0 clamps
// per-substep displacement, a tunneling guard used when the cloth has a
// thickness configured.
func integrateRange(pos, prev []mgl32.Vec3, invMass []float32, accel mgl32.Vec3, dt, maxTravel float32, start, end int) {
	g := accel.Mul(dt * dt)
	for i := start; i < end; i++ {
		if invMass[i] == 0 {
			continue
		}
		cur := pos[i]
		vel := cur.Sub(prev[i]).Add(g)
		if maxTravel > 0 {
			if l := vel.Len(); l > maxTravel {
				vel = vel.Mul(maxTravel / l)
			}
		}
		prev[i] = cur
		pos[i] = cur.Add(vel)
	}
}
