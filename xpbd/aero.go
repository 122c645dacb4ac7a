package xpbd

import "github.com/go-gl/mathgl/mgl32"

// WindParams drives the aerodynamic extension. Velocity is the free-stream
// wind, Drag scales the normal-aligned response, Lift the tangential one.
type WindParams struct {
	Enabled  bool
	Velocity mgl32.Vec3
	Drag     float32
	Lift     float32
}

// faceFans maps each particle to its incident triangles in CSR layout:
// triangles for particle i are fanTris[offsets[i]:offsets[i+1]]. Built once
// per topology generation.
type faceFans struct {
	offsets []int32
	fanTris []int32 // triangle indices (t, not t*3)
}

func buildFans(triangles []int32, particleCount int) faceFans {
	triCount := len(triangles) / 3
	offsets := make([]int32, particleCount+1)
	for t := 0; t < triCount; t++ {
		offsets[triangles[3*t+0]+1]++
		offsets[triangles[3*t+1]+1]++
		offsets[triangles[3*t+2]+1]++
	}
	for i := 1; i <= particleCount; i++ {
		offsets[i] += offsets[i-1]
	}

	fanTris := make([]int32, offsets[particleCount])
	cursor := make([]int32, particleCount)
	for t := 0; t < triCount; t++ {
		for k := 0; k < 3; k++ {
			p := triangles[3*t+k]
			fanTris[offsets[p]+cursor[p]] = int32(t)
			cursor[p]++
		}
	}
	return faceFans{offsets: offsets, fanTris: fanTris}
}

// computeNormalsRange fills normals for particles [start, end) by summing
// the unnormalized cross products of each particle's face fan. The cross
// product length carries triangle area, so large faces dominate the fan.
func computeNormalsRange(pos, normals []mgl32.Vec3, triangles []int32, fans faceFans, start, end int) {
	for i := start; i < end; i++ {
		var sum mgl32.Vec3
		for _, t := range fans.fanTris[fans.offsets[i]:fans.offsets[i+1]] {
			p0 := pos[triangles[3*t+0]]
			p1 := pos[triangles[3*t+1]]
			p2 := pos[triangles[3*t+2]]
			sum = sum.Add(p1.Sub(p0).Cross(p2.Sub(p0)))
		}
		if l := sum.Len(); l > 0 {
			sum = sum.Mul(1 / l)
		}
		normals[i] = sum
	}
}

// applyWindRange applies a simplified per-particle drag/lift impulse for
// particles [start, end). Runs before integration each substep, so the
// implicit velocity (pos - prev)/dt is the one the integrator will see.
// Pinned particles and particles without a face fan are skipped.
func applyWindRange(pos, prev, normals []mgl32.Vec3, invMass []float32, fans faceFans, wind WindParams, dt float32, start, end int) {
	dt2 := dt * dt
	for i := start; i < end; i++ {
		if invMass[i] == 0 || fans.offsets[i] == fans.offsets[i+1] {
			continue
		}
		vel := pos[i].Sub(prev[i]).Mul(1 / dt)
		rel := wind.Velocity.Sub(vel)

		n := normals[i]
		vn := n.Dot(rel)
		force := n.Mul(vn * wind.Drag)
		if wind.Lift != 0 {
			force = force.Add(rel.Sub(n.Mul(vn)).Mul(wind.Lift))
		}
		pos[i] = pos[i].Add(force.Mul(invMass[i] * dt2))
	}
}
