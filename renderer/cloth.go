// Package renderer draws cloth instances with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/drape/xpbd"
)

var lightDir = mgl32.Vec3{0.35, 0.8, 0.5}.Normalize()

// DrawCloth renders one cloth at the given world offset. Cloths without a
// triangle list always render as wires.
func DrawCloth(sim *xpbd.Cloth, offset mgl32.Vec3, wireframe bool) {
	if wireframe || len(sim.Triangles()) == 0 {
		drawWires(sim, offset)
	} else {
		drawShaded(sim, offset)
	}
	drawPins(sim, offset)
}

// drawWires draws one line per distance constraint.
func drawWires(sim *xpbd.Cloth, offset mgl32.Vec3) {
	pos := sim.Positions()
	for _, con := range sim.Constraints() {
		a := toRL(pos[con.I0], offset)
		b := toRL(pos[con.I1], offset)
		rl.DrawLine3D(a, b, rl.SkyBlue)
	}
}

// drawShaded draws the triangle list with flat lambert shading from the
// face normal. Both windings are drawn so the cloth is visible from either
// side.
func drawShaded(sim *xpbd.Cloth, offset mgl32.Vec3) {
	pos := sim.Positions()
	tris := sim.Triangles()

	for t := 0; t+2 < len(tris); t += 3 {
		p0 := pos[tris[t]]
		p1 := pos[tris[t+1]]
		p2 := pos[tris[t+2]]

		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.LenSqr() > 0 {
			n = n.Normalize()
		}
		// Two-sided lighting: a face lit from behind is as bright as one
		// lit from the front.
		lambert := n.Dot(lightDir)
		if lambert < 0 {
			lambert = -lambert
		}
		shade := 0.25 + 0.75*lambert
		color := rl.NewColor(uint8(80*shade), uint8(140*shade), uint8(235*shade), 255)

		v0 := toRL(p0, offset)
		v1 := toRL(p1, offset)
		v2 := toRL(p2, offset)
		rl.DrawTriangle3D(v0, v1, v2, color)
		rl.DrawTriangle3D(v0, v2, v1, color)
	}
}

// drawPins marks pinned particles.
func drawPins(sim *xpbd.Cloth, offset mgl32.Vec3) {
	pos := sim.Positions()
	bounds := sim.Bounds()
	radius := bounds.Size().Len() * 0.004
	if radius <= 0 {
		radius = 0.01
	}
	for i, p := range pos {
		if !sim.Pinned(i) {
			continue
		}
		rl.DrawSphere(toRL(p, offset), radius, rl.Red)
	}
}

func toRL(v, offset mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v[0] + offset[0], Y: v[1] + offset[1], Z: v[2] + offset[2]}
}
