package xpbd

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestIntegrate_GravityStep(t *testing.T) {
	pos := []mgl32.Vec3{{0, 10, 0}}
	prev := []mgl32.Vec3{{0, 10, 0}}
	invMass := []float32{1}
	dt := float32(0.01)

	integrateRange(pos, prev, invMass, mgl32.Vec3{0, -9.8, 0}, dt, 0, 0, 1)

	// At rest, the first step is pure gravity: dy = g*dt².
	wantY := float32(10) - 9.8*dt*dt
	if pos[0][1] != wantY {
		t.Errorf("pos.y = %v, want %v", pos[0][1], wantY)
	}
	if prev[0] != (mgl32.Vec3{0, 10, 0}) {
		t.Errorf("prev should hold the pre-step position, got %v", prev[0])
	}
}

func TestIntegrate_CarriesVelocity(t *testing.T) {
	// prev behind pos means existing velocity; with no gravity the particle
	// keeps drifting by the same delta.
	pos := []mgl32.Vec3{{1, 0, 0}}
	prev := []mgl32.Vec3{{0, 0, 0}}
	invMass := []float32{1}

	integrateRange(pos, prev, invMass, mgl32.Vec3{}, 0.01, 0, 0, 1)

	if pos[0] != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("pos = %v, want (2,0,0)", pos[0])
	}
}

func TestIntegrate_PinnedUntouched(t *testing.T) {
	orig := mgl32.Vec3{3, 4, 5}
	pos := []mgl32.Vec3{orig}
	prev := []mgl32.Vec3{{0, 0, 0}}
	invMass := []float32{0}

	integrateRange(pos, prev, invMass, mgl32.Vec3{0, -100, 0}, 0.1, 0, 0, 1)

	if pos[0] != orig {
		t.Errorf("pinned particle moved to %v", pos[0])
	}
	if prev[0] != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("pinned particle history rewritten: %v", prev[0])
	}
}

func TestIntegrate_MaxTravelClamp(t *testing.T) {
	pos := []mgl32.Vec3{{10, 0, 0}}
	prev := []mgl32.Vec3{{0, 0, 0}} // implied velocity of 10 per substep
	invMass := []float32{1}

	integrateRange(pos, prev, invMass, mgl32.Vec3{}, 0.01, 0.5, 0, 1)

	moved := pos[0].Sub(mgl32.Vec3{10, 0, 0}).Len()
	if moved > 0.5+1e-5 {
		t.Errorf("travel %v exceeds clamp 0.5", moved)
	}
}
