package xpbd

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSolve_RigidConstraintWithPin(t *testing.T) {
	// One pinned anchor, one free particle stretched to twice rest length.
	// With compliance 0 and one free endpoint, a single pass lands exactly
	// on the rest length.
	pos := []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}}
	invMass := []float32{0, 1}
	cs := []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0}}

	solveRange(pos, invMass, cs, []int32{0}, 0.01, 0, 1)

	if pos[0] != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("pinned endpoint moved: %v", pos[0])
	}
	dist := pos[1].Len()
	if math.Abs(float64(dist-1)) > 1e-6 {
		t.Errorf("distance after solve = %v, want 1", dist)
	}
}

func TestSolve_SplitsByInverseMass(t *testing.T) {
	// Equal inverse masses split the correction evenly.
	pos := []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}}
	invMass := []float32{1, 1}
	cs := []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0}}

	solveRange(pos, invMass, cs, []int32{0}, 0.01, 0, 1)

	if math.Abs(float64(pos[0][0]-0.5)) > 1e-6 || math.Abs(float64(pos[1][0]-1.5)) > 1e-6 {
		t.Errorf("correction not split evenly: %v %v", pos[0], pos[1])
	}
}

func TestSolve_BothPinnedSkipped(t *testing.T) {
	pos := []mgl32.Vec3{{0, 0, 0}, {5, 0, 0}}
	invMass := []float32{0, 0}
	cs := []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0}}

	solveRange(pos, invMass, cs, []int32{0}, 0.01, 0, 1)

	if pos[0] != (mgl32.Vec3{0, 0, 0}) || pos[1] != (mgl32.Vec3{5, 0, 0}) {
		t.Errorf("pinned pair moved: %v %v", pos[0], pos[1])
	}
}

func TestSolve_CoincidentParticlesNoNaN(t *testing.T) {
	pos := []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}}
	invMass := []float32{1, 1}
	cs := []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0}}

	solveRange(pos, invMass, cs, []int32{0}, 0.01, 0, 1)

	for i, p := range pos {
		for a := 0; a < 3; a++ {
			if math.IsNaN(float64(p[a])) {
				t.Fatalf("particle %d axis %d is NaN", i, a)
			}
		}
	}
	// Zero-length displacement yields zero correction.
	if pos[0] != (mgl32.Vec3{1, 1, 1}) || pos[1] != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("coincident particles should not move: %v %v", pos[0], pos[1])
	}
}

func TestSolve_ComplianceSoftens(t *testing.T) {
	rigid := []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}}
	soft := []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}}
	invMass := []float32{0, 1}
	dt := float32(0.01)

	solveRange(rigid, invMass, []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0}}, []int32{0}, dt, 0, 1)
	solveRange(soft, invMass, []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0.01}}, []int32{0}, dt, 0, 1)

	rigidErr := math.Abs(float64(rigid[1].Len() - 1))
	softErr := math.Abs(float64(soft[1].Len() - 1))
	if softErr <= rigidErr {
		t.Errorf("compliant constraint corrected at least as hard as rigid: soft %v rigid %v", softErr, rigidErr)
	}
}

func TestSolveAtomic_MatchesDirect(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{-10, -10, -10}, Max: mgl32.Vec3{10, 10, 10}}
	pos := []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}}
	invMass := []float32{0, 1}
	cs := []Constraint{{I0: 0, I1: 1, RestLength: 1, Compliance: 0}}

	packed := make([]AtomicPosition, 2)
	for i := range pos {
		packed[i].Store(Encode(pos[i], b, invMass[i] == 0))
	}
	solveAtomicRange(packed, invMass, cs, b, 0.01, 0, 1)

	got, _ := Decode(packed[1].Load(), b)
	step := b.QuantizationStep().Len()
	if diff := math.Abs(float64(got.Len() - 1)); diff > float64(2*step) {
		t.Errorf("atomic solve distance %v, want 1 within %v", got.Len(), 2*step)
	}
	anchor, pinned := Decode(packed[0].Load(), b)
	if !pinned {
		t.Error("anchor lost pin flag")
	}
	want, _ := Decode(Encode(mgl32.Vec3{0, 0, 0}, b, true), b)
	if anchor != want {
		t.Errorf("pinned anchor moved: %v", anchor)
	}
}

func TestMaxResidual(t *testing.T) {
	pos := []mgl32.Vec3{{0, 0, 0}, {1.5, 0, 0}, {0, 3, 0}}
	cs := []Constraint{
		{I0: 0, I1: 1, RestLength: 1},
		{I0: 0, I1: 2, RestLength: 1},
	}
	got := maxResidual(pos, cs)
	if math.Abs(float64(got-2)) > 1e-6 {
		t.Errorf("maxResidual = %v, want 2", got)
	}
}
