package xpbd

import (
	"fmt"
	"log/slog"
)

// MaxBatches caps how many particle-disjoint batches a topology may produce.
// Each batch costs one synchronization barrier per substep, so a topology
// that needs more than this is pathological; overflow constraints are
// dropped with a warning rather than failing the build.
const MaxBatches = 64

// Constraint is a distance constraint between two particles. Compliance is
// inverse stiffness: 0 is a rigid rod, larger is softer. Constraints are
// immutable once batched for a topology generation.
type Constraint struct {
	I0, I1     int32
	RestLength float32
	Compliance float32
}

// validateConstraints checks every constraint references two distinct,
// in-range particles. Both execution strategies run this at build time.
func validateConstraints(constraints []Constraint, particleCount int) error {
	for i, c := range constraints {
		if c.I0 == c.I1 {
			return fmt.Errorf("constraint %d: %w: both endpoints are particle %d", i, ErrInvalidConstraint, c.I0)
		}
		if c.I0 < 0 || int(c.I0) >= particleCount || c.I1 < 0 || int(c.I1) >= particleCount {
			return fmt.Errorf("constraint %d: %w: indices (%d,%d) outside [0,%d)", i, ErrInvalidConstraint, c.I0, c.I1, particleCount)
		}
	}
	return nil
}

// buildBatches partitions constraints into batches where no particle index
// appears twice, so every constraint in a batch can be relaxed concurrently
// without touching the same position. Greedy first-fit over the original
// order: deterministic, not minimal, good enough in practice.
//
// Returned batches hold indices into the input constraint slice. Rebuilt
// only on topology change, never per substep.
func buildBatches(constraints []Constraint, particleCount int) [][]int32 {
	words := (particleCount + 63) / 64
	var claimed [][]uint64 // per-batch particle bitset
	var batches [][]int32

	dropped := 0
	for ci, c := range constraints {
		placed := false
		for bi := range batches {
			if bitsetHas(claimed[bi], c.I0) || bitsetHas(claimed[bi], c.I1) {
				continue
			}
			batches[bi] = append(batches[bi], int32(ci))
			bitsetSet(claimed[bi], c.I0)
			bitsetSet(claimed[bi], c.I1)
			placed = true
			break
		}
		if placed {
			continue
		}
		if len(batches) >= MaxBatches {
			dropped++
			continue
		}
		set := make([]uint64, words)
		bitsetSet(set, c.I0)
		bitsetSet(set, c.I1)
		claimed = append(claimed, set)
		batches = append(batches, []int32{int32(ci)})
	}

	if dropped > 0 {
		slog.Warn("constraint batch cap exceeded, dropping overflow constraints",
			"cap", MaxBatches,
			"dropped", dropped,
			"total", len(constraints),
		)
	}
	return batches
}

func bitsetHas(set []uint64, i int32) bool {
	return set[i>>6]&(1<<(uint(i)&63)) != 0
}

func bitsetSet(set []uint64, i int32) {
	set[i>>6] |= 1 << (uint(i) & 63)
}
