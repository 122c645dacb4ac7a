package xpbd

import (
	"math/rand"
	"testing"
)

func TestScheduler_FixedRate(t *testing.T) {
	s := newScheduler(100, 1000)

	count, stepDT := s.advance(0.025)
	if count != 2 {
		t.Fatalf("0.025s at 100 steps/sec: got %d substeps, want 2", count)
	}
	if stepDT != float32(0.01) {
		t.Errorf("stepDT = %v, want 0.01", stepDT)
	}
	if s.remainder < 0.004 || s.remainder > 0.006 {
		t.Errorf("remainder = %v, want ~0.005", s.remainder)
	}
}

func TestScheduler_AccumulatesSmallFrames(t *testing.T) {
	s := newScheduler(60, 1000)

	// Frames shorter than one substep produce no work until enough
	// accumulates.
	total := 0
	for i := 0; i < 10; i++ {
		count, _ := s.advance(0.005)
		total += count
	}
	// 50ms at 60 steps/sec = 3 substeps.
	if total != 3 {
		t.Errorf("10 x 5ms frames at 60/sec: got %d substeps, want 3", total)
	}
}

func TestScheduler_ClampSpreadsRemainder(t *testing.T) {
	s := newScheduler(1000, 4)

	// One second owes 1000 substeps; the cap forces 4 covering the full
	// remainder.
	count, stepDT := s.advance(1.0)
	if count != 4 {
		t.Fatalf("got %d substeps, want cap 4", count)
	}
	if stepDT < 0.24 || stepDT > 0.26 {
		t.Errorf("stepDT = %v, want 0.25 (remainder spread over cap)", stepDT)
	}
	if s.remainder > 1e-9 {
		t.Errorf("clamp branch should consume the remainder, left %v", s.remainder)
	}
}

func TestScheduler_TimeConservation(t *testing.T) {
	s := newScheduler(240, 1000)
	rng := rand.New(rand.NewSource(11))

	var input, consumed float64
	for i := 0; i < 1000; i++ {
		dt := rng.Float64() * 0.05
		input += dt
		count, stepDT := s.advance(dt)
		consumed += float64(count) * float64(stepDT)

		if s.remainder < 0 {
			t.Fatalf("remainder went negative: %v", s.remainder)
		}
		if s.remainder >= 1.0/240+1e-9 {
			t.Fatalf("remainder %v outside [0, 1/240)", s.remainder)
		}
	}
	if consumed > input+1e-6 {
		t.Errorf("simulated time %v exceeds wall time %v", consumed, input)
	}
}

func TestScheduler_NegativeDTIsZero(t *testing.T) {
	s := newScheduler(100, 1000)
	count, _ := s.advance(-5)
	if count != 0 {
		t.Errorf("negative dt produced %d substeps", count)
	}
	if s.remainder != 0 {
		t.Errorf("negative dt changed the remainder: %v", s.remainder)
	}
}

func TestScheduler_RateClamping(t *testing.T) {
	s := newScheduler(0, 0)
	if s.stepsPerSecond != minStepsPerSecond {
		t.Errorf("rate 0 should clamp to %d, got %v", minStepsPerSecond, s.stepsPerSecond)
	}
	if s.maxStepsPerFrame != minStepsPerFrame {
		t.Errorf("max 0 should clamp to %d, got %d", minStepsPerFrame, s.maxStepsPerFrame)
	}

	s.setRate(1e9)
	if s.stepsPerSecond != maxStepsPerSecond {
		t.Errorf("rate should clamp to %d, got %v", maxStepsPerSecond, s.stepsPerSecond)
	}
	s.setMaxStepsPerFrame(1 << 30)
	if s.maxStepsPerFrame != maxStepsPerFrame {
		t.Errorf("max should clamp to %d, got %d", maxStepsPerFrame, s.maxStepsPerFrame)
	}
}

func TestScheduler_ResetDropsRemainder(t *testing.T) {
	s := newScheduler(100, 1000)
	s.advance(0.005)
	if s.remainder == 0 {
		t.Fatal("expected nonzero remainder before reset")
	}
	s.reset()
	if s.remainder != 0 {
		t.Errorf("remainder survived reset: %v", s.remainder)
	}
}
