package xpbd

import "math"

// StepMode selects how the simulation consumes time.
type StepMode int

const (
	// ModeAutomatic advances from real elapsed frame time every frame.
	ModeAutomatic StepMode = iota
	// ModeManual advances only on explicit calls with a caller-supplied dt.
	ModeManual
)

func (m StepMode) String() string {
	switch m {
	case ModeAutomatic:
		return "automatic"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Clamp ranges for scheduler rates.
const (
	minStepsPerSecond = 1
	maxStepsPerSecond = 1000
	minStepsPerFrame  = 1
	maxStepsPerFrame  = 1000
)

// scheduler accumulates wall-clock time into discrete fixed-size substeps
// and bounds how many run per frame. The remainder carries unconsumed time
// across frames; it never goes negative and only drops time on the explicit
// max-substep clamp (bounded inaccuracy traded for bounded latency).
type scheduler struct {
	remainder        float64
	stepsPerSecond   float64
	maxStepsPerFrame int
}

func newScheduler(stepsPerSecond float64, maxPerFrame int) *scheduler {
	s := &scheduler{}
	s.setRate(stepsPerSecond)
	s.setMaxStepsPerFrame(maxPerFrame)
	return s
}

func (s *scheduler) setRate(stepsPerSecond float64) {
	if stepsPerSecond < minStepsPerSecond {
		stepsPerSecond = minStepsPerSecond
	} else if stepsPerSecond > maxStepsPerSecond {
		stepsPerSecond = maxStepsPerSecond
	}
	s.stepsPerSecond = stepsPerSecond
}

func (s *scheduler) setMaxStepsPerFrame(n int) {
	if n < minStepsPerFrame {
		n = minStepsPerFrame
	} else if n > maxStepsPerFrame {
		n = maxStepsPerFrame
	}
	s.maxStepsPerFrame = n
}

// reset drops accumulated time. Called when the cloth is enabled or
// disabled so a long pause never turns into a substep burst.
func (s *scheduler) reset() {
	s.remainder = 0
}

// advance folds dt into the accumulator and returns how many substeps to
// run and at what dt. count == 0 means no work this frame. When the frame
// owes more substeps than the cap allows, the owed time is spread evenly
// over the capped count instead of being carried forward.
func (s *scheduler) advance(dt float64) (count int, stepDT float32) {
	if dt > 0 {
		s.remainder += dt
	}
	count = int(math.Floor(s.remainder * s.stepsPerSecond))
	if count <= 0 {
		return 0, 0
	}

	var step float64
	if count > s.maxStepsPerFrame {
		count = s.maxStepsPerFrame
		step = s.remainder / float64(count)
	} else {
		step = 1 / s.stepsPerSecond
	}

	s.remainder -= float64(count) * step
	if s.remainder < 0 {
		s.remainder = 0
	}
	return count, float32(step)
}
