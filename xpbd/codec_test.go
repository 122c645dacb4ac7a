package xpbd

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testBounds() Bounds {
	return Bounds{Min: mgl32.Vec3{-4, -4, -4}, Max: mgl32.Vec3{4, 4, 4}}
}

func TestCodec_RoundTrip(t *testing.T) {
	b := testBounds()
	step := b.QuantizationStep()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10000; i++ {
		p := mgl32.Vec3{
			b.Min[0] + rng.Float32()*8,
			b.Min[1] + rng.Float32()*8,
			b.Min[2] + rng.Float32()*8,
		}
		pinned := i%3 == 0

		got, gotPinned := Decode(Encode(p, b, pinned), b)
		if gotPinned != pinned {
			t.Fatalf("pin flag lost: got %v want %v", gotPinned, pinned)
		}
		for a := 0; a < 3; a++ {
			diff := got[a] - p[a]
			if diff < 0 {
				diff = -diff
			}
			if diff > step[a] {
				t.Fatalf("axis %d: %v decoded to %v, error %v exceeds step %v", a, p[a], got[a], diff, step[a])
			}
		}
	}
}

func TestCodec_OutOfBoundsSaturates(t *testing.T) {
	b := testBounds()

	low, _ := Decode(Encode(mgl32.Vec3{-100, -100, -100}, b, false), b)
	if low != b.Min {
		t.Errorf("below-min input should clamp to min, got %v", low)
	}

	high, _ := Decode(Encode(mgl32.Vec3{100, 100, 100}, b, false), b)
	if high != b.Max {
		t.Errorf("above-max input should clamp to max, got %v", high)
	}
}

func TestCodec_RoundsToNearest(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	step := b.QuantizationStep()

	// A point just past the midpoint of a quantization cell must round up,
	// so its decode error stays under half a step. Truncation would leave
	// nearly a full step of error.
	p := mgl32.Vec3{step[0] * 10.6, 0, 0}
	got, _ := Decode(Encode(p, b, false), b)
	diff := got[0] - p[0]
	if diff < 0 {
		diff = -diff
	}
	if diff > step[0]*0.51 {
		t.Errorf("expected round-to-nearest, error %v > half step %v", diff, step[0]*0.5)
	}
}

func TestAtomicPosition_PinnedNeverMoves(t *testing.T) {
	b := testBounds()
	var ap AtomicPosition
	ap.Store(Encode(mgl32.Vec3{1, 2, 3}, b, true))

	ap.Add(mgl32.Vec3{5, 5, 5}, b)

	got, pinned := Decode(ap.Load(), b)
	if !pinned {
		t.Fatal("pin flag lost through Add")
	}
	want, _ := Decode(Encode(mgl32.Vec3{1, 2, 3}, b, true), b)
	if got != want {
		t.Errorf("pinned position moved: got %v want %v", got, want)
	}
}

func TestAtomicPosition_ConcurrentAdds(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{-1000, -1000, -1000}, Max: mgl32.Vec3{1000, 1000, 1000}}
	var ap AtomicPosition
	ap.Store(Encode(mgl32.Vec3{0, 0, 0}, b, false))

	const workers = 8
	const adds = 200
	delta := mgl32.Vec3{0.25, 0, 0}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < adds; i++ {
				ap.Add(delta, b)
			}
		}()
	}
	wg.Wait()

	got, _ := Decode(ap.Load(), b)
	want := float32(workers * adds * 0.25)

	// Each Add re-quantizes, so error accumulates up to one step per call.
	step := b.QuantizationStep()[0]
	tolerance := step * float32(workers*adds)
	diff := got[0] - want
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		t.Errorf("lost updates under contention: got %v want %v (tolerance %v)", got[0], want, tolerance)
	}
}
