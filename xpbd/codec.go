package xpbd

import (
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Fixed-point packing layout: 21 bits per axis (x at bit 0, y at 21, z at 42)
// plus the pin flag in bit 63.
const (
	axisBits = 21
	axisMask = (1 << axisBits) - 1
	pinBit   = uint64(1) << 63
)

// Bounds is the axis-aligned box positions are quantized against.
// Set at topology-build time; stable until the next rebuild.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Size returns the extent of the box per axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// QuantizationStep returns the worst-case encode/decode error per axis.
func (b Bounds) QuantizationStep() mgl32.Vec3 {
	s := b.Size()
	return mgl32.Vec3{s[0] / axisMask, s[1] / axisMask, s[2] / axisMask}
}

// valid reports whether the box has positive extent on every axis.
func (b Bounds) valid() bool {
	return b.Max[0] > b.Min[0] && b.Max[1] > b.Min[1] && b.Max[2] > b.Min[2]
}

// expand grows the box to contain p.
func (b *Bounds) expand(p mgl32.Vec3) {
	for a := 0; a < 3; a++ {
		b.Min[a] = math32.Min(b.Min[a], p[a])
		b.Max[a] = math32.Max(b.Max[a], p[a])
	}
}

// PackedPosition is a 3D position quantized into a single 64-bit word.
// The compact form is what lets the solver fall back to integer
// compare-and-swap where atomic float vector addition does not exist.
type PackedPosition uint64

// Encode quantizes p against b. Each axis is remapped to [0, 2^21-1] with
// round-to-nearest; out-of-bounds input saturates, it never wraps.
func Encode(p mgl32.Vec3, b Bounds, pinned bool) PackedPosition {
	var bits uint64
	size := b.Size()
	for a := 0; a < 3; a++ {
		t := float32(0)
		if size[a] > 0 {
			t = (p[a] - b.Min[a]) / size[a]
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		bits |= uint64(math32.Round(t*axisMask)) << (a * axisBits)
	}
	if pinned {
		bits |= pinBit
	}
	return PackedPosition(bits)
}

// Decode inverts Encode up to one quantization step per axis.
func Decode(pp PackedPosition, b Bounds) (mgl32.Vec3, bool) {
	var p mgl32.Vec3
	size := b.Size()
	for a := 0; a < 3; a++ {
		q := float32(uint64(pp) >> (a * axisBits) & axisMask)
		p[a] = b.Min[a] + q/axisMask*size[a]
	}
	return p, pp.Pinned()
}

// Pinned returns the pin flag.
func (pp PackedPosition) Pinned() bool {
	return uint64(pp)&pinBit != 0
}

// AtomicPosition is a packed position updatable from concurrent solver
// lanes. It exists for the non-batched execution strategy where two
// constraints may correct the same particle at the same time.
type AtomicPosition struct {
	bits atomic.Uint64
}

// Store overwrites the packed value.
func (a *AtomicPosition) Store(pp PackedPosition) {
	a.bits.Store(uint64(pp))
}

// Load returns the packed value.
func (a *AtomicPosition) Load() PackedPosition {
	return PackedPosition(a.bits.Load())
}

// Add applies delta with a compare-and-swap retry loop: decode, add,
// re-encode, retry if a concurrent writer got in between. Pinned positions
// never move.
func (a *AtomicPosition) Add(delta mgl32.Vec3, b Bounds) {
	for {
		old := a.bits.Load()
		if old&pinBit != 0 {
			return
		}
		p, _ := Decode(PackedPosition(old), b)
		next := uint64(Encode(p.Add(delta), b, false))
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}
