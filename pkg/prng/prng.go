// Package prng provides the deterministic pseudo-random stream consumed by
// the simulation kernel. Every random decision inside pkg/sim — spawn
// selection, wander direction, fruit placement, incremental voxel choice —
// draws from a single Stream so that two instances seeded identically
// produce bit-identical outputs regardless of platform.
//
// Unlike pkg/rng in the teacher pipeline (which derives a fresh sub-seed per
// generation stage from the master seed, stage name, and config hash), a
// simulation has exactly one authoritative stream: there are no isolated
// stages to decorrelate, and decorrelating would make the sequence
// non-reproducible from a single persisted seed. Stream instead fixes the
// generation algorithm itself (xoshiro256**, seeded via SplitMix64) rather
// than delegating to the host's math/rand, because math/rand's output is
// not guaranteed stable across Go versions and the spec requires
// byte-identical replay across releases and platforms.
package prng

// Stream is a seeded xoshiro256** generator. The zero value is not usable;
// construct with NewStream.
type Stream struct {
	s [4]uint64
}

// NewStream derives the initial xoshiro256** state from seed using
// SplitMix64, the standard xoshiro seeding recipe. Two streams constructed
// with the same seed produce identical output sequences forever.
func NewStream(seed uint64) *Stream {
	var sm uint64 = seed
	next := func() uint64 {
		sm += 0x9E3779B97F4A7C15
		z := sm
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	st := &Stream{}
	for i := range st.s {
		st.s[i] = next()
	}
	return st
}

// State returns the stream's internal generator state, for persisting and
// later resuming a simulation mid-sequence (spec §6.3).
func (s *Stream) State() [4]uint64 { return s.s }

// RestoreStream reconstructs a stream from a previously saved State, continuing
// the exact sequence NewStream(seed) would have produced from that point on.
func RestoreStream(state [4]uint64) *Stream { return &Stream{s: state} }

func rotl(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// NextUint64 advances the stream and returns the next 64-bit value.
func (s *Stream) NextUint64() uint64 {
	result := rotl(s.s[1]*5, 7) * 9

	t := s.s[1] << 17

	s.s[2] ^= s.s[0]
	s.s[3] ^= s.s[1]
	s.s[1] ^= s.s[2]
	s.s[0] ^= s.s[3]

	s.s[2] ^= t

	s.s[3] = rotl(s.s[3], 45)

	return result
}

// NextFloat32 returns a value in [0, 1) derived from the top 24 bits of the
// next stream output, matching single-precision mantissa width so the
// result is stable across platforms.
func (s *Stream) NextFloat32() float32 {
	return float32(s.NextUint64()>>40) / float32(1<<24)
}

// NextFloat64 returns a value in [0, 1) using the top 53 bits of the next
// stream output.
func (s *Stream) NextFloat64() float64 {
	return float64(s.NextUint64()>>11) / float64(1<<53)
}

// RangeUint64 returns a value in [lo, hi]. It panics if lo > hi.
func (s *Stream) RangeUint64(lo, hi uint64) uint64 {
	if lo > hi {
		panic("prng: RangeUint64 lo must be <= hi")
	}
	if lo == hi {
		return lo
	}
	span := hi - lo + 1
	// Rejection sampling avoids modulo bias for spans that do not evenly
	// divide 2^64.
	limit := -span % span
	for {
		v := s.NextUint64()
		if v >= limit {
			return lo + v%span
		}
	}
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("prng: Intn argument must be positive")
	}
	return int(s.RangeUint64(0, uint64(n-1)))
}

// Bool returns a uniformly random boolean.
func (s *Stream) Bool() bool {
	return s.NextUint64()&1 == 1
}

// Shuffle permutes n elements in place using the Fisher-Yates algorithm,
// consuming the stream deterministically.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}

// WeightedChoice selects an index from weights using weighted random
// selection. Weights must be non-negative. Returns -1 if weights is empty
// or all weights are zero.
func (s *Stream) WeightedChoice(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			panic("prng: WeightedChoice weights must be non-negative")
		}
		total += w
	}
	if total == 0 {
		return -1
	}
	target := float64(s.NextFloat64()) * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
