package prng

import "testing"

func TestNewStreamDeterministic(t *testing.T) {
	a := NewStream(42)
	b := NewStream(42)
	for i := 0; i < 1000; i++ {
		va, vb := a.NextUint64(), b.NextUint64()
		if va != vb {
			t.Fatalf("stream %d diverged: %d != %d", i, va, vb)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := NewStream(1)
	b := NewStream(2)
	same := true
	for i := 0; i < 8; i++ {
		if a.NextUint64() != b.NextUint64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to diverge within 8 draws")
	}
}

func TestNextFloat64Range(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10000; i++ {
		v := s.NextFloat64()
		if v < 0 || v >= 1 {
			t.Fatalf("NextFloat64 out of range: %v", v)
		}
	}
}

func TestNextFloat32Range(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10000; i++ {
		v := s.NextFloat32()
		if v < 0 || v >= 1 {
			t.Fatalf("NextFloat32 out of range: %v", v)
		}
	}
}

func TestRangeUint64Bounds(t *testing.T) {
	s := NewStream(99)
	for i := 0; i < 10000; i++ {
		v := s.RangeUint64(5, 9)
		if v < 5 || v > 9 {
			t.Fatalf("RangeUint64 out of bounds: %v", v)
		}
	}
}

func TestRangeUint64SingleValue(t *testing.T) {
	s := NewStream(1)
	if v := s.RangeUint64(4, 4); v != 4 {
		t.Fatalf("expected 4, got %v", v)
	}
}

func TestIntnPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		}
	}()
	NewStream(1).Intn(0)
}

func TestShuffleIsDeterministic(t *testing.T) {
	mk := func(seed uint64) []int {
		data := []int{0, 1, 2, 3, 4, 5, 6, 7}
		s := NewStream(seed)
		s.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
		return data
	}
	a := mk(55)
	b := mk(55)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("shuffle diverged at %d: %v vs %v", i, a, b)
		}
	}
}

func TestWeightedChoiceEmptyAndZero(t *testing.T) {
	s := NewStream(1)
	if got := s.WeightedChoice(nil); got != -1 {
		t.Fatalf("expected -1 for empty weights, got %d", got)
	}
	if got := s.WeightedChoice([]float64{0, 0, 0}); got != -1 {
		t.Fatalf("expected -1 for all-zero weights, got %d", got)
	}
}

func TestWeightedChoiceSelectsWithinRange(t *testing.T) {
	s := NewStream(3)
	weights := []float64{1, 2, 3, 4}
	for i := 0; i < 1000; i++ {
		got := s.WeightedChoice(weights)
		if got < 0 || got >= len(weights) {
			t.Fatalf("WeightedChoice out of range: %d", got)
		}
	}
}
