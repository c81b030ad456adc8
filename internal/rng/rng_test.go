package rng

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func draw(s *Source, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

func TestSameSeedSameSequence(t *testing.T) {
	a := draw(New(42), 1000)
	b := draw(New(42), 1000)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("sequences differ for identical seeds (-first +second):\n%s", diff)
	}
}

func TestDifferentSeedsDivergeImmediately(t *testing.T) {
	if New(42).Next() == New(99).Next() {
		t.Error("expected first draws of seeds 42 and 99 to differ")
	}
}

func TestNextRange(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		if v := s.Next(); v < 0 || v >= modulus {
			t.Fatalf("draw %d out of range: %d", i, v)
		}
	}
}

func TestFloat64Range(t *testing.T) {
	s := New(1)
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		v := s.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("float out of range: %v", v)
		}
		sum += v
	}
	if mean := sum / n; math.Abs(mean-0.5) > 0.02 {
		t.Errorf("mean %.4f too far from 0.5", mean)
	}
}

func TestIntRangeInclusive(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi int
	}{
		{"days", 1, 28},
		{"single value", 5, 5},
		{"swapped bounds", 10, 3},
		{"negative", -3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(3)
			lo, hi := tt.lo, tt.hi
			if hi < lo {
				lo, hi = hi, lo
			}
			seen := map[int]bool{}
			for i := 0; i < 5000; i++ {
				v := s.IntRange(tt.lo, tt.hi)
				if v < lo || v > hi {
					t.Fatalf("value %d outside [%d, %d]", v, lo, hi)
				}
				seen[v] = true
			}
			if len(seen) != hi-lo+1 {
				t.Errorf("expected every value in [%d, %d] to appear, saw %d", lo, hi, len(seen))
			}
		})
	}
}

func TestGaussMoments(t *testing.T) {
	s := New(11)
	const n = 20000
	var sum, sq float64
	for i := 0; i < n; i++ {
		v := s.Gauss(100, 15)
		sum += v
		sq += v * v
	}
	mean := sum / n
	std := math.Sqrt(sq/n - mean*mean)
	if math.Abs(mean-100) > 1 {
		t.Errorf("mean %.2f too far from 100", mean)
	}
	if math.Abs(std-15) > 1 {
		t.Errorf("std %.2f too far from 15", std)
	}
}

func TestChoice(t *testing.T) {
	s := New(5)
	items := []string{"AUTO", "HOME", "COMML", "WC"}
	seen := map[string]int{}
	for i := 0; i < 1000; i++ {
		seen[Choice(s, items)]++
	}
	for _, item := range items {
		if seen[item] == 0 {
			t.Errorf("item %s never chosen", item)
		}
	}
}

func TestSample(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	tests := []struct {
		name string
		k    int
		want int
	}{
		{"subset", 3, 3},
		{"all", 8, 8},
		{"capped", 20, 8},
		{"none", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sample(New(9), items, tt.k)
			if len(got) != tt.want {
				t.Fatalf("expected %d elements, got %d", tt.want, len(got))
			}
			seen := map[int]bool{}
			for _, v := range got {
				if seen[v] {
					t.Errorf("duplicate element %d in sample", v)
				}
				seen[v] = true
			}
		})
	}

	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 7, 8}, items); diff != "" {
		t.Errorf("Sample mutated its input:\n%s", diff)
	}
}

func TestNoShortCycle(t *testing.T) {
	s := New(42)
	seen := make(map[uint64]bool, 200000)
	for i := 0; i < 200000; i++ {
		s.Next()
		if seen[s.state] {
			t.Fatalf("state repeated after %d draws", i)
		}
		seen[s.state] = true
	}
}
