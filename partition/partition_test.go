package partition

import (
	"math/rand"
	"testing"

	"github.com/ztq1996/treecorr/celldata"
	"github.com/ztq1996/treecorr/position"
)

func flatSlice(coords [][2]float64) []*celldata.CellData[celldata.Count, position.Flat] {
	out := make([]*celldata.CellData[celldata.Count, position.Flat], len(coords))
	for i, c := range coords {
		out[i] = celldata.NewSinglePoint(position.Flat{X: c[0], Y: c[1]}, 1.0, celldata.Count{})
	}
	return out
}

func TestSplitMean(t *testing.T) {
	slice := flatSlice([][2]float64{{0, 0}, {10, 0}, {2, 0}, {8, 0}})
	mid := Split(slice, 0, len(slice), Mean, nil)
	if mid <= 0 || mid >= len(slice) {
		t.Fatalf("mid = %d, want a nontrivial split", mid)
	}
	for i := 0; i < mid; i++ {
		if slice[i].Pos.X > 5 {
			t.Errorf("left element %d has X=%v, expected <= mean", i, slice[i].Pos.X)
		}
	}
	for i := mid; i < len(slice); i++ {
		if slice[i].Pos.X <= 5 {
			t.Errorf("right element %d has X=%v, expected > mean", i, slice[i].Pos.X)
		}
	}
}

func TestSplitMedian(t *testing.T) {
	slice := flatSlice([][2]float64{{1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}})
	mid := Split(slice, 0, len(slice), Median, nil)
	if mid <= 0 || mid >= len(slice) {
		t.Fatalf("mid = %d, want a nontrivial split", mid)
	}
}

func TestSplitMiddle(t *testing.T) {
	slice := flatSlice([][2]float64{{0, 0}, {10, 0}, {1, 0}})
	mid := Split(slice, 0, len(slice), Middle, nil)
	// midpoint of [0,10] is 5; only X=0 and X=1 are <= 5.
	if mid != 2 {
		t.Errorf("mid = %d, want 2", mid)
	}
}

func TestSplitRandomDeterministicWithSeed(t *testing.T) {
	mk := func() []*celldata.CellData[celldata.Count, position.Flat] {
		return flatSlice([][2]float64{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}})
	}
	r1 := rand.New(rand.NewSource(42))
	s1 := mk()
	mid1 := Split(s1, 0, len(s1), Random, r1)

	r2 := rand.New(rand.NewSource(42))
	s2 := mk()
	mid2 := Split(s2, 0, len(s2), Random, r2)

	if mid1 != mid2 {
		t.Errorf("mid1=%d mid2=%d, want equal for same seed", mid1, mid2)
	}
	for i := range s1 {
		if s1[i].Pos != s2[i].Pos {
			t.Errorf("index %d diverged: %v != %v", i, s1[i].Pos, s2[i].Pos)
		}
	}
}

func TestSplitAxisSelectsLargestSpread(t *testing.T) {
	// X spread is 1 (small), Y spread is 100 (large): must split on Y.
	slice := flatSlice([][2]float64{{0, 0}, {1, 100}, {0.5, 50}})
	mid := Split(slice, 0, len(slice), Middle, nil)
	if mid <= 0 || mid >= len(slice) {
		t.Fatalf("mid = %d, want a nontrivial split", mid)
	}
	for i := 0; i < mid; i++ {
		if slice[i].Pos.Y > 50 {
			t.Errorf("left element %d has Y=%v, expected <= 50 (midpoint)", i, slice[i].Pos.Y)
		}
	}
}

func TestSplitSkewedStillMakesProgress(t *testing.T) {
	// 9 points at X=0, 1 point at X=1000: a Mean split (value 100) still
	// separates the outlier from the rest without needing the Median
	// fallback, since the mean of a set can never reach its own max
	// unless every value is identical.
	coords := make([][2]float64, 0, 10)
	for i := 0; i < 9; i++ {
		coords = append(coords, [2]float64{0, 0})
	}
	coords = append(coords, [2]float64{1000, 0})
	slice := flatSlice(coords)
	mid := Split(slice, 0, len(slice), Mean, nil)
	if mid <= 0 || mid >= len(slice) {
		t.Fatalf("mid = %d, want a nontrivial split", mid)
	}
}

func TestSplitMedianFallbackNoPanicOnDuplicateExtreme(t *testing.T) {
	// A majority of points share the axis maximum, so a Median split
	// lands everything on the left (splitValue=10, every coord<=10):
	// Split must fall through to a method that actually separates them,
	// not return the same degenerate mid==end.
	slice := flatSlice([][2]float64{{5, 0}, {10, 0}, {10, 0}, {10, 0}})
	mid := Split(slice, 0, len(slice), Median, nil)
	if mid <= 0 || mid >= len(slice) {
		t.Fatalf("mid = %d, want a nontrivial split strictly between 0 and %d", mid, len(slice))
	}
}

func TestSplitAllPointsIdenticalForcesIndexMidpoint(t *testing.T) {
	// Every axis has zero spread: no coordinate-based method (Mean,
	// Median, Middle) can ever separate these points. Split must still
	// make progress via the index-based last resort.
	slice := flatSlice([][2]float64{{3, 3}, {3, 3}, {3, 3}, {3, 3}})
	mid := Split(slice, 0, len(slice), Median, nil)
	if mid != 2 {
		t.Errorf("mid = %d, want 2 (index midpoint of a 4-element degenerate run)", mid)
	}
}

func TestSplitMedianFallbackLandsOnMiddle(t *testing.T) {
	// Same degenerate-under-Median data as above: once Median
	// degenerates, the fallback chain tries Middle next (skipping a
	// redundant retry of Median itself). Middle = (5+10)/2 = 7.5, which
	// separates the lone 5 from the three 10s, so the result should
	// match calling Middle directly.
	slice := flatSlice([][2]float64{{5, 0}, {10, 0}, {10, 0}, {10, 0}})
	mid := Split(slice, 0, len(slice), Median, nil)
	if mid != 1 {
		t.Errorf("mid = %d, want 1 (Middle fallback separates the lone 5 from the three 10s)", mid)
	}
}

func TestParseSplitMethod(t *testing.T) {
	for i := 0; i <= 3; i++ {
		if _, ok := ParseSplitMethod(i); !ok {
			t.Errorf("ParseSplitMethod(%d) should be valid", i)
		}
	}
	if _, ok := ParseSplitMethod(4); ok {
		t.Errorf("ParseSplitMethod(4) should be invalid")
	}
}
