// Package partition implements the in-place slice partitioner that drives
// tree construction: given a contiguous run of CellData pointers, it picks
// a split axis and a split value and reorders the run so a "left" prefix
// precedes a "right" suffix
package partition

import (
	"math/rand"
	"sort"

	"github.com/ztq1996/treecorr/celldata"
	"github.com/ztq1996/treecorr/position"
)

// SplitMethod selects how the split value along the chosen axis is
// chosen. The integer values match the wire encoding in 
// (split_method_int), so capi can pass the value straight through.
type SplitMethod int

const (
	Mean SplitMethod = iota
	Median
	Middle
	Random
)

// String renders the method name, for logging and error messages.
func (m SplitMethod) String() string {
	switch m {
	case Mean:
		return "Mean"
	case Median:
		return "Median"
	case Middle:
		return "Middle"
	case Random:
		return "Random"
	default:
		return "unknown"
	}
}

// ParseSplitMethod maps an integer wire value to a SplitMethod, rejecting
// anything outside 0..3 (InvalidParameter: "unknown split
// method integer").
func ParseSplitMethod(v int) (SplitMethod, bool) {
	switch SplitMethod(v) {
	case Mean, Median, Middle, Random:
		return SplitMethod(v), true
	default:
		return 0, false
	}
}

// Split partitions slice[start:end) in place and returns mid such that
// slice[start:mid) lies "left" of the split plane and slice[mid:end)
// lies "right". The caller must ensure end-start >= 2; this precondition
// is enforced by cell.Build and cell.TopLevelSetup, the only callers.
//
// rng is consulted only for the Random policy. No generator is shared
// between goroutines: the top-level setup pass runs sequentially, and
// field.Build gives each parallel subtree build its own generator seeded
// from the caller's, so construction stays reproducible given a fixed seed.
func Split[P celldata.Payload[P], G position.Point[G]](slice []*celldata.CellData[P, G], start, end int, method SplitMethod, rng *rand.Rand) int {
	axis, lo, hi := chooseAxis(slice, start, end)
	mid := splitOnAxis(slice, start, end, axis, lo, hi, method, rng)
	if mid > start && mid < end {
		return mid
	}
	// Degenerate split (everything landed on one side): try the other
	// axis-based methods before giving up on coordinate-based splitting.
	// Retrying the method that just degenerated would recompute the
	// identical split value and reproduce the same degenerate mid, so
	// skip it.
	for _, fallback := range [...]SplitMethod{Median, Middle, Mean} {
		if fallback == method {
			continue
		}
		mid = splitOnAxis(slice, start, end, axis, lo, hi, fallback, rng)
		if mid > start && mid < end {
			return mid
		}
	}
	// Every axis-based method degenerated: the chosen axis has zero
	// spread, which only happens when every contained point occupies
	// the exact same position. Split the index range down the middle so
	// the caller always makes progress regardless of coordinates.
	return start + (end-start)/2
}

// chooseAxis returns the axis of largest spread across the contained
// leaves' positions, along with that axis's min and max coordinate.
func chooseAxis[P celldata.Payload[P], G position.Point[G]](slice []*celldata.CellData[P, G], start, end int) (axis int, lo, hi float64) {
	first := slice[start].Pos.Axes()
	nAxes := len(first)
	mins := make([]float64, nAxes)
	maxs := make([]float64, nAxes)
	copy(mins, first)
	copy(maxs, first)
	for i := start + 1; i < end; i++ {
		ax := slice[i].Pos.Axes()
		for a := 0; a < nAxes; a++ {
			if ax[a] < mins[a] {
				mins[a] = ax[a]
			}
			if ax[a] > maxs[a] {
				maxs[a] = ax[a]
			}
		}
	}
	bestAxis := 0
	bestSpread := maxs[0] - mins[0]
	for a := 1; a < nAxes; a++ {
		if spread := maxs[a] - mins[a]; spread > bestSpread {
			bestSpread = spread
			bestAxis = a
		}
	}
	return bestAxis, mins[bestAxis], maxs[bestAxis]
}

func splitOnAxis[P celldata.Payload[P], G position.Point[G]](slice []*celldata.CellData[P, G], start, end, axis int, lo, hi float64, method SplitMethod, rng *rand.Rand) int {
	coord := func(i int) float64 { return slice[i].Pos.Axes()[axis] }

	var splitValue float64
	switch method {
	case Mean:
		var sum float64
		for i := start; i < end; i++ {
			sum += coord(i)
		}
		splitValue = sum / float64(end-start)
	case Median:
		vals := make([]float64, end-start)
		for i := start; i < end; i++ {
			vals[i-start] = coord(i)
		}
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			splitValue = vals[n/2]
		} else {
			splitValue = (vals[n/2-1] + vals[n/2]) / 2
		}
	case Middle:
		splitValue = (lo + hi) / 2
	case Random:
		splitValue = lo + rng.Float64()*(hi-lo)
	default:
		// Unreachable: capi/field validate the method at construction.
		splitValue = (lo + hi) / 2
	}

	// Two-pointer in-place partition: coord <= splitValue goes left
	// ( "Equal coordinates are placed on the left side"),
	// everything else goes right.
	i := start
	for j := start; j < end; j++ {
		if coord(j) <= splitValue {
			slice[i], slice[j] = slice[j], slice[i]
			i++
		}
	}
	return i
}
