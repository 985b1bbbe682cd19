// Package cell implements the spatial tree node (Cell) and the two
// construction passes that build it: the fully recursive Build and the
// sequentially-bounded TopLevelSetup that stops as soon as a subtree
// root is small enough to hand to a parallel worker.
package cell

import (
	"math/rand"
	"sync/atomic"

	"github.com/ztq1996/treecorr/celldata"
	"github.com/ztq1996/treecorr/partition"
	"github.com/ztq1996/treecorr/position"
)

// Stats are package-level atomic counters tracking cells and leaves built
// across all constructions in the process. They exist purely as cheap
// instrumentation for collaborators that want basic telemetry without
// the core depending on a metrics backend; field.Build never resets them,
// it reads CellsBuilt before and after each build and reports the
// difference.
var Stats struct {
	CellsBuilt  atomic.Int64
	LeavesBuilt atomic.Int64
}

// Cell is a node of the spatial tree: it owns a CellData summary, a
// squared geometric extent, and either nothing (leaf) or exactly two
// owned children (internal)
type Cell[P celldata.Payload[P], G position.Point[G]] struct {
	Summary     *celldata.CellData[P, G]
	SizeSq      float64
	Left, Right *Cell[P, G]
}

// IsLeaf reports whether c has no children.
func (c *Cell[P, G]) IsLeaf() bool { return c.Left == nil && c.Right == nil }

// NPoints returns the number of original catalog points contained in c's
// subtree, counted by walking the tree (leaves contribute 1 each).
func (c *Cell[P, G]) NPoints() int {
	if c.IsLeaf() {
		return 1
	}
	return c.Left.NPoints() + c.Right.NPoints()
}

// Build recursively constructs a Cell from slice[start:end). summary and
// sizeSq are the already-computed CellData and squared extent for this
// exact range (the caller, typically TopLevelSetup or Build's own
// recursive calls, has already paid for FinishAverages on them).
// minSizeSq is the squared bottom bound below which no further
// splitting is useful. rng is threaded through to partition.Split for
// the Random policy and may be nil for any other policy.
func Build[P celldata.Payload[P], G position.Point[G]](
	slice []*celldata.CellData[P, G],
	start, end int,
	summary *celldata.CellData[P, G],
	sizeSq float64,
	minSizeSq float64,
	method partition.SplitMethod,
	rng *rand.Rand,
) *Cell[P, G] {
	if end-start == 1 || sizeSq <= minSizeSq {
		Stats.CellsBuilt.Add(1)
		Stats.LeavesBuilt.Add(1)
		if end-start == 1 {
			// Take ownership of the single contained CellData: it IS
			// the leaf's summary (no aggregation needed for one point).
			// TopLevelSetup has already moved it out of the slice into
			// summary, so an empty slot means summary is that CellData.
			cd := slice[start]
			if cd == nil {
				cd = summary
			}
			return &Cell[P, G]{Summary: cd, SizeSq: 0}
		}
		// summary already aggregates everything in [start, end); the
		// original per-point entries are superseded and orphaned once
		// this leaf is returned, so null them out immediately rather
		// than leaving the field package to guess which slots the
		// final tree actually kept.
		for i := start; i < end; i++ {
			slice[i] = nil
		}
		return &Cell[P, G]{Summary: summary, SizeSq: sizeSq}
	}

	mid := partition.Split(slice, start, end, method, rng)

	leftSummary := celldata.New(slice, start, mid)
	leftSizeSq := celldata.SizeSq(leftSummary, slice, start, mid)
	celldata.FinishAverages(leftSummary, slice, start, mid)

	rightSummary := celldata.New(slice, mid, end)
	rightSizeSq := celldata.SizeSq(rightSummary, slice, mid, end)
	celldata.FinishAverages(rightSummary, slice, mid, end)

	left := Build(slice, start, mid, leftSummary, leftSizeSq, minSizeSq, method, rng)
	right := Build(slice, mid, end, rightSummary, rightSizeSq, minSizeSq, method, rng)

	Stats.CellsBuilt.Add(1)
	return &Cell[P, G]{
		Summary: summary,
		SizeSq:  sizeSq,
		Left:    left,
		Right:   right,
	}
}

// Root is one entry of TopLevelSetup's output: a subtree root's
// already-computed summary, squared extent, and the [Start, End) range
// of slice it owns
type Root[P celldata.Payload[P], G position.Point[G]] struct {
	Summary    *celldata.CellData[P, G]
	SizeSq     float64
	Start, End int
}

// TopLevelSetup drives the same recursion as Build but stops as soon as a
// subtree root's SizeSq is at or below maxSizeSq, emitting that root
// instead of recursing further. It runs entirely sequentially because it
// mutates slice in place via partition.Split; the roots it
// returns have disjoint, already-bounded ranges that the caller (field
// package) builds out in parallel via cell.Build.
//
// The special case end-start == 1 emits the single CellData with SizeSq
// 0 and nulls out slice[start]: the CellData now belongs to the emitted
// Root, and a later Build call on that root takes it from Root.Summary.
func TopLevelSetup[P celldata.Payload[P], G position.Point[G]](
	slice []*celldata.CellData[P, G],
	start, end int,
	minSizeSq, maxSizeSq float64,
	method partition.SplitMethod,
	rng *rand.Rand,
) []Root[P, G] {
	return appendTopLevelRoots(nil, slice, start, end, minSizeSq, maxSizeSq, method, rng)
}

func appendTopLevelRoots[P celldata.Payload[P], G position.Point[G]](
	out []Root[P, G],
	slice []*celldata.CellData[P, G],
	start, end int,
	minSizeSq, maxSizeSq float64,
	method partition.SplitMethod,
	rng *rand.Rand,
) []Root[P, G] {
	if end-start == 1 {
		out = append(out, Root[P, G]{Summary: slice[start], SizeSq: 0, Start: start, End: end})
		slice[start] = nil
		return out
	}

	summary := celldata.New(slice, start, end)
	sizeSq := celldata.SizeSq(summary, slice, start, end)

	if sizeSq <= maxSizeSq {
		celldata.FinishAverages(summary, slice, start, end)
		out = append(out, Root[P, G]{Summary: summary, SizeSq: sizeSq, Start: start, End: end})
		return out
	}

	mid := partition.Split(slice, start, end, method, rng)
	out = appendTopLevelRoots(out, slice, start, mid, minSizeSq, maxSizeSq, method, rng)
	out = appendTopLevelRoots(out, slice, mid, end, minSizeSq, maxSizeSq, method, rng)
	return out
}
