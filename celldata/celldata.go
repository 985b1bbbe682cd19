// Package celldata implements the leaf aggregate record (CellData) that
// backs every node of the spatial tree: a weighted centroid, a total
// weight, and a payload-dependent accumulator. The same type represents
// both a single catalog point and the averaged summary of a contiguous
// slice of points
package celldata

import "github.com/ztq1996/treecorr/position"

// Payload is the generic constraint satisfied by the three supported
// catalog kinds. T is always the concrete payload type (Shear, Scalar, or
// Count), mirroring the Point[T] self-referencing constraint in the
// position package, so aggregation arithmetic stays monomorphic per
// instantiation instead of branching on Kind.
type Payload[T any] interface {
	// Add returns the sum of two payloads. For Count this is a no-op:
	// there is nothing to sum beyond the weight CellData already tracks.
	Add(q T) T
}

// Shear is the spin-2 shear payload: a weighted sum of complex values
// g1 + i*g2.
type Shear complex128

// Add implements Payload.
func (s Shear) Add(t Shear) Shear { return s + t }

// NewShear builds the single-point contribution w*(g1 + i*g2).
func NewShear(g1, g2, w float64) Shear { return Shear(complex(w*g1, w*g2)) }

// G1 returns the real part of the raw weighted sum (not yet divided by
// weight: payload sums stay raw weighted sums, not means, until a
// caller explicitly divides by CellData.W).
func (s Shear) G1() float64 { return real(complex128(s)) }

// G2 returns the imaginary part of the raw weighted sum.
func (s Shear) G2() float64 { return imag(complex128(s)) }

// Scalar is the scalar-field payload: a weighted sum of kappa values.
type Scalar float64

// Add implements Payload.
func (s Scalar) Add(t Scalar) Scalar { return s + t }

// NewScalar builds the single-point contribution w*k.
func NewScalar(k, w float64) Scalar { return Scalar(w * k) }

// Count is the pure-count payload: no accumulator beyond the weight
// CellData already tracks.
type Count struct{}

// Add implements Payload.
func (c Count) Add(Count) Count { return Count{} }

// CellData is the leaf aggregate: a weighted centroid, total weight, and
// payload sum over a contiguous slice (or a single point). P is the
// payload kind, G is the position geometry.
type CellData[P Payload[P], G position.Point[G]] struct {
	Pos     G
	W       float64
	Payload P
}

// NewSinglePoint builds a CellData for one catalog row. w must be
// nonzero; zero-weight rows are filtered by the caller (field package)
// before this is ever invoked.
func NewSinglePoint[P Payload[P], G position.Point[G]](pos G, w float64, payload P) *CellData[P, G] {
	return &CellData[P, G]{Pos: pos, W: w, Payload: payload}
}

// New computes the first phase of aggregate construction over
// slice[start:end]: total weight and centroid. Payload summation is
// deferred to FinishAverages so a tentative summary that TopLevelSetup
// is about to subdivide further never pays for it.
func New[P Payload[P], G position.Point[G]](slice []*CellData[P, G], start, end int) *CellData[P, G] {
	n := end - start
	positions := make([]G, n)
	weights := make([]float64, n)
	var w float64
	for i := start; i < end; i++ {
		positions[i-start] = slice[i].Pos
		weights[i-start] = slice[i].W
		w += slice[i].W
	}
	return &CellData[P, G]{
		Pos: position.WeightedCentroid(positions, weights),
		W:   w,
	}
}

// FinishAverages computes the payload sum over slice[start:end] (straight
// summation) and stores it on cd. This is the second
// phase of the two-phase idiom: call it only once cd is confirmed
// retained, i.e. once TopLevelSetup has accepted the node as a root, or
// Build has made it the summary of a node in the final tree (internal or
// leaf).
func FinishAverages[P Payload[P], G position.Point[G]](cd *CellData[P, G], slice []*CellData[P, G], start, end int) {
	var sum P
	for i := start; i < end; i++ {
		sum = sum.Add(slice[i].Payload)
	}
	cd.Payload = sum
}

// Aggregate is New immediately followed by FinishAverages, for callers
// that have no use for the two-phase split (e.g. tests, and any caller
// building a node it already knows will be retained).
func Aggregate[P Payload[P], G position.Point[G]](slice []*CellData[P, G], start, end int) *CellData[P, G] {
	cd := New(slice, start, end)
	FinishAverages(cd, slice, start, end)
	return cd
}

// SizeSq returns the squared geometric extent of slice[start:end] around
// cd.Pos — the max squared distance from cd.Pos to any contained point,
//
func SizeSq[P Payload[P], G position.Point[G]](cd *CellData[P, G], slice []*CellData[P, G], start, end int) float64 {
	positions := make([]G, end-start)
	for i := start; i < end; i++ {
		positions[i-start] = slice[i].Pos
	}
	return position.BoundingSizeSq(cd.Pos, positions)
}
