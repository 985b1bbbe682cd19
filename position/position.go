// Package position implements the two coordinate geometries the tree
// builder supports: a flat 2D Cartesian plane and the surface of the unit
// sphere (represented as a 3-vector for chord-distance arithmetic).
//
// Both geometries satisfy Point, which is the generic constraint the
// celldata, partition, and cell packages build on. Keeping the arithmetic
// behind a narrow interface is what lets those packages stay monomorphic
// per instantiation instead of branching on geometry in the hot loop.
package position

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is the generic constraint satisfied by every supported geometry.
// T is always the concrete geometry type itself (Flat or Sphere), so a
// function written against Point[T] compiles to geometry-specific code at
// each instantiation with no runtime dispatch.
type Point[T any] interface {
	// Add returns the componentwise (or vector) sum of p and q.
	Add(q T) T
	// Scale returns p multiplied by f.
	Scale(f float64) T
	// DistanceSq returns the squared distance between p and q in this
	// geometry's native metric (Euclidean for Flat, chord for Sphere).
	DistanceSq(q T) float64
	// Axes returns the coordinate components used for split-axis
	// selection in the partition package: two for Flat, three for Sphere.
	Axes() []float64
	// FinishCentroid turns a raw weighted vector sum into a centroid.
	// Flat divides by the total weight; Sphere renormalizes to unit
	// length, falling back to an arbitrary unit vector when the sum is
	// the zero vector (total weight zero, which in practice never
	// reaches this call because zero-weight points are filtered at
	// ingestion).
	FinishCentroid(totalWeight float64) T
}

// Flat is a position in a 2D Cartesian plane.
type Flat struct {
	X, Y float64
}

// FlatOf converts a geom.Point into a Flat position, for collaborators
// that already carry positions in github.com/ctessum/geom.
func FlatOf(p geom.Point) Flat { return Flat{X: p.X, Y: p.Y} }

// Point converts back to a geom.Point.
func (p Flat) Point() geom.Point { return geom.Point{X: p.X, Y: p.Y} }

// Add implements Point.
func (p Flat) Add(q Flat) Flat { return Flat{X: p.X + q.X, Y: p.Y + q.Y} }

// Scale implements Point.
func (p Flat) Scale(f float64) Flat { return Flat{X: p.X * f, Y: p.Y * f} }

// DistanceSq implements Point.
func (p Flat) DistanceSq(q Flat) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Axes implements Point.
func (p Flat) Axes() []float64 { return []float64{p.X, p.Y} }

// FinishCentroid implements Point. A zero total weight would make the
// centroid undefined; the caller is expected to never reach this with
// w == 0, since zero-weight points are dropped before any slice is
// aggregated. If it does, the origin is returned instead of dividing
// by zero.
func (p Flat) FinishCentroid(totalWeight float64) Flat {
	if totalWeight == 0 {
		return Flat{}
	}
	return Flat{X: p.X / totalWeight, Y: p.Y / totalWeight}
}

// Sphere is a position on the unit sphere, represented as a 3-vector.
// Arithmetic uses the chord distance between the embedding 3-vectors,
// which is a monotonic function of angular separation.
type Sphere struct {
	V r3.Vec
}

// Add implements Point.
func (p Sphere) Add(q Sphere) Sphere { return Sphere{V: r3.Add(p.V, q.V)} }

// Scale implements Point.
func (p Sphere) Scale(f float64) Sphere { return Sphere{V: r3.Scale(f, p.V)} }

// DistanceSq implements Point.
func (p Sphere) DistanceSq(q Sphere) float64 {
	d := r3.Sub(p.V, q.V)
	return r3.Norm2(d)
}

// Axes implements Point.
func (p Sphere) Axes() []float64 { return []float64{p.V.X, p.V.Y, p.V.Z} }

// FinishCentroid implements Point: renormalize the weighted vector sum to
// unit length. If the sum has (numerically) zero length, fall back to an
// arbitrary unit vector; this case never arises in practice since
// zero-weight points are filtered before any slice reaches aggregation,
// and a sum of unit vectors with positive weights that happens to
// cancel exactly is a measure-zero event.
func (p Sphere) FinishCentroid(totalWeight float64) Sphere {
	n := r3.Norm(p.V)
	if n == 0 {
		return Sphere{V: r3.Vec{X: 1, Y: 0, Z: 0}}
	}
	return Sphere{V: r3.Scale(1/n, p.V)}
}

// AngleUnit is one of the angular units a catalog's ra/dec columns may be
// expressed in ("per-axis angular unit").
type AngleUnit int

const (
	Radians AngleUnit = iota
	Hours
	Degrees
	Arcmin
	Arcsec
)

// Radians returns the multiplier that converts a value in u to radians.
func (u AngleUnit) Radians() (float64, error) {
	switch u {
	case Radians:
		return 1, nil
	case Hours:
		return math.Pi / 12, nil
	case Degrees:
		return math.Pi / 180, nil
	case Arcmin:
		return math.Pi / (180 * 60), nil
	case Arcsec:
		return math.Pi / (180 * 3600), nil
	default:
		return 0, fmt.Errorf("position: unknown angle unit %d", int(u))
	}
}

// NewSphere converts a (ra, dec) pair, expressed in raUnit/decUnit, into a
// unit 3-vector on the sphere
func NewSphere(ra, dec float64, raUnit, decUnit AngleUnit) (Sphere, error) {
	raRad, err := raUnit.Radians()
	if err != nil {
		return Sphere{}, err
	}
	decRad, err := decUnit.Radians()
	if err != nil {
		return Sphere{}, err
	}
	ra *= raRad
	dec *= decRad
	cd := math.Cos(dec)
	return Sphere{V: r3.Vec{
		X: cd * math.Cos(ra),
		Y: cd * math.Sin(ra),
		Z: math.Sin(dec),
	}}, nil
}

// WeightedCentroid computes the weighted centroid of positions, weighted
// elementwise by weights. positions and weights must have equal length;
// the caller (celldata.New) guarantees this.
func WeightedCentroid[T Point[T]](positions []T, weights []float64) T {
	var sum T
	var w float64
	for i, p := range positions {
		sum = sum.Add(p.Scale(weights[i]))
		w += weights[i]
	}
	return sum.FinishCentroid(w)
}

// BoundingSizeSq returns max over points of center.DistanceSq(point), the
// squared geometric extent of a Cell around its centroid.
func BoundingSizeSq[T Point[T]](center T, points []T) float64 {
	var maxSq float64
	for _, p := range points {
		if d := center.DistanceSq(p); d > maxSq {
			maxSq = d
		}
	}
	return maxSq
}
