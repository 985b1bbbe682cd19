package position

import (
	"math"
	"testing"
)

const tol = 1e-10

func different(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance
}

func TestFlatDistanceSq(t *testing.T) {
	a := Flat{X: 0, Y: 0}
	b := Flat{X: 3, Y: 4}
	if different(a.DistanceSq(b), 25, tol) {
		t.Errorf("DistanceSq = %v, want 25", a.DistanceSq(b))
	}
}

func TestFlatWeightedCentroid(t *testing.T) {
	pts := []Flat{{X: 0, Y: 0}, {X: 10, Y: 0}}
	w := []float64{1, 1}
	c := WeightedCentroid(pts, w)
	if different(c.X, 5, tol) || different(c.Y, 0, tol) {
		t.Errorf("centroid = %v, want (5,0)", c)
	}
}

func TestFlatWeightedCentroidUnequalWeights(t *testing.T) {
	pts := []Flat{{X: 0, Y: 0}, {X: 10, Y: 0}}
	w := []float64{3, 1}
	c := WeightedCentroid(pts, w)
	if different(c.X, 2.5, tol) {
		t.Errorf("centroid.X = %v, want 2.5", c.X)
	}
}

func TestSphereUnitLength(t *testing.T) {
	p, err := NewSphere(0, 0, Radians, Radians)
	if err != nil {
		t.Fatal(err)
	}
	n := p.V.X*p.V.X + p.V.Y*p.V.Y + p.V.Z*p.V.Z
	if different(n, 1, tol) {
		t.Errorf("|p| = %v, want 1", n)
	}
	if different(p.V.X, 1, tol) || different(p.V.Y, 0, tol) || different(p.V.Z, 0, tol) {
		t.Errorf("p = %v, want (1,0,0)", p.V)
	}
}

func TestSphereAntipodal(t *testing.T) {
	a, _ := NewSphere(0, 0, Radians, Radians)
	b, _ := NewSphere(math.Pi, 0, Radians, Radians)
	got := a.DistanceSq(b)
	if different(got, 4, tol) {
		t.Errorf("chord distance squared = %v, want 4", got)
	}
}

func TestSphereDegreesUnit(t *testing.T) {
	a, err := NewSphere(0, 0, Degrees, Degrees)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSphere(180, 0, Degrees, Degrees)
	if err != nil {
		t.Fatal(err)
	}
	if different(a.DistanceSq(b), 4, tol) {
		t.Errorf("chord distance squared = %v, want 4", a.DistanceSq(b))
	}
}

func TestAngleUnitUnknown(t *testing.T) {
	if _, err := AngleUnit(99).Radians(); err == nil {
		t.Error("expected error for unknown angle unit")
	}
}

func TestBoundingSizeSq(t *testing.T) {
	center := Flat{X: 0, Y: 0}
	pts := []Flat{{X: 1, Y: 0}, {X: 0, Y: 2}, {X: 1, Y: 1}}
	got := BoundingSizeSq(center, pts)
	if different(got, 4, tol) {
		t.Errorf("BoundingSizeSq = %v, want 4", got)
	}
}

func TestSphereFinishCentroidZero(t *testing.T) {
	s := Sphere{}.FinishCentroid(0)
	n := s.V.X*s.V.X + s.V.Y*s.V.Y + s.V.Z*s.V.Z
	if different(n, 1, tol) {
		t.Errorf("fallback centroid should be unit length, got |v|^2=%v", n)
	}
}
