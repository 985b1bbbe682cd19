package capi

import (
	"context"
	"errors"
	"math/rand"

	"github.com/ztq1996/treecorr/celldata"
	"github.com/ztq1996/treecorr/field"
	"github.com/ztq1996/treecorr/partition"
	"github.com/ztq1996/treecorr/position"
)

func errorCode(err error) int {
	switch {
	case errors.Is(err, field.ErrInvalidDimensions):
		return ErrCodeInvalidDimensions
	case errors.Is(err, field.ErrInvalidParameter):
		return ErrCodeInvalidParameter
	case errors.Is(err, field.ErrOutOfMemory):
		return ErrCodeOutOfMemory
	default:
		return errCodeUnknown
	}
}

// buildField validates the split-method integer, runs field.Build, and
// either registers the resulting Field under a fresh Handle or records
// the failure on token's LastError slot and returns Handle(0), the
// conventional null/sentinel handle for a foreign caller to check
// against before trying to use the result.
func buildField[P celldata.Payload[P], G position.Point[G]](
	token int64,
	kindName, geomName string,
	positions []G,
	weights []float64,
	payloads []P,
	minSep, maxSep, b float64,
	splitMethodInt int,
) Handle {
	method, ok := partition.ParseSplitMethod(splitMethodInt)
	if !ok {
		setLastError(token, ErrCodeInvalidParameter, "unknown split method integer")
		return 0
	}
	cfg := field.Config{MinSep: minSep, MaxSep: maxSep, B: b, Split: method}

	// The Random policy needs a generator; a fixed seed keeps builds from
	// the same columns reproducible.
	var rng *rand.Rand
	if method == partition.Random {
		rng = rand.New(rand.NewSource(1))
	}

	f, err := field.Build[P, G](context.Background(), kindName, geomName, positions, weights, payloads, cfg, rng, nil)
	if err != nil {
		setLastError(token, errorCode(err), err.Error())
		return 0
	}
	setLastError(token, 0, "")
	return register(f)
}

func flipSign(v float64, flip bool) float64 {
	if flip {
		return -v
	}
	return v
}

// --- N (count) fields ---

// BuildNFieldFlat builds a count field over Cartesian (x, y) coordinates.
func BuildNFieldFlat(token int64, x, y, w []float64, minSep, maxSep, b float64, splitMethodInt int) Handle {
	if len(x) != len(y) || len(x) != len(w) {
		setLastError(token, ErrCodeInvalidDimensions, "x, y, and w must have equal length")
		return 0
	}
	n := len(x)
	positions := make([]position.Flat, n)
	payloads := make([]celldata.Count, n)
	for i := 0; i < n; i++ {
		positions[i] = position.Flat{X: x[i], Y: y[i]}
	}
	return buildField[celldata.Count, position.Flat](token, "N", "Flat", positions, w, payloads, minSep, maxSep, b, splitMethodInt)
}

// BuildNFieldSphere builds a count field over (ra, dec) coordinates
// already expressed in radians.
func BuildNFieldSphere(token int64, ra, dec, w []float64, minSep, maxSep, b float64, splitMethodInt int) Handle {
	if len(ra) != len(dec) || len(ra) != len(w) {
		setLastError(token, ErrCodeInvalidDimensions, "ra, dec, and w must have equal length")
		return 0
	}
	n := len(ra)
	positions := make([]position.Sphere, n)
	for i := 0; i < n; i++ {
		p, err := position.NewSphere(ra[i], dec[i], position.Radians, position.Radians)
		if err != nil {
			setLastError(token, ErrCodeInvalidParameter, err.Error())
			return 0
		}
		positions[i] = p
	}
	payloads := make([]celldata.Count, n)
	return buildField[celldata.Count, position.Sphere](token, "N", "Sphere", positions, w, payloads, minSep, maxSep, b, splitMethodInt)
}

// DestroyNFieldFlat frees the Field referenced by h. Calling it on a
// handle built by any function other than BuildNFieldFlat is a no-op.
func DestroyNFieldFlat(h Handle) bool {
	return deleteHandle[*field.Field[celldata.Count, position.Flat]](h)
}

// DestroyNFieldSphere frees the Field referenced by h.
func DestroyNFieldSphere(h Handle) bool {
	return deleteHandle[*field.Field[celldata.Count, position.Sphere]](h)
}

// --- K (scalar) fields ---

// BuildKFieldFlat builds a scalar field over Cartesian (x, y) coordinates.
func BuildKFieldFlat(token int64, x, y, k, w []float64, minSep, maxSep, b float64, splitMethodInt int) Handle {
	if len(x) != len(y) || len(x) != len(k) || len(x) != len(w) {
		setLastError(token, ErrCodeInvalidDimensions, "x, y, k, and w must have equal length")
		return 0
	}
	n := len(x)
	positions := make([]position.Flat, n)
	payloads := make([]celldata.Scalar, n)
	for i := 0; i < n; i++ {
		positions[i] = position.Flat{X: x[i], Y: y[i]}
		payloads[i] = celldata.NewScalar(k[i], w[i])
	}
	return buildField[celldata.Scalar, position.Flat](token, "K", "Flat", positions, w, payloads, minSep, maxSep, b, splitMethodInt)
}

// BuildKFieldSphere builds a scalar field over (ra, dec) coordinates
// already expressed in radians.
func BuildKFieldSphere(token int64, ra, dec, k, w []float64, minSep, maxSep, b float64, splitMethodInt int) Handle {
	if len(ra) != len(dec) || len(ra) != len(k) || len(ra) != len(w) {
		setLastError(token, ErrCodeInvalidDimensions, "ra, dec, k, and w must have equal length")
		return 0
	}
	n := len(ra)
	positions := make([]position.Sphere, n)
	payloads := make([]celldata.Scalar, n)
	for i := 0; i < n; i++ {
		p, err := position.NewSphere(ra[i], dec[i], position.Radians, position.Radians)
		if err != nil {
			setLastError(token, ErrCodeInvalidParameter, err.Error())
			return 0
		}
		positions[i] = p
		payloads[i] = celldata.NewScalar(k[i], w[i])
	}
	return buildField[celldata.Scalar, position.Sphere](token, "K", "Sphere", positions, w, payloads, minSep, maxSep, b, splitMethodInt)
}

// DestroyKFieldFlat frees the Field referenced by h.
func DestroyKFieldFlat(h Handle) bool {
	return deleteHandle[*field.Field[celldata.Scalar, position.Flat]](h)
}

// DestroyKFieldSphere frees the Field referenced by h.
func DestroyKFieldSphere(h Handle) bool {
	return deleteHandle[*field.Field[celldata.Scalar, position.Sphere]](h)
}

// --- G (shear) fields ---

// BuildGFieldFlat builds a shear field over Cartesian (x, y) coordinates.
// flipG1 and flipG2 negate the respective component before it is folded
// into the weighted payload sum, applied here rather than inside the
// generic field package since the flip is a Shear-specific ambient
// config knob, not part of the core algorithm.
func BuildGFieldFlat(token int64, x, y, g1, g2, w []float64, flipG1, flipG2 bool, minSep, maxSep, b float64, splitMethodInt int) Handle {
	if len(x) != len(y) || len(x) != len(g1) || len(x) != len(g2) || len(x) != len(w) {
		setLastError(token, ErrCodeInvalidDimensions, "x, y, g1, g2, and w must have equal length")
		return 0
	}
	n := len(x)
	positions := make([]position.Flat, n)
	payloads := make([]celldata.Shear, n)
	for i := 0; i < n; i++ {
		positions[i] = position.Flat{X: x[i], Y: y[i]}
		payloads[i] = celldata.NewShear(flipSign(g1[i], flipG1), flipSign(g2[i], flipG2), w[i])
	}
	return buildField[celldata.Shear, position.Flat](token, "G", "Flat", positions, w, payloads, minSep, maxSep, b, splitMethodInt)
}

// BuildGFieldSphere builds a shear field over (ra, dec) coordinates
// already expressed in radians.
func BuildGFieldSphere(token int64, ra, dec, g1, g2, w []float64, flipG1, flipG2 bool, minSep, maxSep, b float64, splitMethodInt int) Handle {
	if len(ra) != len(dec) || len(ra) != len(g1) || len(ra) != len(g2) || len(ra) != len(w) {
		setLastError(token, ErrCodeInvalidDimensions, "ra, dec, g1, g2, and w must have equal length")
		return 0
	}
	n := len(ra)
	positions := make([]position.Sphere, n)
	payloads := make([]celldata.Shear, n)
	for i := 0; i < n; i++ {
		p, err := position.NewSphere(ra[i], dec[i], position.Radians, position.Radians)
		if err != nil {
			setLastError(token, ErrCodeInvalidParameter, err.Error())
			return 0
		}
		positions[i] = p
		payloads[i] = celldata.NewShear(flipSign(g1[i], flipG1), flipSign(g2[i], flipG2), w[i])
	}
	return buildField[celldata.Shear, position.Sphere](token, "G", "Sphere", positions, w, payloads, minSep, maxSep, b, splitMethodInt)
}

// DestroyGFieldFlat frees the Field referenced by h.
func DestroyGFieldFlat(h Handle) bool {
	return deleteHandle[*field.Field[celldata.Shear, position.Flat]](h)
}

// DestroyGFieldSphere frees the Field referenced by h.
func DestroyGFieldSphere(h Handle) bool {
	return deleteHandle[*field.Field[celldata.Shear, position.Sphere]](h)
}
