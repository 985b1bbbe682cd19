// Package field builds the top-level Field<Kind, Geom>: a flat vector
// of root Cells whose combined lifetime tracks the Field's. Everything
// this package does is generic over the payload kind and geometry, so
// it is instantiated once per (Kind, Geometry) pair by the capi package,
// exactly the way celldata, partition, and cell already are.
package field

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ztq1996/treecorr/celldata"
	"github.com/ztq1996/treecorr/cell"
	"github.com/ztq1996/treecorr/distbuild"
	"github.com/ztq1996/treecorr/partition"
	"github.com/ztq1996/treecorr/position"
)

// Logger is the package-level logger every Build call writes its single
// end-of-build line to. Collaborators that want a different sink can
// replace it wholesale; there is no level filtering or structured
// output, matching the small amount of ambient logging InMAP itself carries.
var Logger = log.New(os.Stderr, "", log.LstdFlags)

// distbuildThreshold is the top-level root count above which Build
// switches from one-goroutine-per-root (errgroup) to the distbuild
// bounded worker pool, avoiding unbounded goroutine spawn for very wide
// catalogs.
const distbuildThreshold = 512

// Field owns the top-level Cells produced by a single Build call. The
// lifetime of every Cell and CellData transitively reachable from a
// Field ends when the Field itself is dropped — Go's GC handles this
// once nothing else references the tree, so Field carries no explicit
// Close/Destroy; capi's destructors simply drop their handle-table
// reference.
type Field[P celldata.Payload[P], G position.Point[G]] struct {
	Roots []*cell.Cell[P, G]
}

// NPoints returns the total number of catalog points retained across
// every root (after zero-weight filtering).
func (f *Field[P, G]) NPoints() int {
	var n int
	for _, r := range f.Roots {
		n += r.NPoints()
	}
	return n
}

// Build filters zero-weight rows, derives the min/max size-squared
// bounds from cfg, and constructs either a brute-force forest of
// single-point roots (cfg.MaxSep*cfg.B == 0) or a top-level cut
// followed by a parallel per-root build.
//
// positions, weights, and payloads must have equal length n; rng is
// consulted only under the Random split policy and only sequentially,
// during the top-level setup pass and to seed one generator per root for
// the parallel build, so it may be nil for the other three policies.
// metrics may be nil.
//
// ctx cancellation stands in for an allocation-failure unwind: Go does
// not expose out-of-memory as a recoverable error, so Build instead
// checks ctx between top-level
// roots and returns ctx.Err() wrapped in ErrOutOfMemory if the caller
// cancels a build in progress, abandoning the partially-built forest for
// the garbage collector rather than unwinding it by hand.
func Build[P celldata.Payload[P], G position.Point[G]](
	ctx context.Context,
	kind, geom string,
	positions []G,
	weights []float64,
	payloads []P,
	cfg Config,
	rng *rand.Rand,
	metrics *Metrics,
) (*Field[P, G], error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(positions) != len(weights) || len(positions) != len(payloads) {
		return nil, fmt.Errorf("field: positions (%d), weights (%d), and payloads (%d) must have equal length: %w",
			len(positions), len(weights), len(payloads), ErrInvalidDimensions)
	}

	slice := make([]*celldata.CellData[P, G], 0, len(positions))
	for i := range positions {
		if weights[i] == 0 {
			continue
		}
		slice = append(slice, celldata.NewSinglePoint(positions[i], weights[i], payloads[i]))
	}

	if len(slice) == 0 {
		Logger.Printf("field: %s/%s: all %d input rows have zero weight, built an empty field", kind, geom, len(positions))
		return &Field[P, G]{}, nil
	}

	minSize := cfg.MinSep * cfg.B / (2 + 3*cfg.B)
	maxSize := cfg.MaxSep * cfg.B
	minSizeSq := minSize * minSize
	maxSizeSq := maxSize * maxSize

	cellsBuiltBefore := cell.Stats.CellsBuilt.Load()

	var roots []*fieldRoot[P, G]
	if maxSizeSq == 0 {
		roots = bruteForceRoots(slice)
	} else {
		roots = topLevelRoots(slice, minSizeSq, maxSizeSq, cfg.Split, rng)
	}

	// Each root gets its own generator, seeded from rng in root order, so
	// the parallel builds below never share rng and stay reproducible.
	rootRngs := make([]*rand.Rand, len(roots))
	if cfg.Split == partition.Random && rng != nil {
		for i := range rootRngs {
			rootRngs[i] = rand.New(rand.NewSource(rng.Int63()))
		}
	}

	f := &Field[P, G]{Roots: make([]*cell.Cell[P, G], len(roots))}
	buildFn := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := roots[i]
		f.Roots[i] = cell.Build(slice, r.start, r.end, r.summary, r.sizeSq, minSizeSq, cfg.Split, rootRngs[i])
		return nil
	}

	var buildErr error
	if len(roots) >= distbuildThreshold {
		buildErr = distbuild.Run(ctx, len(roots), buildFn)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range roots {
			i := i
			g.Go(func() error { return buildFn(gctx, i) })
		}
		buildErr = g.Wait()
	}
	if buildErr != nil {
		return nil, fmt.Errorf("field: %s/%s: %w: %v", kind, geom, ErrOutOfMemory, buildErr)
	}

	if metrics != nil {
		metrics.cellsBuilt.Add(float64(cell.Stats.CellsBuilt.Load() - cellsBuiltBefore))
		metrics.topLevelCells.Observe(float64(len(roots)))
		metrics.buildDuration.Observe(time.Since(start).Seconds())
	}

	Logger.Printf("field: built %d top-level cells for %s/%s in %s", len(roots), kind, geom, time.Since(start))
	return f, nil
}

// fieldRoot is the package-internal equivalent of cell.Root, computed
// either by the top-level-setup pass or synthesized directly for the
// brute-force branch, so both branches can share the same parallel
// build loop above.
type fieldRoot[P celldata.Payload[P], G position.Point[G]] struct {
	summary    *celldata.CellData[P, G]
	sizeSq     float64
	start, end int
}

func topLevelRoots[P celldata.Payload[P], G position.Point[G]](
	slice []*celldata.CellData[P, G],
	minSizeSq, maxSizeSq float64,
	method partition.SplitMethod,
	rng *rand.Rand,
) []*fieldRoot[P, G] {
	cellRoots := cell.TopLevelSetup(slice, 0, len(slice), minSizeSq, maxSizeSq, method, rng)
	out := make([]*fieldRoot[P, G], len(cellRoots))
	for i, r := range cellRoots {
		out[i] = &fieldRoot[P, G]{summary: r.Summary, sizeSq: r.SizeSq, start: r.Start, end: r.End}
	}
	return out
}

// bruteForceRoots turns every input leaf into its own single-point
// root, with no aggregation pass at all.
func bruteForceRoots[P celldata.Payload[P], G position.Point[G]](slice []*celldata.CellData[P, G]) []*fieldRoot[P, G] {
	out := make([]*fieldRoot[P, G], len(slice))
	for i, cd := range slice {
		out[i] = &fieldRoot[P, G]{summary: cd, sizeSq: 0, start: i, end: i + 1}
	}
	return out
}
