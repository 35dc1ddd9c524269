// Package solver searches for exact covers of an n×n×n cube by a set of
// pieces, one sample at a time or in batches over the partition sampler.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/geometry"
)

var (
	// ErrOverlap is returned by Verify when two placements share a voxel.
	ErrOverlap = errors.New("solver: placements overlap")
	// ErrOutOfBounds is returned by Verify when a voxel lies outside the grid.
	ErrOutOfBounds = errors.New("solver: placement outside grid")
)

// checkEvery is how many search steps run between context checks.
const checkEvery = 1 << 12

// Build holds one placement per piece, in input order.
type Build []geometry.Shape

// Volume returns the total voxel count of the build.
func (b Build) Volume() int {
	n := 0
	for _, s := range b {
		n += s.Len()
	}
	return n
}

// Solve searches the cartesian product of the placement sets of shapes in a
// cubeSize grid, last shape varying fastest, and returns the first tuple
// whose placements are pairwise disjoint. An empty shape list is solved by
// the empty build. A shape with no placements makes the search fail
// without error.
func Solve(ctx context.Context, shapes []geometry.Shape, cubeSize int, opts ...Option) (Build, bool, error) {
	o := buildOptions(opts)
	return solve(ctx, shapes, cubeSize, &o)
}

// SolveIDs resolves piece IDs through cat and calls Solve.
func SolveIDs(ctx context.Context, cat *catalog.Catalog, ids []int, cubeSize int, opts ...Option) (Build, bool, error) {
	shapes, err := cat.Shapes(ids)
	if err != nil {
		return nil, false, err
	}
	o := buildOptions(opts)
	if o.cache == nil {
		o.cache = cat.Cache()
	}
	return solve(ctx, shapes, cubeSize, &o)
}

func solve(ctx context.Context, shapes []geometry.Shape, cubeSize int, o *options) (Build, bool, error) {
	if cubeSize <= 0 {
		return nil, false, fmt.Errorf("%w: %d", geometry.ErrInvalidCubeSize, cubeSize)
	}
	if len(shapes) == 0 {
		return Build{}, true, nil
	}

	placements := make([][]geometry.Shape, len(shapes))
	for i, s := range shapes {
		var (
			ps  []geometry.Shape
			err error
		)
		if o.cache != nil {
			ps, err = o.cache.Placements(s, cubeSize)
		} else {
			ps, err = geometry.Placements(s, cubeSize)
		}
		if err != nil {
			return nil, false, fmt.Errorf("placements of shape %d: %w", i, err)
		}
		if len(ps) == 0 {
			return nil, false, nil
		}
		placements[i] = ps
	}

	sp, err := newSpace(placements, cubeSize)
	if err != nil {
		return nil, false, err
	}

	var idx []int
	var ok bool
	switch o.strategy {
	case StrategyExhaustive:
		idx, ok, err = sp.exhaustive(ctx)
	default:
		idx, ok, err = sp.pruned(ctx)
	}
	if err != nil || !ok {
		return nil, false, err
	}

	build := make(Build, len(idx))
	for i, j := range idx {
		build[i] = placements[i][j]
	}
	return build, true, nil
}

// space is the placement product of one search with a bit mask per
// placement.
type space struct {
	lens  []int
	masks [][]geometry.Mask
	occ   *geometry.Occupancy
}

func newSpace(placements [][]geometry.Shape, cubeSize int) (*space, error) {
	occ, err := geometry.NewOccupancy(cubeSize)
	if err != nil {
		return nil, err
	}
	sp := &space{
		lens:  make([]int, len(placements)),
		masks: make([][]geometry.Mask, len(placements)),
		occ:   occ,
	}
	for i, ps := range placements {
		sp.lens[i] = len(ps)
		sp.masks[i] = make([]geometry.Mask, len(ps))
		for j, p := range ps {
			m, err := occ.Mask(p)
			if err != nil {
				return nil, err
			}
			sp.masks[i][j] = m
		}
	}
	return sp, nil
}

// disjoint reports whether the tuple idx is pairwise disjoint. It leaves
// the occupancy grid empty.
func (sp *space) disjoint(idx []int) bool {
	defer sp.occ.Reset()
	for i, j := range idx {
		m := sp.masks[i][j]
		if sp.occ.Overlaps(m) {
			return false
		}
		sp.occ.Add(m)
	}
	return true
}

// card returns the product cardinality, or false if it overflows int.
func (sp *space) card() (int, bool) {
	c := 1
	for _, l := range sp.lens {
		if c > math.MaxInt/l {
			return 0, false
		}
		c *= l
	}
	return c, true
}

// exhaustive tests every full tuple in row-major order.
func (sp *space) exhaustive(ctx context.Context) ([]int, bool, error) {
	idx := make([]int, len(sp.lens))
	if _, ok := sp.card(); !ok {
		// Too many tuples for a linear index; step an odometer instead.
		for steps := 0; ; steps++ {
			if steps%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, false, err
				}
			}
			if sp.disjoint(idx) {
				return idx, true, nil
			}
			if !advance(idx, sp.lens, len(idx)-1) {
				return nil, false, nil
			}
		}
	}

	gen := combin.NewCartesianGenerator(sp.lens)
	for steps := 0; gen.Next(); steps++ {
		if steps%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
		}
		gen.Product(idx)
		if sp.disjoint(idx) {
			return idx, true, nil
		}
	}
	return nil, false, nil
}

// pruned walks the same row-major order depth first. When the placement at
// depth d collides with the prefix, every tuple below it collides too, so
// the search moves straight to the next placement at depth d.
func (sp *space) pruned(ctx context.Context) ([]int, bool, error) {
	k := len(sp.lens)
	idx := make([]int, k)
	defer sp.occ.Reset()

	depth := 0
	for steps := 0; ; steps++ {
		if steps%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
		}
		m := sp.masks[depth][idx[depth]]
		if !sp.occ.Overlaps(m) {
			sp.occ.Add(m)
			if depth == k-1 {
				return idx, true, nil
			}
			depth++
			idx[depth] = 0
			continue
		}
		// Move to the next sibling, unwinding exhausted levels.
		for {
			idx[depth]++
			if idx[depth] < sp.lens[depth] {
				break
			}
			idx[depth] = 0
			depth--
			if depth < 0 {
				return nil, false, nil
			}
			sp.occ.Remove(sp.masks[depth][idx[depth]])
		}
	}
}

// advance increments idx as an odometer with the given digit ranges, last
// digit fastest, starting at digit pos. It reports false after the last
// tuple.
func advance(idx, lens []int, pos int) bool {
	for i := pos; i >= 0; i-- {
		idx[i]++
		if idx[i] < lens[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

// Verify checks that every placement lies inside a cubeSize grid and that
// no two placements share a voxel.
func Verify(build Build, cubeSize int) error {
	if len(build) == 0 {
		return nil
	}
	occ, err := geometry.NewOccupancy(cubeSize)
	if err != nil {
		return err
	}
	for i, s := range build {
		m, err := occ.Mask(s)
		if err != nil {
			return fmt.Errorf("%w: piece %d: %v", ErrOutOfBounds, i, err)
		}
		if occ.Overlaps(m) {
			return fmt.Errorf("%w: piece %d", ErrOverlap, i)
		}
		occ.Add(m)
	}
	if occ.Count() != build.Volume() {
		return fmt.Errorf("%w: union has %d voxels, pieces have %d", ErrOverlap, occ.Count(), build.Volume())
	}
	return nil
}
