package geometry

import (
	"fmt"
	"math/bits"
)

// Mask is a bit set over the cells of a cubeSize³ grid, x-major.
type Mask []uint64

// Occupancy tracks which cells of an n×n×n grid are filled.
type Occupancy struct {
	n     int
	words []uint64
}

// NewOccupancy returns an empty occupancy grid of side n.
func NewOccupancy(n int) (*Occupancy, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCubeSize, n)
	}
	return &Occupancy{n: n, words: make([]uint64, wordsFor(n))}, nil
}

func wordsFor(n int) int {
	return (n*n*n + 63) / 64
}

// Size returns the grid side length.
func (o *Occupancy) Size() int { return o.n }

// Mask converts a shape into a bit mask for this grid. Voxels outside the
// grid are an error.
func (o *Occupancy) Mask(s Shape) (Mask, error) {
	m := make(Mask, len(o.words))
	for _, v := range s.voxels {
		if !v.Within(o.n) {
			return nil, fmt.Errorf("voxel %v outside %d-grid", v, o.n)
		}
		i := (v.X*o.n+v.Y)*o.n + v.Z
		m[i>>6] |= 1 << (uint(i) & 63)
	}
	return m, nil
}

// Overlaps reports whether any cell of m is already filled.
func (o *Occupancy) Overlaps(m Mask) bool {
	for i, w := range m {
		if o.words[i]&w != 0 {
			return true
		}
	}
	return false
}

// Add fills the cells of m.
func (o *Occupancy) Add(m Mask) {
	for i, w := range m {
		o.words[i] |= w
	}
}

// Remove clears the cells of m. m must have been added before.
func (o *Occupancy) Remove(m Mask) {
	for i, w := range m {
		o.words[i] &^= w
	}
}

// Count returns the number of filled cells.
func (o *Occupancy) Count() int {
	c := 0
	for _, w := range o.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Reset clears every cell.
func (o *Occupancy) Reset() {
	clear(o.words)
}
