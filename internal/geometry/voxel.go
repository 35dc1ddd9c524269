// Package geometry provides integer voxel shapes, the rotation group of the
// cube and placement enumeration for polycube pieces inside an n×n×n grid.
package geometry

import (
	"cmp"
	"fmt"
)

// Voxel is one unit cell of a grid, addressed by integer coordinates.
type Voxel struct {
	X, Y, Z int
}

// Add returns the component-wise sum v + o.
func (v Voxel) Add(o Voxel) Voxel {
	return Voxel{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns the component-wise difference v - o.
func (v Voxel) Sub(o Voxel) Voxel {
	return Voxel{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Within reports whether every coordinate lies in [0, n).
func (v Voxel) Within(n int) bool {
	return v.X >= 0 && v.X < n && v.Y >= 0 && v.Y < n && v.Z >= 0 && v.Z < n
}

func (v Voxel) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// compareVoxels orders voxels lexicographically by X, then Y, then Z.
func compareVoxels(a, b Voxel) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}
