package geometry

import "slices"

// Matrix is a 3×3 integer matrix acting on voxels as column vectors.
type Matrix [3][3]int

// Identity is the identity rotation.
var Identity = Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Quarter turns about each axis, right-handed.
var (
	quarterX = Matrix{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}}
	quarterY = Matrix{{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}}
	quarterZ = Matrix{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
)

// rotations holds the 24 proper rotations of the cube, built once at init.
var rotations = closeGroup(quarterX, quarterY, quarterZ)

// Apply returns m·v.
func (m Matrix) Apply(v Voxel) Voxel {
	return Voxel{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul returns the product m·o, the rotation that applies o first.
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// Transpose returns the transpose of m. For a rotation this is its inverse.
func (m Matrix) Transpose() Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Det returns the determinant of m.
func (m Matrix) Det() int {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// closeGroup returns the closure of the generators under multiplication,
// starting from the identity and expanding breadth first.
func closeGroup(gens ...Matrix) []Matrix {
	seen := map[Matrix]bool{Identity: true}
	group := []Matrix{Identity}
	for i := 0; i < len(group); i++ {
		for _, g := range gens {
			next := g.Mul(group[i])
			if seen[next] {
				continue
			}
			seen[next] = true
			group = append(group, next)
		}
	}
	return group
}

// RotationMatrices returns the 24 proper rotations of the cube. The order is
// stable for the lifetime of the process; the first entry is Identity.
func RotationMatrices() []Matrix {
	return slices.Clone(rotations)
}

// Rotate applies m to every voxel of s.
func Rotate(s Shape, m Matrix) Shape {
	vs := make([]Voxel, len(s.voxels))
	for i, v := range s.voxels {
		vs[i] = m.Apply(v)
	}
	return NewShape(vs...)
}
