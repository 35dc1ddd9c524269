package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrEmptyShape is returned by operations that need at least one voxel.
var ErrEmptyShape = errors.New("geometry: empty shape")

// Shape is a set of voxels. The voxels are kept sorted and free of
// duplicates, so two shapes holding the same set compare equal with Equal
// and produce the same Key. The zero value is the empty shape.
type Shape struct {
	voxels []Voxel
}

// NewShape builds a shape from the given voxels. Order and duplicates in the
// input do not matter.
func NewShape(voxels ...Voxel) Shape {
	vs := slices.Clone(voxels)
	slices.SortFunc(vs, compareVoxels)
	vs = slices.Compact(vs)
	return Shape{voxels: vs}
}

// ShapeFromTriples builds a shape from [x, y, z] coordinate triples, the
// form used by catalog files and stored builds.
func ShapeFromTriples(triples [][3]int) Shape {
	vs := make([]Voxel, len(triples))
	for i, t := range triples {
		vs[i] = Voxel{t[0], t[1], t[2]}
	}
	return NewShape(vs...)
}

// Len returns the number of voxels in the shape.
func (s Shape) Len() int { return len(s.voxels) }

// IsEmpty reports whether the shape holds no voxels.
func (s Shape) IsEmpty() bool { return len(s.voxels) == 0 }

// At returns the i-th voxel in sorted order.
func (s Shape) At(i int) Voxel { return s.voxels[i] }

// Voxels returns a copy of the voxels in sorted order.
func (s Shape) Voxels() []Voxel { return slices.Clone(s.voxels) }

// Triples returns the voxels as [x, y, z] triples in sorted order.
func (s Shape) Triples() [][3]int {
	out := make([][3]int, len(s.voxels))
	for i, v := range s.voxels {
		out[i] = [3]int{v.X, v.Y, v.Z}
	}
	return out
}

// Contains reports whether v belongs to the shape.
func (s Shape) Contains(v Voxel) bool {
	_, found := slices.BinarySearchFunc(s.voxels, v, compareVoxels)
	return found
}

// Equal reports whether both shapes hold the same voxel set.
func (s Shape) Equal(o Shape) bool {
	return slices.Equal(s.voxels, o.voxels)
}

// Key returns a stable string identifying the voxel set, suitable as a map
// key. Equal shapes have equal keys.
func (s Shape) Key() string {
	buf := make([]byte, 0, len(s.voxels)*8)
	for i, v := range s.voxels {
		if i > 0 {
			buf = append(buf, ';')
		}
		buf = strconv.AppendInt(buf, int64(v.X), 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(v.Y), 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(v.Z), 10)
	}
	return string(buf)
}

// Bounds returns the per-axis minimum and maximum coordinates. Both are the
// zero voxel for an empty shape.
func (s Shape) Bounds() (lo, hi Voxel) {
	if len(s.voxels) == 0 {
		return Voxel{}, Voxel{}
	}
	lo, hi = s.voxels[0], s.voxels[0]
	for _, v := range s.voxels[1:] {
		lo.X, hi.X = min(lo.X, v.X), max(hi.X, v.X)
		lo.Y, hi.Y = min(lo.Y, v.Y), max(hi.Y, v.Y)
		lo.Z, hi.Z = min(lo.Z, v.Z), max(hi.Z, v.Z)
	}
	return lo, hi
}

// Extent returns the bounding box size (max - min + 1) on each axis.
func (s Shape) Extent() Voxel {
	if len(s.voxels) == 0 {
		return Voxel{}
	}
	lo, hi := s.Bounds()
	return hi.Sub(lo).Add(Voxel{1, 1, 1})
}

// MaxCoord returns the largest coordinate value found on any axis.
func (s Shape) MaxCoord() int {
	_, hi := s.Bounds()
	return max(hi.X, hi.Y, hi.Z)
}

func (s Shape) String() string {
	parts := make([]string, len(s.voxels))
	for i, v := range s.voxels {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalJSON encodes the shape as a list of [x, y, z] triples.
func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Triples())
}

// UnmarshalJSON decodes a list of [x, y, z] triples.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var triples [][3]int
	if err := json.Unmarshal(data, &triples); err != nil {
		return fmt.Errorf("decode shape: %w", err)
	}
	*s = ShapeFromTriples(triples)
	return nil
}

// compareShapes orders shapes by their sorted voxel sequences.
func compareShapes(a, b Shape) int {
	return slices.CompareFunc(a.voxels, b.voxels, compareVoxels)
}

// Normalize translates s so that its minimum coordinate on every axis is 0.
// Shapes that differ only by a translation normalize to equal shapes.
func Normalize(s Shape) (Shape, error) {
	if s.IsEmpty() {
		return Shape{}, ErrEmptyShape
	}
	lo, _ := s.Bounds()
	return Translate(s, Voxel{-lo.X, -lo.Y, -lo.Z}), nil
}

// Translate moves every voxel of s by d.
func Translate(s Shape, d Voxel) Shape {
	// Adding a constant keeps lexicographic order, so no re-sort is needed.
	vs := make([]Voxel, len(s.voxels))
	for i, v := range s.voxels {
		vs[i] = v.Add(d)
	}
	return Shape{voxels: vs}
}
