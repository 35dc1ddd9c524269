package geometry

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidCubeSize is returned when a grid size is not positive.
var ErrInvalidCubeSize = errors.New("geometry: cube size must be positive")

// Rotations returns the distinct normalized orientations of s, ordered by
// voxel sequence.
func Rotations(s Shape) ([]Shape, error) {
	if s.IsEmpty() {
		return nil, ErrEmptyShape
	}
	seen := make(map[string]struct{}, len(rotations))
	out := make([]Shape, 0, len(rotations))
	for _, m := range rotations {
		r, err := Normalize(Rotate(s, m))
		if err != nil {
			return nil, err
		}
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	slices.SortFunc(out, compareShapes)
	return out, nil
}

// Placements returns every position and orientation in which s fits inside
// a cubeSize×cubeSize×cubeSize grid. A shape wider than the grid has no
// placements; that is not an error.
func Placements(s Shape, cubeSize int) ([]Shape, error) {
	if cubeSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCubeSize, cubeSize)
	}
	rots, err := Rotations(s)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []Shape
	for _, r := range rots {
		e := r.Extent()
		for dx := 0; dx <= cubeSize-e.X; dx++ {
			for dy := 0; dy <= cubeSize-e.Y; dy++ {
				for dz := 0; dz <= cubeSize-e.Z; dz++ {
					p := Translate(r, Voxel{dx, dy, dz})
					k := p.Key()
					if _, ok := seen[k]; ok {
						continue
					}
					seen[k] = struct{}{}
					out = append(out, p)
				}
			}
		}
	}
	slices.SortFunc(out, compareShapes)
	return out, nil
}
