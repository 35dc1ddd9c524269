// Package testutil provides shared test helpers for builds and errors.
package testutil

import (
	"testing"

	"github.com/banshee-data/blokk/internal/geometry"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CheckTiling returns a non-empty description of the first problem that
// keeps build from being a tiling of the n-cube by pieces: a length
// mismatch, a placement that is not a rotation and translation of its
// piece, an overlap, or an uncovered cell.
func CheckTiling(pieces, build []geometry.Shape, n int) string {
	if len(pieces) != len(build) {
		return "build and pieces differ in length"
	}
	covered := make(map[geometry.Voxel]int)
	for i, placed := range build {
		if !isMotionOf(pieces[i], placed) {
			return "placement " + placed.String() + " is not a rotation of " + pieces[i].String()
		}
		for _, v := range placed.Voxels() {
			if !v.Within(n) {
				return "voxel " + v.String() + " outside the cube"
			}
			if _, dup := covered[v]; dup {
				return "voxel " + v.String() + " covered twice"
			}
			covered[v] = i
		}
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				v := geometry.Voxel{X: x, Y: y, Z: z}
				if _, ok := covered[v]; !ok {
					return "voxel " + v.String() + " not covered"
				}
			}
		}
	}
	return ""
}

func isMotionOf(piece, placed geometry.Shape) bool {
	norm, err := geometry.Normalize(placed)
	if err != nil {
		return false
	}
	rots, err := geometry.Rotations(piece)
	if err != nil {
		return false
	}
	for _, r := range rots {
		if r.Equal(norm) {
			return true
		}
	}
	return false
}

// AssertTiling fails the test unless build tiles the n-cube with pieces.
func AssertTiling(t testing.TB, pieces, build []geometry.Shape, n int) {
	t.Helper()
	if msg := CheckTiling(pieces, build, n); msg != "" {
		t.Errorf("not a tiling of the %d-cube: %s", n, msg)
	}
}
