package report

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/banshee-data/blokk/internal/geometry"
)

// DefaultMeshCells is the marching cubes resolution along the longest side.
const DefaultMeshCells = 64

// voxelBox returns a size-wide cube whose minimum corner sits at v*size.
func voxelBox(v geometry.Voxel, size float64) (sdf.SDF3, error) {
	box, err := sdf.Box3D(v3.Vec{X: size, Y: size, Z: size}, 0)
	if err != nil {
		return nil, err
	}
	// Box3D is centred on the origin.
	m := sdf.Translate3d(v3.Vec{
		X: (float64(v.X) + 0.5) * size,
		Y: (float64(v.Y) + 0.5) * size,
		Z: (float64(v.Z) + 0.5) * size,
	})
	return sdf.Transform3D(box, m), nil
}

// BuildSolid returns the union of every voxel of every shape, each voxel a
// cube of edge size.
func BuildSolid(build []geometry.Shape, size float64) (sdf.SDF3, error) {
	if size <= 0 {
		return nil, fmt.Errorf("voxel size must be positive, got %g", size)
	}
	var boxes []sdf.SDF3
	for _, s := range build {
		for _, v := range s.Voxels() {
			b, err := voxelBox(v, size)
			if err != nil {
				return nil, fmt.Errorf("voxel %v: %w", v, err)
			}
			boxes = append(boxes, b)
		}
	}
	if len(boxes) == 0 {
		return nil, geometry.ErrEmptyShape
	}
	return sdf.Union3D(boxes...), nil
}

// WriteSTL tessellates the build and writes it as binary STL.
func WriteSTL(w io.Writer, build []geometry.Shape, size float64, cells int) error {
	solid, err := BuildSolid(build, size)
	if err != nil {
		return err
	}
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(solid, render.NewMarchingCubesUniform(cells))

	bw := bufio.NewWriter(w)
	var header [80]byte
	copy(header[:], "blokk build")
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}

	var rec [50]byte
	put := func(off int, f float64) {
		binary.LittleEndian.PutUint32(rec[off:], math.Float32bits(float32(f)))
	}
	for _, tri := range triangles {
		n := tri.Normal()
		put(0, n.X)
		put(4, n.Y)
		put(8, n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			put(12+j*12, v.X)
			put(16+j*12, v.Y)
			put(20+j*12, v.Z)
		}
		// rec[48:50] is the attribute byte count, always zero
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
