package catalog

import (
	"maps"
	"slices"

	"github.com/banshee-data/blokk/internal/geometry"
)

// Filter narrows grouped lookups. Zero fields do not filter.
type Filter struct {
	// MaxVolume drops pieces with more voxels than this.
	MaxVolume int
	// CubeSize drops pieces whose MaxExtent exceeds the grid side.
	CubeSize int
}

func (f Filter) keep(p Piece) bool {
	if f.MaxVolume > 0 && p.Volume > f.MaxVolume {
		return false
	}
	if f.CubeSize > 0 && p.MaxExtent > f.CubeSize {
		return false
	}
	return true
}

// VolumeToIDs groups the IDs that pass f by volume. Each ID list is
// ascending.
func (c *Catalog) VolumeToIDs(f Filter) map[int][]int {
	out := make(map[int][]int)
	for _, id := range c.ids {
		p := c.pieces[id]
		if f.keep(p) {
			out[p.Volume] = append(out[p.Volume], id)
		}
	}
	return out
}

// Volumes returns the distinct volumes of the pieces passing f, ascending.
func (c *Catalog) Volumes(f Filter) []int {
	return slices.Sorted(maps.Keys(c.VolumeToIDs(f)))
}

// Placements returns every placement of a piece in a cubeSize grid. The
// result is shared through the catalog cache and must not be modified.
func (c *Catalog) Placements(id, cubeSize int) ([]geometry.Shape, error) {
	p, err := c.Piece(id)
	if err != nil {
		return nil, err
	}
	return c.cache.Placements(p.Shape, cubeSize)
}

// PlacementTable returns the placements of every piece in a cubeSize grid.
func (c *Catalog) PlacementTable(cubeSize int) (map[int][]geometry.Shape, error) {
	out := make(map[int][]geometry.Shape, len(c.ids))
	for _, id := range c.ids {
		ps, err := c.Placements(id, cubeSize)
		if err != nil {
			return nil, err
		}
		out[id] = ps
	}
	return out, nil
}
