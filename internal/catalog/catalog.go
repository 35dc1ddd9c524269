// Package catalog holds the immutable table of blokk pieces: their identity,
// display attributes and canonical shapes, plus the grouped lookups the
// sampler and solver need.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/banshee-data/blokk/internal/geometry"
)

// ErrUnknownPiece is returned when a piece ID is not in the catalog.
var ErrUnknownPiece = errors.New("catalog: unknown piece")

// Piece is one blokk.
type Piece struct {
	ID     int            `json:"id"`
	Name   string         `json:"name"`
	Color  string         `json:"color"`
	Volume int            `json:"volume"`
	Shape  geometry.Shape `json:"shape"`
	// MaxExtent is one more than the largest coordinate of the canonical
	// shape. A piece cannot fit a grid smaller than this along every axis.
	MaxExtent int `json:"-"`
}

// Catalog is a read-only set of pieces keyed by ID. It is safe for
// concurrent use.
type Catalog struct {
	pieces map[int]Piece
	ids    []int
	cache  *geometry.PlacementCache
}

// New validates pieces and builds a catalog. Shapes are normalized, volumes
// must match the voxel count and IDs must be unique and positive.
func New(pieces []Piece) (*Catalog, error) {
	c := &Catalog{
		pieces: make(map[int]Piece, len(pieces)),
		cache:  geometry.NewPlacementCache(),
	}
	for _, p := range pieces {
		if p.ID <= 0 {
			return nil, fmt.Errorf("piece %q: id must be positive, got %d", p.Name, p.ID)
		}
		if _, dup := c.pieces[p.ID]; dup {
			return nil, fmt.Errorf("piece %d: duplicate id", p.ID)
		}
		shape, err := geometry.Normalize(p.Shape)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", p.ID, err)
		}
		if p.Volume != shape.Len() {
			return nil, fmt.Errorf("piece %d: volume %d does not match %d voxels", p.ID, p.Volume, shape.Len())
		}
		p.Shape = shape
		p.MaxExtent = shape.MaxCoord() + 1
		c.pieces[p.ID] = p
	}
	c.ids = slices.Sorted(maps.Keys(c.pieces))
	return c, nil
}

// Len returns the number of pieces.
func (c *Catalog) Len() int { return len(c.ids) }

// IDs returns all piece IDs in ascending order.
func (c *Catalog) IDs() []int { return slices.Clone(c.ids) }

// Pieces returns all pieces ordered by ID.
func (c *Catalog) Pieces() []Piece {
	out := make([]Piece, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.pieces[id]
	}
	return out
}

// Piece returns the piece with the given ID.
func (c *Catalog) Piece(id int) (Piece, error) {
	p, ok := c.pieces[id]
	if !ok {
		return Piece{}, fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	return p, nil
}

// Volume returns the voxel count of a piece.
func (c *Catalog) Volume(id int) (int, error) {
	p, err := c.Piece(id)
	if err != nil {
		return 0, err
	}
	return p.Volume, nil
}

// Shape returns the canonical shape of a piece.
func (c *Catalog) Shape(id int) (geometry.Shape, error) {
	p, err := c.Piece(id)
	if err != nil {
		return geometry.Shape{}, err
	}
	return p.Shape, nil
}

// Shapes resolves each ID in order.
func (c *Catalog) Shapes(ids []int) ([]geometry.Shape, error) {
	out := make([]geometry.Shape, len(ids))
	for i, id := range ids {
		s, err := c.Shape(id)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Subset returns a new catalog holding only the given IDs.
func (c *Catalog) Subset(ids ...int) (*Catalog, error) {
	pieces := make([]Piece, 0, len(ids))
	for _, id := range ids {
		p, err := c.Piece(id)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, p)
	}
	return New(pieces)
}

// Cache returns the placement cache shared by lookups on this catalog.
func (c *Catalog) Cache() *geometry.PlacementCache { return c.cache }
